package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line exceeds %d characters: %q", Wrap, line)
		}
	}
	if got := WrapString("  short   help "); got != "short help" {
		t.Errorf("WrapString = %q", got)
	}
}

func TestGetSerializer(t *testing.T) {
	t.Cleanup(viper.Reset)

	tests := []struct {
		format string
		path   string
		want   string
	}{
		{"", "out.yaml", "yaml"},
		{"", "out.gob", "gob"},
		{"", "out", "json"},
		{"gob", "out.json", "gob"},
	}

	for _, tt := range tests {
		viper.Set("format", tt.format)
		s, err := GetSerializer(tt.path)
		if err != nil {
			t.Fatalf("GetSerializer(%s, %s): %v", tt.format, tt.path, err)
		}
		if s.Name() != tt.want {
			t.Errorf("GetSerializer(%s, %s) = %s, want %s", tt.format, tt.path, s.Name(), tt.want)
		}
	}

	viper.Set("format", "xml")
	if _, err := GetSerializer("out.json"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWaitForEnter(t *testing.T) {
	var out bytes.Buffer
	WaitForEnter(strings.NewReader("\n"), &out)
	if !strings.Contains(out.String(), "ENTER") {
		t.Errorf("unexpected prompt %q", out.String())
	}
}
