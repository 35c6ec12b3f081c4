package model

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestWidthIndex(t *testing.T) {
	for i, w := range FixedWidths {
		got, err := WidthIndex("key_size", w)
		if err != nil || got != i {
			t.Errorf("WidthIndex(%d) = %d, %v; want %d, nil", w, got, err, i)
		}
	}

	for _, w := range []int{0, 1, 7, 12, 100, 512, 1024} {
		_, err := WidthIndex("value_size", w)
		if !errors.Is(err, ErrUnsupportedWidth) {
			t.Errorf("WidthIndex(%d) error = %v, want ErrUnsupportedWidth", w, err)
			continue
		}
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "value_size" {
			t.Errorf("WidthIndex(%d) error does not name the field: %v", w, err)
		}
		if !strings.Contains(err.Error(), "unexpected fixed-width data size") {
			t.Errorf("unexpected message: %s", err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TestInputs)
		field  string
	}{
		{"defaults", func(*TestInputs) {}, ""},
		{"unknown key kind", func(in *TestInputs) { in.KeyKind = "blob" }, "key_kind"},
		{"unknown value kind", func(in *TestInputs) { in.ValueKind = "" }, "value_kind"},
		{"zero threads", func(in *TestInputs) { in.ThreadCount = 0 }, "threads"},
		{"zero op keys", func(in *TestInputs) { in.OperationKeyCount = 0 }, "op_keys"},
		{"negative init keys", func(in *TestInputs) { in.InitKeyCount = -1 }, "init_keys"},
		{"zero ops", func(in *TestInputs) { in.OperationCount = 0 }, "ops"},
		{"zero iterations", func(in *TestInputs) { in.IterationCount = 0 }, "iterations"},
		{"mix not 100", func(in *TestInputs) { in.ReadPercent = 60 }, "mix"},
		{"negative mix", func(in *TestInputs) { in.ReadPercent, in.UpsertPercent = 110, -10 }, "mix"},
		{"zipf parameter", func(in *TestInputs) { in.Distribution, in.DistributionParameter = DistZipf, 1 }, "distribution_parameter"},
		{"zipf NaN parameter", func(in *TestInputs) { in.Distribution, in.DistributionParameter = DistZipf, math.NaN() }, "distribution_parameter"},
		{"zipf infinite parameter", func(in *TestInputs) { in.Distribution, in.DistributionParameter = DistZipf, math.Inf(1) }, "distribution_parameter"},
		{"uniform NaN parameter", func(in *TestInputs) { in.DistributionParameter = math.NaN() }, "distribution_parameter"},
		{"uniform negative infinite parameter", func(in *TestInputs) { in.DistributionParameter = math.Inf(-1) }, "distribution_parameter"},
		{"unknown distribution", func(in *TestInputs) { in.Distribution = "normal" }, "distribution"},
		{"negative shards", func(in *TestInputs) { in.Shards = -2 }, "shards"},
		// widths are checked by strategy resolution
		{"odd width", func(in *TestInputs) { in.KeySize = 12 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := DefaultInputs()
			tt.modify(&in)
			err := in.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", cfgErr.Field, tt.field)
			}
			if !errors.Is(err, ErrInvalidInputs) {
				t.Error("expected ErrInvalidInputs")
			}
		})
	}
}

func TestInputsComparable(t *testing.T) {
	a, b := DefaultInputs(), DefaultInputs()
	m := map[TestInputs]int{a: 1}
	if m[b] != 1 {
		t.Error("equal inputs are not the same map key")
	}
	b.KeySize = 16
	if _, ok := m[b]; ok {
		t.Error("different inputs collide")
	}
}

func TestInputsString(t *testing.T) {
	in := DefaultInputs()
	in.Distribution = DistZipf
	s := in.String()
	for _, want := range []string{"--key-kind fixed", "--key-size 8", "--mix 50/50/0", "--distribution zipf", "--distribution-parameter 1.1"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestKindText(t *testing.T) {
	var in TestInputs
	err := json.Unmarshal([]byte(`{"key_kind":"VarLen","value_kind":"object","distribution":"Zipf"}`), &in)
	if err != nil {
		t.Fatal(err)
	}
	if in.KeyKind != KindVarLen || in.ValueKind != KindObject || in.Distribution != DistZipf {
		t.Errorf("unexpected kinds: %+v", in)
	}

	if err := json.Unmarshal([]byte(`{"key_kind":"blob"}`), &in); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestNewRate(t *testing.T) {
	r := NewRate(1000, 1e9)
	if r.OpsPerSec != 1000 {
		t.Errorf("OpsPerSec = %f, want 1000", r.OpsPerSec)
	}
	if z := NewRate(1000, 0); z.OpsPerSec != 0 {
		t.Errorf("zero elapsed gives %f", z.OpsPerSec)
	}
}

func TestOpCounts(t *testing.T) {
	a := OpCounts{Reads: 1, ReadHits: 1, Upserts: 2, RMWs: 3}
	b := a.Add(OpCounts{Reads: 4, Failed: 1})
	if b.Total() != 10 || b.Failed != 1 || b.ReadHits != 1 {
		t.Errorf("unexpected sum %+v", b)
	}
}
