package serializer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// IResultSerializer is the interface for all result file codecs
type IResultSerializer interface {
	// Name returns the format name (json, yaml, gob)
	Name() string
	// Serialize encodes v
	Serialize(v any) ([]byte, error)
	// Deserialize decodes b into v, which must be a pointer
	Deserialize(b []byte, v any) error
}

// Format names
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatGOB  = "gob"
)

// ForFormat returns the codec for a format name.
func ForFormat(format string) (IResultSerializer, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return NewJSONSerializer(), nil
	case FormatYAML, "yml":
		return NewYAMLSerializer(), nil
	case FormatGOB:
		return NewGOBSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid format: %s. must be one of json, yaml, gob", format)
	}
}

// ForPath returns the codec matching the extension of path.
// Unknown or missing extensions select json.
func ForPath(path string) IResultSerializer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLSerializer()
	case ".gob":
		return NewGOBSerializer()
	default:
		return NewJSONSerializer()
	}
}
