package serializer

import "encoding/json"

// NewJSONSerializer creates a new serializer using indented json encoding
func NewJSONSerializer() IResultSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IResultSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IResultSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Name() string { return FormatJSON }

func (j jsonSerializerImpl) Serialize(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (j jsonSerializerImpl) Deserialize(b []byte, v any) error {
	return json.Unmarshal(b, v)
}
