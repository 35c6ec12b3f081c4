package serializer

import "gopkg.in/yaml.v3"

// NewYAMLSerializer creates a new serializer using yaml encoding
func NewYAMLSerializer() IResultSerializer {
	return &yamlSerializerImpl{}
}

// yamlSerializerImpl implements the IResultSerializer interface using yaml encoding
type yamlSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IResultSerializer)
// --------------------------------------------------------------------------

func (y yamlSerializerImpl) Name() string { return FormatYAML }

func (y yamlSerializerImpl) Serialize(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (y yamlSerializerImpl) Deserialize(b []byte, v any) error {
	return yaml.Unmarshal(b, v)
}
