// Package serializer provides the codecs used for result files.
//
// Key Components:
//
//   - IResultSerializer: interface all codecs satisfy.
//
//   - jsonSerializerImpl: indented JSON. The default format; human readable
//     and easy to post-process with other tools.
//
//   - yamlSerializerImpl: YAML, convenient for hand inspection and for
//     results kept next to YAML parameter files.
//
//   - gobSerializerImpl: Go's gob encoding. Compact, but only readable by Go
//     programs.
//
// Formats are selected by name (ForFormat) or by file extension (ForPath).
//
// Thread Safety:
//
//	All codecs are stateless and safe for concurrent use.
package serializer
