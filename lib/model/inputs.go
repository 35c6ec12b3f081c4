package model

import (
	"fmt"
	"math"
	"strings"
)

// --------------------------------------------------------------------------
// Data kinds and widths
// --------------------------------------------------------------------------

// DataKind is the representation used for keys or values.
type DataKind string

const (
	KindFixed  DataKind = "fixed"  // Fixed-width inline record
	KindVarLen DataKind = "varlen" // Variable-length record
	KindObject DataKind = "object" // Record requiring explicit serialization
)

// ParseDataKind converts a string (case-insensitive) to a DataKind.
func ParseDataKind(s string) (DataKind, error) {
	switch k := DataKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFixed, KindVarLen, KindObject:
		return k, nil
	}
	return "", fmt.Errorf("invalid data kind %q (expected one of: fixed, varlen, object)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k DataKind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

// UnmarshalText parses the kind case-insensitively.
func (k *DataKind) UnmarshalText(b []byte) error {
	parsed, err := ParseDataKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// FixedWidths is the closed set of supported fixed-width record sizes in bytes.
// The order of this array defines the index returned by WidthIndex.
var FixedWidths = [...]int{8, 16, 32, 64, 128, 256}

// NumWidths is the number of supported fixed widths.
const NumWidths = len(FixedWidths)

// WidthIndex returns the position of size in FixedWidths.
// field names the input the size belongs to and is only used for the error.
func WidthIndex(field string, size int) (int, error) {
	for i, w := range FixedWidths {
		if w == size {
			return i, nil
		}
	}
	return -1, NewWidthError(field, size)
}

// Distribution selects how operation keys are drawn from the key space.
type Distribution string

const (
	DistUniform Distribution = "uniform"
	DistZipf    Distribution = "zipf"
)

// ParseDistribution converts a string (case-insensitive) to a Distribution.
func ParseDistribution(s string) (Distribution, error) {
	switch d := Distribution(strings.ToLower(strings.TrimSpace(s))); d {
	case DistUniform, DistZipf:
		return d, nil
	}
	return "", fmt.Errorf("invalid distribution %q (expected one of: uniform, zipf)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Distribution) MarshalText() ([]byte, error) {
	return []byte(d), nil
}

// UnmarshalText parses the distribution case-insensitively.
func (d *Distribution) UnmarshalText(b []byte) error {
	parsed, err := ParseDistribution(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// --------------------------------------------------------------------------
// TestInputs
// --------------------------------------------------------------------------

// TestInputs describes one test run completely.
// The struct must stay comparable: it is used as a map key by the result algebra.
type TestInputs struct {
	KeyKind   DataKind `json:"key_kind" yaml:"key_kind"`
	KeySize   int      `json:"key_size" yaml:"key_size"`
	ValueKind DataKind `json:"value_kind" yaml:"value_kind"`
	ValueSize int      `json:"value_size" yaml:"value_size"`

	ThreadCount       int `json:"threads" yaml:"threads"`
	InitKeyCount      int `json:"init_keys" yaml:"init_keys"`
	OperationKeyCount int `json:"op_keys" yaml:"op_keys"`
	OperationCount    int `json:"ops" yaml:"ops"`
	IterationCount    int `json:"iterations" yaml:"iterations"`

	ReadPercent   int `json:"read_percent" yaml:"read_percent"`
	UpsertPercent int `json:"upsert_percent" yaml:"upsert_percent"`
	RMWPercent    int `json:"rmw_percent" yaml:"rmw_percent"`

	Distribution          Distribution `json:"distribution" yaml:"distribution"`
	DistributionParameter float64      `json:"distribution_parameter" yaml:"distribution_parameter"`
	DistributionSeed      int64        `json:"seed" yaml:"seed"`

	Shards int `json:"shards" yaml:"shards"`
}

// DefaultInputs returns the inputs used when nothing else is configured.
func DefaultInputs() TestInputs {
	return TestInputs{
		KeyKind:               KindFixed,
		KeySize:               8,
		ValueKind:             KindFixed,
		ValueSize:             8,
		ThreadCount:           1,
		InitKeyCount:          100_000,
		OperationKeyCount:     100_000,
		OperationCount:        1_000_000,
		IterationCount:        1,
		ReadPercent:           50,
		UpsertPercent:         50,
		RMWPercent:            0,
		Distribution:          DistUniform,
		DistributionParameter: 1.1,
		DistributionSeed:      42,
		Shards:                0,
	}
}

// Validate checks everything except the fixed widths, which are checked
// when the key/value strategy is resolved.
func (in TestInputs) Validate() error {
	// NaN would also break TestInputs equality
	if math.IsNaN(in.DistributionParameter) || math.IsInf(in.DistributionParameter, 0) {
		return NewInputError("distribution_parameter", in.DistributionParameter, "must be a finite number")
	}
	if _, err := ParseDataKind(string(in.KeyKind)); err != nil {
		return NewInputError("key_kind", in.KeyKind, err.Error())
	}
	if _, err := ParseDataKind(string(in.ValueKind)); err != nil {
		return NewInputError("value_kind", in.ValueKind, err.Error())
	}
	if in.KeySize < 1 {
		return NewInputError("key_size", in.KeySize, "must be at least 1")
	}
	if in.ValueSize < 1 {
		return NewInputError("value_size", in.ValueSize, "must be at least 1")
	}
	if in.ThreadCount < 1 {
		return NewInputError("threads", in.ThreadCount, "must be at least 1")
	}
	if in.InitKeyCount < 0 {
		return NewInputError("init_keys", in.InitKeyCount, "must not be negative")
	}
	if in.OperationKeyCount < 1 {
		return NewInputError("op_keys", in.OperationKeyCount, "must be at least 1")
	}
	if in.OperationCount < 1 {
		return NewInputError("ops", in.OperationCount, "must be at least 1")
	}
	if in.IterationCount < 1 {
		return NewInputError("iterations", in.IterationCount, "must be at least 1")
	}
	if in.ReadPercent < 0 || in.UpsertPercent < 0 || in.RMWPercent < 0 {
		return NewInputError("mix", in.MixString(), "percentages must not be negative")
	}
	if sum := in.ReadPercent + in.UpsertPercent + in.RMWPercent; sum != 100 {
		return NewInputError("mix", in.MixString(), fmt.Sprintf("percentages must sum to 100, got %d", sum))
	}
	switch in.Distribution {
	case DistUniform:
	case DistZipf:
		if in.DistributionParameter <= 1 {
			return NewInputError("distribution_parameter", in.DistributionParameter, "zipf requires a parameter > 1")
		}
	default:
		return NewInputError("distribution", in.Distribution, "expected one of: uniform, zipf")
	}
	if in.Shards < 0 {
		return NewInputError("shards", in.Shards, "must not be negative")
	}
	return nil
}

// MixString formats the operation mix as read/upsert/rmw.
func (in TestInputs) MixString() string {
	return fmt.Sprintf("%d/%d/%d", in.ReadPercent, in.UpsertPercent, in.RMWPercent)
}

// String renders the inputs as the command line that reproduces the run.
func (in TestInputs) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--key-kind %s --key-size %d", in.KeyKind, in.KeySize))
	sb.WriteString(fmt.Sprintf(" --value-kind %s --value-size %d", in.ValueKind, in.ValueSize))
	sb.WriteString(fmt.Sprintf(" --threads %d --init-keys %d --op-keys %d --ops %d --iterations %d",
		in.ThreadCount, in.InitKeyCount, in.OperationKeyCount, in.OperationCount, in.IterationCount))
	sb.WriteString(fmt.Sprintf(" --mix %s --distribution %s", in.MixString(), in.Distribution))
	if in.Distribution == DistZipf {
		sb.WriteString(fmt.Sprintf(" --distribution-parameter %g", in.DistributionParameter))
	}
	sb.WriteString(fmt.Sprintf(" --seed %d --shards %d", in.DistributionSeed, in.Shards))
	return sb.String()
}
