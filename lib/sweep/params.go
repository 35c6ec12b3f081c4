package sweep

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/kvperf/lib/model"
	"github.com/lni/dragonboat/v4/logger"
	"gopkg.in/yaml.v3"
)

var Logger = logger.GetLogger("sweep")

// Dimension names in declared expansion order, outer to inner.
const (
	FieldKeyKind               = "key_kind"
	FieldKeySize               = "key_size"
	FieldValueKind             = "value_kind"
	FieldValueSize             = "value_size"
	FieldThreads               = "threads"
	FieldMix                   = "mix"
	FieldInitKeys              = "init_keys"
	FieldOpKeys                = "op_keys"
	FieldOps                   = "ops"
	FieldIterations            = "iterations"
	FieldDistribution          = "distribution"
	FieldDistributionParameter = "distribution_parameter"
	FieldSeed                  = "seed"
	FieldShards                = "shards"
)

// Fields lists all dimensions in expansion order.
var Fields = []string{
	FieldKeyKind, FieldKeySize, FieldValueKind, FieldValueSize,
	FieldThreads, FieldMix, FieldInitKeys, FieldOpKeys, FieldOps, FieldIterations,
	FieldDistribution, FieldDistributionParameter, FieldSeed, FieldShards,
}

// TestParameters is a sweep specification. Unset dimensions take the value
// of Base.
type TestParameters struct {
	Base model.TestInputs `yaml:"-"`

	KeyKind               Dimension[model.DataKind]     `yaml:"key_kind"`
	KeySize               IntDimension                  `yaml:"key_size"`
	ValueKind             Dimension[model.DataKind]     `yaml:"value_kind"`
	ValueSize             IntDimension                  `yaml:"value_size"`
	Threads               IntDimension                  `yaml:"threads"`
	Mix                   Dimension[Mix]                `yaml:"mix"`
	InitKeys              IntDimension                  `yaml:"init_keys"`
	OpKeys                IntDimension                  `yaml:"op_keys"`
	Ops                   IntDimension                  `yaml:"ops"`
	Iterations            IntDimension                  `yaml:"iterations"`
	Distribution          Dimension[model.Distribution] `yaml:"distribution"`
	DistributionParameter Dimension[float64]            `yaml:"distribution_parameter"`
	Seed                  Dimension[int64]              `yaml:"seed"`
	Shards                IntDimension                  `yaml:"shards"`
}

// NewTestParameters creates a specification without any bound dimension.
// It expands to exactly one run equal to base.
func NewTestParameters(base model.TestInputs) *TestParameters {
	return &TestParameters{Base: base}
}

// Load reads a YAML (or JSON) parameter file. Unknown fields are an error.
func Load(path string, base model.TestInputs) (*TestParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	params, err := Parse(data, base)
	if err != nil {
		return nil, fmt.Errorf("invalid parameter file %s: %w", path, err)
	}
	Logger.Debugf("loaded parameter file %s (%d runs)", path, params.Count())
	return params, nil
}

// Parse decodes a parameter specification.
func Parse(data []byte, base model.TestInputs) (*TestParameters, error) {
	params := NewTestParameters(base)

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(params); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	params.Base = base
	return params, nil
}

// Override binds the named dimension to the single value it has in in.
func (p *TestParameters) Override(field string, in model.TestInputs) error {
	switch field {
	case FieldKeyKind:
		p.KeyKind.Set(in.KeyKind)
	case FieldKeySize:
		p.KeySize.Set(in.KeySize)
	case FieldValueKind:
		p.ValueKind.Set(in.ValueKind)
	case FieldValueSize:
		p.ValueSize.Set(in.ValueSize)
	case FieldThreads:
		p.Threads.Set(in.ThreadCount)
	case FieldMix:
		p.Mix.Set(Mix{Read: in.ReadPercent, Upsert: in.UpsertPercent, RMW: in.RMWPercent})
	case FieldInitKeys:
		p.InitKeys.Set(in.InitKeyCount)
	case FieldOpKeys:
		p.OpKeys.Set(in.OperationKeyCount)
	case FieldOps:
		p.Ops.Set(in.OperationCount)
	case FieldIterations:
		p.Iterations.Set(in.IterationCount)
	case FieldDistribution:
		p.Distribution.Set(in.Distribution)
	case FieldDistributionParameter:
		p.DistributionParameter.Set(in.DistributionParameter)
	case FieldSeed:
		p.Seed.Set(in.DistributionSeed)
	case FieldShards:
		p.Shards.Set(in.Shards)
	default:
		return fmt.Errorf("unknown sweep dimension %q", field)
	}
	return nil
}

// Count returns the number of runs GetParamSweeps produces.
func (p *TestParameters) Count() int {
	return p.KeyKind.Len() * p.KeySize.Len() * p.ValueKind.Len() * p.ValueSize.Len() *
		p.Threads.Len() * p.Mix.Len() * p.InitKeys.Len() * p.OpKeys.Len() * p.Ops.Len() *
		p.Iterations.Len() * p.Distribution.Len() * p.DistributionParameter.Len() *
		p.Seed.Len() * p.Shards.Len()
}

// GetParamSweeps returns the Cartesian product of all dimensions. The first
// dimension of Fields varies slowest.
func (p *TestParameters) GetParamSweeps() []model.TestInputs {
	b := p.Base
	runs := []model.TestInputs{b}

	runs = expand(runs, p.KeyKind.Values(b.KeyKind), func(in *model.TestInputs, v model.DataKind) { in.KeyKind = v })
	runs = expand(runs, p.KeySize.Values(b.KeySize), func(in *model.TestInputs, v int) { in.KeySize = v })
	runs = expand(runs, p.ValueKind.Values(b.ValueKind), func(in *model.TestInputs, v model.DataKind) { in.ValueKind = v })
	runs = expand(runs, p.ValueSize.Values(b.ValueSize), func(in *model.TestInputs, v int) { in.ValueSize = v })
	runs = expand(runs, p.Threads.Values(b.ThreadCount), func(in *model.TestInputs, v int) { in.ThreadCount = v })
	runs = expand(runs, p.Mix.Values(Mix{b.ReadPercent, b.UpsertPercent, b.RMWPercent}), func(in *model.TestInputs, v Mix) {
		in.ReadPercent, in.UpsertPercent, in.RMWPercent = v.Read, v.Upsert, v.RMW
	})
	runs = expand(runs, p.InitKeys.Values(b.InitKeyCount), func(in *model.TestInputs, v int) { in.InitKeyCount = v })
	runs = expand(runs, p.OpKeys.Values(b.OperationKeyCount), func(in *model.TestInputs, v int) { in.OperationKeyCount = v })
	runs = expand(runs, p.Ops.Values(b.OperationCount), func(in *model.TestInputs, v int) { in.OperationCount = v })
	runs = expand(runs, p.Iterations.Values(b.IterationCount), func(in *model.TestInputs, v int) { in.IterationCount = v })
	runs = expand(runs, p.Distribution.Values(b.Distribution), func(in *model.TestInputs, v model.Distribution) { in.Distribution = v })
	runs = expand(runs, p.DistributionParameter.Values(b.DistributionParameter), func(in *model.TestInputs, v float64) { in.DistributionParameter = v })
	runs = expand(runs, p.Seed.Values(b.DistributionSeed), func(in *model.TestInputs, v int64) { in.DistributionSeed = v })
	runs = expand(runs, p.Shards.Values(b.Shards), func(in *model.TestInputs, v int) { in.Shards = v })

	return runs
}

// expand combines every run with every value, keeping runs as the outer loop.
func expand[T any](runs []model.TestInputs, values []T, set func(*model.TestInputs, T)) []model.TestInputs {
	out := make([]model.TestInputs, 0, len(runs)*len(values))
	for _, run := range runs {
		for _, v := range values {
			next := run
			set(&next, v)
			out = append(out, next)
		}
	}
	return out
}
