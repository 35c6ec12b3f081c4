package types

import (
	"encoding/binary"

	"github.com/ValentinKolb/kvperf/lib/util"
	"github.com/cespare/xxhash/v2"
)

// minVarLen is the shortest varlen record, large enough to hold the id.
const minVarLen = 8

// VarLen is a variable-length record. The id it was created for is stored
// in its first 8 bytes.
type VarLen struct {
	data string
}

// Len returns the record length in bytes.
func (v VarLen) Len() int { return len(v.data) }

// Lead returns the id stored in the record.
func (v VarLen) Lead() uint64 {
	return binary.LittleEndian.Uint64([]byte(v.data[:minVarLen]))
}

// varLenSizer derives a record length in [minVarLen, max] from an id.
type varLenSizer struct {
	max int
}

func newVarLenSizer(size int) varLenSizer {
	return varLenSizer{max: max(size, minVarLen)}
}

func (s varLenSizer) make(id uint64) VarLen {
	span := uint64(s.max-minVarLen) + 1
	n := minVarLen + int(util.MixSeed(id)%span)
	b := make([]byte, n)
	binary.LittleEndian.PutUint64(b, id)
	for i := minVarLen; i < n; i++ {
		b[i] = 'a' + byte(i%26)
	}
	return VarLen{data: string(b)}
}

// VarLenKeys manages varlen keys up to a configured size.
type VarLenKeys struct {
	sizer varLenSizer
}

// NewVarLenKeys creates the key manager for varlen keys of at most size
// bytes. Sizes below 8 are raised to 8.
func NewVarLenKeys(size int) VarLenKeys {
	return VarLenKeys{sizer: newVarLenSizer(size)}
}

func (VarLenKeys) Name() string { return "varlen" }

func (m VarLenKeys) Make(id uint64) VarLen { return m.sizer.make(id) }

func (VarLenKeys) Hash(k VarLen, seed uint64) uint64 {
	return xxhash.Sum64String(k.data) ^ seed
}

func (VarLenKeys) Size(k VarLen) int { return k.Len() }

// VarLenValues manages varlen values up to a configured size.
type VarLenValues struct {
	sizer varLenSizer
}

// NewVarLenValues creates the value manager for varlen values of at most
// size bytes. Sizes below 8 are raised to 8.
func NewVarLenValues(size int) VarLenValues {
	return VarLenValues{sizer: newVarLenSizer(size)}
}

func (VarLenValues) Name() string { return "varlen" }

func (m VarLenValues) Make(id uint64) VarLen { return m.sizer.make(id) }

func (m VarLenValues) Modify(old VarLen, loaded bool, delta uint64) VarLen {
	if !loaded {
		return m.sizer.make(delta)
	}
	return m.sizer.make(old.Lead() + delta)
}

func (VarLenValues) Digest(v VarLen) uint64 { return v.Lead() }

func (VarLenValues) Size(v VarLen) int { return v.Len() }
