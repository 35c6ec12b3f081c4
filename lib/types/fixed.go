package types

import (
	"encoding/binary"
	"strconv"

	"github.com/ValentinKolb/kvperf/lib/util"
)

// --------------------------------------------------------------------------
// Fixed-width records
// --------------------------------------------------------------------------

// Blittable is implemented by the fixed-width record types.
// The id a record was filled with is stored in its leading 8 bytes.
type Blittable[T any] interface {
	comparable
	// Fill returns a record carrying id.
	Fill(id uint64) T
	// Lead returns the id stored in the record.
	Lead() uint64
	// Width returns the record size in bytes.
	Width() int
}

type (
	Fixed8   [8]byte
	Fixed16  [16]byte
	Fixed32  [32]byte
	Fixed64  [64]byte
	Fixed128 [128]byte
	Fixed256 [256]byte
)

// fill writes id to the head and a checksum of it to the tail of b
func fill(b []byte, id uint64) {
	binary.LittleEndian.PutUint64(b[:8], id)
	if len(b) >= 16 {
		binary.LittleEndian.PutUint64(b[len(b)-8:], util.MixSeed(id))
	}
}

func lead(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b[:8])
}

func (Fixed8) Fill(id uint64) (f Fixed8)     { fill(f[:], id); return }
func (f Fixed8) Lead() uint64                { return lead(f[:]) }
func (Fixed8) Width() int                    { return 8 }
func (Fixed16) Fill(id uint64) (f Fixed16)   { fill(f[:], id); return }
func (f Fixed16) Lead() uint64               { return lead(f[:]) }
func (Fixed16) Width() int                   { return 16 }
func (Fixed32) Fill(id uint64) (f Fixed32)   { fill(f[:], id); return }
func (f Fixed32) Lead() uint64               { return lead(f[:]) }
func (Fixed32) Width() int                   { return 32 }
func (Fixed64) Fill(id uint64) (f Fixed64)   { fill(f[:], id); return }
func (f Fixed64) Lead() uint64               { return lead(f[:]) }
func (Fixed64) Width() int                   { return 64 }
func (Fixed128) Fill(id uint64) (f Fixed128) { fill(f[:], id); return }
func (f Fixed128) Lead() uint64              { return lead(f[:]) }
func (Fixed128) Width() int                  { return 128 }
func (Fixed256) Fill(id uint64) (f Fixed256) { fill(f[:], id); return }
func (f Fixed256) Lead() uint64              { return lead(f[:]) }
func (Fixed256) Width() int                  { return 256 }

// --------------------------------------------------------------------------
// Managers
// --------------------------------------------------------------------------

// BlittableKeys manages fixed-width keys of type K.
type BlittableKeys[K Blittable[K]] struct{}

// NewBlittableKeys creates the key manager for the fixed-width type K.
func NewBlittableKeys[K Blittable[K]]() BlittableKeys[K] {
	return BlittableKeys[K]{}
}

func (BlittableKeys[K]) Name() string {
	var zero K
	return "fixed" + strconv.Itoa(zero.Width())
}

func (BlittableKeys[K]) Make(id uint64) K {
	var zero K
	return zero.Fill(id)
}

// Hash only looks at the leading id, which is unique per key.
func (BlittableKeys[K]) Hash(k K, seed uint64) uint64 {
	return util.MixSeed(k.Lead() ^ seed)
}

func (BlittableKeys[K]) Size(k K) int {
	return k.Width()
}

// BlittableValues manages fixed-width values of type V.
type BlittableValues[V Blittable[V]] struct{}

// NewBlittableValues creates the value manager for the fixed-width type V.
func NewBlittableValues[V Blittable[V]]() BlittableValues[V] {
	return BlittableValues[V]{}
}

func (BlittableValues[V]) Name() string {
	var zero V
	return "fixed" + strconv.Itoa(zero.Width())
}

func (BlittableValues[V]) Make(id uint64) V {
	var zero V
	return zero.Fill(id)
}

func (BlittableValues[V]) Modify(old V, loaded bool, delta uint64) V {
	if !loaded {
		return old.Fill(delta)
	}
	return old.Fill(old.Lead() + delta)
}

func (BlittableValues[V]) Digest(v V) uint64 {
	return v.Lead()
}

func (BlittableValues[V]) Size(v V) int {
	return v.Width()
}
