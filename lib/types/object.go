package types

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Object is the structured record behind the object encoding. It is
// serialized on every write and deserialized on every read.
type Object struct {
	ID      uint64
	Version uint64
	Name    string
	Payload []byte
}

// Bit flags to indicate which optional fields are present
const (
	objHasVersion byte = 1 << 0
	objHasName    byte = 1 << 1
	objHasPayload byte = 1 << 2
)

const objHeaderSize = 1 + 8 // flags + id

// EncodeObject serializes o into a compact binary form. Only fields that are
// set are written.
func EncodeObject(o Object) []byte {
	result := make([]byte, encodedSize(o))
	var flags byte
	pos := 1

	binary.BigEndian.PutUint64(result[pos:pos+8], o.ID)
	pos += 8

	if o.Version > 0 {
		flags |= objHasVersion
		binary.BigEndian.PutUint64(result[pos:pos+8], o.Version)
		pos += 8
	}

	if o.Name != "" {
		flags |= objHasName
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(o.Name)))
		pos += 4
		pos += copy(result[pos:], o.Name)
	}

	if o.Payload != nil {
		flags |= objHasPayload
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(o.Payload)))
		pos += 4
		copy(result[pos:], o.Payload)
	}

	result[0] = flags
	return result
}

// DecodeObject deserializes data produced by EncodeObject into o.
func DecodeObject(data []byte, o *Object) error {
	if len(data) < objHeaderSize {
		return fmt.Errorf("data too short for object header")
	}
	flags := data[0]
	pos := 1

	o.ID = binary.BigEndian.Uint64(data[pos : pos+8])
	pos += 8

	o.Version = 0
	if flags&objHasVersion != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for version")
		}
		o.Version = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	}

	o.Name = ""
	if flags&objHasName != 0 {
		n, err := readLen(data, pos, "name")
		if err != nil {
			return err
		}
		pos += 4
		o.Name = string(data[pos : pos+n])
		pos += n
	}

	o.Payload = nil
	if flags&objHasPayload != 0 {
		n, err := readLen(data, pos, "payload")
		if err != nil {
			return err
		}
		pos += 4
		o.Payload = make([]byte, n)
		copy(o.Payload, data[pos:pos+n])
	}
	return nil
}

func readLen(data []byte, pos int, field string) (int, error) {
	if pos+4 > len(data) {
		return 0, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	if pos+4+n > len(data) {
		return 0, fmt.Errorf("data too short for %s data", field)
	}
	return n, nil
}

func encodedSize(o Object) int {
	size := objHeaderSize
	if o.Version > 0 {
		size += 8
	}
	if o.Name != "" {
		size += 4 + len(o.Name)
	}
	if o.Payload != nil {
		size += 4 + len(o.Payload)
	}
	return size
}

// --------------------------------------------------------------------------
// Object keys
// --------------------------------------------------------------------------

// ObjectKey is a serialized Object used as a map key. The encoded form is
// kept in a string so the key stays comparable.
type ObjectKey struct {
	encoded string
}

// ObjectKeys manages object keys.
type ObjectKeys struct{}

// NewObjectKeys creates the key manager for object keys.
func NewObjectKeys() ObjectKeys {
	return ObjectKeys{}
}

func (ObjectKeys) Name() string { return "object" }

func (ObjectKeys) Make(id uint64) ObjectKey {
	return ObjectKey{encoded: string(EncodeObject(Object{
		ID:   id,
		Name: "key-" + strconv.FormatUint(id, 10),
	}))}
}

func (ObjectKeys) Hash(k ObjectKey, seed uint64) uint64 {
	return xxhash.Sum64String(k.encoded) ^ seed
}

func (ObjectKeys) Size(k ObjectKey) int {
	return len(k.encoded)
}

// --------------------------------------------------------------------------
// Object values
// --------------------------------------------------------------------------

// ObjectValue is a serialized Object stored as a map value.
type ObjectValue struct {
	encoded []byte
}

// ObjectValues manages object values whose payload is sized to the
// configured value size.
type ObjectValues struct {
	payload int
}

// NewObjectValues creates the value manager for object values. size is the
// payload size in bytes; values smaller than 1 are raised to 1.
func NewObjectValues(size int) ObjectValues {
	return ObjectValues{payload: max(size, 1)}
}

func (ObjectValues) Name() string { return "object" }

func (m ObjectValues) Make(id uint64) ObjectValue {
	return m.encode(Object{ID: id, Payload: m.newPayload(id)})
}

// Modify deserializes old, bumps its version and serializes it again.
// A value that cannot be decoded panics; it can only come from a corrupted
// engine and must surface as a worker fault.
func (m ObjectValues) Modify(old ObjectValue, loaded bool, delta uint64) ObjectValue {
	if !loaded {
		return m.Make(delta)
	}
	var o Object
	if err := DecodeObject(old.encoded, &o); err != nil {
		panic(fmt.Errorf("corrupted object value: %w", err))
	}
	o.Version += delta
	return m.encode(o)
}

// Digest deserializes v. It panics on corrupted data.
func (ObjectValues) Digest(v ObjectValue) uint64 {
	var o Object
	if err := DecodeObject(v.encoded, &o); err != nil {
		panic(fmt.Errorf("corrupted object value: %w", err))
	}
	return o.ID ^ o.Version
}

func (ObjectValues) Size(v ObjectValue) int {
	return len(v.encoded)
}

func (m ObjectValues) encode(o Object) ObjectValue {
	return ObjectValue{encoded: EncodeObject(o)}
}

func (m ObjectValues) newPayload(id uint64) []byte {
	p := make([]byte, m.payload)
	for i := range p {
		p[i] = byte(id) + byte(i)
	}
	return p
}
