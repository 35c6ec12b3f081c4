package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// GenerateSeed creates a random seed for the engine hash functions
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// fall back to the clock, only if the system source is unavailable
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// MixSeed derives a well spread 64-bit value from x (splitmix64 finalizer).
// It is used to turn sequential ids into record contents.
func MixSeed(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
