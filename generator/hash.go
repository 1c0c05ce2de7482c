package generator

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash scrambles an integer into a well distributed 64 bit value.
func Hash(value int64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(value))
	return xxhash.Sum64(b[:])
}
