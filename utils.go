package hotbench

import (
	"math/rand/v2"
	"sort"
	"strings"
)

func MillisecondToNanosecond(millis int64) int64 {
	return millis * 1000 * 1000
}

// RandomBytes returns length random printable ASCII characters.
func RandomBytes(length int64) []byte {
	if length <= 0 {
		return []byte{}
	}
	b := make([]byte, length)
	for i := range b {
		// ' ' to '~'
		b[i] = byte(' ' + rand.IntN(95))
	}
	return b
}

func ConcatFieldsStr(fields []string) string {
	if len(fields) == 0 {
		return "<all fields>"
	}
	return strings.Join(fields, ", ")
}

// ConcatKVStr renders values as `k=v` pairs sorted by field name.
func ConcatKVStr(values KVMap) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.Write(values[k])
	}
	return b.String()
}
