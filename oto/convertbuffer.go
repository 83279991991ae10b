package oto

import (
	"encoding/binary"
	"math"
)

// floatBufferToLEBytes converts a float32 buffer to its raw little-endian
// byte form, reusing dst's capacity when it is large enough.
func floatBufferToLEBytes(buff []float32, dst []byte) []byte {
	need := 4 * len(buff)
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]
	for i, v := range buff {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
	return dst
}
