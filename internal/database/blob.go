package database

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeFloat32Blob decodes a little-endian float32 array as written by the indexer.
func DecodeFloat32Blob(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}

// EncodeFloat32Blob encodes an embedding as a little-endian float32 array.
func EncodeFloat32Blob(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}
