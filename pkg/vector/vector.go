// Package vector stores embeddings as compact blobs.
package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidVector = errors.New("invalid vector")

// Encode writes a length-prefixed little-endian float32 blob.
func Encode(v []float32) ([]byte, error) {
	if len(v) == 0 {
		return nil, ErrInvalidVector
	}
	if len(v) > math.MaxInt32 {
		return nil, fmt.Errorf("vector too large: %d elements", len(v))
	}

	buf := make([]byte, 4+4*len(v))
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(v)))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4+4*i:], math.Float32bits(f))
	}
	return buf, nil
}

// Decode reverses Encode. Blobs whose declared length does not match the
// payload are rejected.
func Decode(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, ErrInvalidVector
	}
	n := int(binary.LittleEndian.Uint32(data[:4]))
	if n == 0 || len(data) != 4+4*n {
		return nil, fmt.Errorf("%w: declared %d values in %d bytes", ErrInvalidVector, n, len(data))
	}

	v := make([]float32, n)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4+4*i:]))
	}
	return v, nil
}
