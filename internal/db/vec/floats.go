package vec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFloat64s packs floats as consecutive little endian IEEE 754 values.
func EncodeFloat64s(floats []float64) []byte {
	out := make([]byte, len(floats)*8)
	for i, f := range floats {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(f))
	}
	return out
}

func DecodeFloat64s(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("invalid data length: %d is not divisible by 8", len(data))
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

// EncodeVector is EncodeFloat64s, except that an empty vector is stored as NULL.
func EncodeVector(vector []float64) any {
	if len(vector) == 0 {
		return nil
	}
	return EncodeFloat64s(vector)
}

func DecodeVector(data []byte) ([]float64, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return DecodeFloat64s(data)
}

// CosineDistance is the negated cosine similarity, so that smaller is closer.
// Zero vectors have distance 0.
func CosineDistance(left, right []float64) (float64, error) {
	if len(left) != len(right) {
		return 0, fmt.Errorf("expected equal length arrays, got %d and %d", len(left), len(right))
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := 0; i < len(left); i++ {
		dotProduct += left[i] * right[i]
		normA += left[i] * left[i]
		normB += right[i] * right[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0, nil
	}

	return -(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
