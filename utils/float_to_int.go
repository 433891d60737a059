// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// Clamp limits x to the normalized sample range [-1, 1].
func Clamp(x float32) float32 {
	if x > 1 {
		return 1
	} else if x < -1 {
		return -1
	}

	return x
}

func Float32ToInt16(x float32) int16 {
	// Clamp and scale
	x = Clamp(x)

	// Use 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Float32ToUint8 converts to unsigned 8-bit PCM, where 128 is silence.
func Float32ToUint8(x float32) uint8 {
	v := int32(Clamp(x)*127.0) + 128
	return uint8(v)
}

// Float32ToInt24 converts to a 24-bit value held in the low bits of an int32.
// The sample is scaled against the full 32-bit range and shifted down.
func Float32ToInt24(x float32) int32 {
	f := float64(Clamp(x)) * math.MaxInt32
	return int32(f) >> 8
}

// PCMToFloat32 normalizes a signed integer sample of the given bit depth
// (8 to 32) to [-1, 1]. The sample is shifted into the top of an int32 and
// scaled against the full 32-bit range. Every decoder goes through it, so a
// 16-bit value maps to the same float whatever the container.
func PCMToFloat32(v int32, bits int) float32 {
	return float32(float64(v<<(32-bits)) / math.MaxInt32)
}
