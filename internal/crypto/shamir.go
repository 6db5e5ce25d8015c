package crypto

import (
	"crypto/rand"
	"fmt"
)

// SeedSize is the Solana seed length Shamir-split across three shares.
const SeedSize = 32

// gfExp/gfLog are the standard AES GF(2^8) exp/log tables (generator 0x03)
// used for multiplication and division during Shamir interpolation.
var gfExp [512]byte
var gfLog [256]byte

func init() {
	x := byte(1)
	for i := 0; i < 255; i++ {
		gfExp[i] = x
		gfLog[x] = byte(i)
		// multiply x by the generator 0x03 in GF(2^8) with the AES
		// reduction polynomial 0x11b.
		hi := x & 0x80
		x <<= 1
		if hi != 0 {
			x ^= 0x1b
		}
		x ^= gfExp[i]
	}
	for i := 255; i < 512; i++ {
		gfExp[i] = gfExp[i-255]
	}
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	if b == 0 {
		panic("crypto: shamir division by zero share coordinate")
	}
	return gfExp[(int(gfLog[a])-int(gfLog[b])+255)%255]
}

// Share is one point (x, y-vector) of a Shamir 2-of-3 split. X is the
// share's coordinate (A=1, B=2, C=3); Y holds one byte per seed byte.
type Share struct {
	X byte
	Y [SeedSize]byte
}

// ShamirSplit splits a 32-byte seed into three shares {A, B, C} such that
// any two reconstruct the seed (threshold 2-of-3, GF(2^8)), per spec §4.1.
func ShamirSplit(seed [SeedSize]byte) (a, b, c Share, err error) {
	coeffs := make([]byte, SeedSize)
	if _, err := rand.Read(coeffs); err != nil {
		return Share{}, Share{}, Share{}, fmt.Errorf("crypto: shamir coeff: %w", err)
	}
	a.X, b.X, c.X = 1, 2, 3
	for i := 0; i < SeedSize; i++ {
		// f(x) = seed[i] + coeffs[i]*x, evaluated at x=1,2,3.
		a.Y[i] = seed[i] ^ gfMul(coeffs[i], 1)
		b.Y[i] = seed[i] ^ gfMul(coeffs[i], 2)
		c.Y[i] = seed[i] ^ gfMul(coeffs[i], 3)
	}
	return a, b, c, nil
}

// ShamirCombine reconstructs the 32-byte seed from any two distinct shares
// via Lagrange interpolation at x=0.
func ShamirCombine(s1, s2 Share) ([SeedSize]byte, error) {
	if s1.X == s2.X {
		return [SeedSize]byte{}, fmt.Errorf("crypto: shamir shares must have distinct x coordinates")
	}
	var seed [SeedSize]byte
	// f(0) = y1 * (0 - x2)/(x1 - x2) + y2 * (0 - x1)/(x2 - x1)
	// In GF(2^8), subtraction is XOR, so (0 - x2) == x2.
	num1, den1 := s2.X, s1.X^s2.X
	num2, den2 := s1.X, s2.X^s1.X
	l1 := gfDiv(num1, den1)
	l2 := gfDiv(num2, den2)
	for i := 0; i < SeedSize; i++ {
		seed[i] = gfMul(s1.Y[i], l1) ^ gfMul(s2.Y[i], l2)
	}
	return seed, nil
}
