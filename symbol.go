package wrdz

import (
	"math/bits"
	"unsafe"
)

// Core constants for the substitution codebook
const (
	// MaxSubLenLimit is the largest substring length a codebook can hold.
	// Symbols are packed into a single uint64.
	MaxSubLenLimit = 8

	// MinDictSize is the smallest dictionary size; codes 0..255 are reserved
	// for the single bytes.
	MinDictSize = 256

	wrdzMask8 = 0xFF // 8-bit mask (1 byte)
)

// symbol is the internal representation of a codebook substring (1-8 bytes).
//
//	val: the substring bytes in little-endian (first byte in the low bits)
//	n:   the substring length (1-8)
//
// The struct is comparable and used directly as the encode table key.
type symbol struct {
	val uint64
	n   uint8
}

func newSymbolFromByte(b byte) symbol {
	return symbol{val: uint64(b), n: 1}
}

// newSymbolFromBytes packs up to 8 leading bytes of in.
func newSymbolFromBytes(in []byte) symbol {
	length := min(len(in), MaxSubLenLimit)
	var value uint64
	for i := 0; i < length; i++ {
		value |= uint64(in[i]) << (8 * i)
	}
	return symbol{val: value, n: uint8(length)}
}

func (s symbol) length() int { return int(s.n) }
func (s symbol) first() byte { return byte(s.val & wrdzMask8) }

// prefix returns the symbol truncated to its first n bytes.
func (s symbol) prefix(n int) symbol {
	if n >= int(s.n) {
		return s
	}
	return symbol{val: s.val & (^uint64(0) >> (64 - 8*n)), n: uint8(n)}
}

// appendTo appends the symbol bytes to dst.
func (s symbol) appendTo(dst []byte) []byte {
	for i := 0; i < int(s.n); i++ {
		dst = append(dst, byte(s.val>>(8*i)))
	}
	return dst
}

func (s symbol) bytes() []byte { return s.appendTo(make([]byte, 0, s.n)) }

// less orders symbols by ascending byte-wise lexicographic order. Reversing
// the bytes puts the first byte in the high bits; equal reversed values mean
// one symbol is a zero-padded prefix of the other, and the shorter sorts first.
func (s symbol) less(o symbol) bool {
	a, b := bits.ReverseBytes64(s.val), bits.ReverseBytes64(o.val)
	if a != b {
		return a < b
	}
	return s.n < o.n
}

func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
