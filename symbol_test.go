package wrdz

import (
	"bytes"
	"sort"
	"testing"
)

func TestSymbolBasics(t *testing.T) {
	s := newSymbolFromByte('A')
	if s.length() != 1 {
		t.Fatalf("length=1 got %d", s.length())
	}
	if s.first() != 'A' {
		t.Fatalf("first byte mismatch")
	}

	b := []byte("ABCDEFGHIJ")
	s2 := newSymbolFromBytes(b)
	if s2.length() != 8 {
		t.Fatalf("len=8 got %d", s2.length())
	}
	if !bytes.Equal(s2.bytes(), b[:8]) {
		t.Fatalf("bytes mismatch: %q", s2.bytes())
	}

	p := s2.prefix(3)
	if p.length() != 3 || !bytes.Equal(p.bytes(), []byte("ABC")) {
		t.Fatalf("prefix mismatch: %q", p.bytes())
	}
	if p != newSymbolFromBytes([]byte("ABC")) {
		t.Fatalf("prefix not equal to packed substring")
	}
	if s2.prefix(8) != s2 || s2.prefix(20) != s2 {
		t.Fatalf("full prefix changed symbol")
	}
}

func TestSymbolZeroBytesDistinct(t *testing.T) {
	// Packed values collide for zero padding; the length keeps them apart.
	a := newSymbolFromBytes([]byte{'a'})
	b := newSymbolFromBytes([]byte{'a', 0})
	c := newSymbolFromBytes([]byte{'a', 0, 0})
	if a == b || b == c {
		t.Fatalf("zero-padded symbols compare equal")
	}
	if !bytes.Equal(c.bytes(), []byte{'a', 0, 0}) {
		t.Fatalf("bytes mismatch: %v", c.bytes())
	}
}

func TestSymbolLessLexicographic(t *testing.T) {
	words := [][]byte{
		[]byte("the"), []byte("he "), []byte("a"), []byte("a\x00"), []byte("ab"),
		[]byte("\xff\xff"), []byte(" th"), []byte("zz"), []byte("abc"), {0},
	}
	syms := make([]symbol, len(words))
	for i, w := range words {
		syms[i] = newSymbolFromBytes(w)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].less(syms[j]) })
	sort.Slice(words, func(i, j int) bool { return bytes.Compare(words[i], words[j]) < 0 })
	for i := range words {
		if !bytes.Equal(syms[i].bytes(), words[i]) {
			t.Fatalf("order mismatch at %d: %q != %q", i, syms[i].bytes(), words[i])
		}
	}
}
