package wrdz

// counters tracks substring frequencies during training.
//
// Single bytes are never scored (their gain is zero and they are always part
// of the codebook), so only substrings of length 2..maxSubLen are counted.
// The map grows with the number of distinct substrings, bounded by
// len(corpus) * (maxSubLen-1); it is discarded when training returns.
type counters struct {
	maxSubLen int
	counts    map[symbol]uint32
}

func newCounters(maxSubLen, corpusLen int) *counters {
	// Rough presize: distinct substrings are far fewer than windows on
	// natural text.
	hint := min(corpusLen*(maxSubLen-1)/4, 1<<20)
	return &counters{
		maxSubLen: maxSubLen,
		counts:    make(map[symbol]uint32, max(hint, 0)),
	}
}

// count slides every window of length 2..maxSubLen over corpus.
// The longest window at a position is packed once and its prefixes reuse
// the packed value.
func (c *counters) count(corpus []byte) {
	for pos := range corpus {
		end := min(pos+c.maxSubLen, len(corpus))
		if end-pos < 2 {
			continue
		}
		longest := newSymbolFromBytes(corpus[pos:end])
		for n := 2; n <= longest.length(); n++ {
			c.counts[longest.prefix(n)]++
		}
	}
}

// distinct returns the number of distinct counted substrings.
func (c *counters) distinct() int { return len(c.counts) }

// gain scores a counted substring as bytes saved versus coding each of its
// bytes separately; the substitution itself still costs one code.
func gain(sym symbol, count uint32) uint64 {
	return uint64(count) * uint64(sym.length()-1)
}
