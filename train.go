package wrdz

import (
	"container/heap"
)

// Train builds a Codebook from corpus. It counts every substring of length
// 2..MaxSubLen, scores each by count*(length-1), keeps the DictSize-256
// highest scoring ones and lays them out after the 256 single bytes.
// A nil opts uses DefaultOptions.
//
// Training is a pure function of its inputs: the same corpus and options
// always produce an identical codebook.
func Train(corpus []byte, opts *Options) (*Codebook, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	symbols := make([]symbol, 0, MinDictSize)
	for i := range MinDictSize {
		symbols = append(symbols, newSymbolFromByte(byte(i)))
	}

	capacity := opts.DictSize - MinDictSize
	if opts.MaxSubLen > 1 && capacity > 0 && len(corpus) > 1 {
		counter := newCounters(opts.MaxSubLen, len(corpus))
		counter.count(corpus)
		symbols = append(symbols, buildCandidates(counter, capacity)...)
	}
	return newCodebook(symbols, opts.MaxSubLen), nil
}

// TrainString is Train over a string corpus without copying it.
func TrainString(corpus string, opts *Options) (*Codebook, error) {
	return Train(stringBytes(corpus), opts)
}

type qsym struct {
	symbol symbol
	gain   uint64
}

// better reports whether q ranks ahead of o: higher gain first, then
// ascending lexicographic order.
func (q qsym) better(o qsym) bool {
	if q.gain != o.gain {
		return q.gain > o.gain
	}
	return q.symbol.less(o.symbol)
}

// qsymHeap is a min-heap of qsym with the worst ranked candidate at the root.
// We use a min-heap to maintain top-K elements efficiently.
type qsymHeap []qsym

// Len implements heap.Interface and returns the number of elements.
func (h qsymHeap) Len() int { return len(h) }

// Less implements heap.Interface; i sorts first when it ranks behind j.
func (h qsymHeap) Less(i, j int) bool { return h[j].better(h[i]) }

// Swap implements heap.Interface swap.
func (h qsymHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push implements heap.Interface push.
func (h *qsymHeap) Push(x any) { *h = append(*h, x.(qsym)) }

// Pop implements heap.Interface pop.
func (h *qsymHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// buildCandidates returns the k best counted substrings in rank order.
// Ranking is a strict total order over distinct symbols, so the result does
// not depend on map iteration order.
func buildCandidates(c *counters, k int) []symbol {
	k = min(k, c.distinct())
	if k == 0 {
		return nil
	}

	// O(n log k) instead of sorting all n distinct substrings
	h := make(qsymHeap, 0, k)
	for sym, count := range c.counts {
		candidate := qsym{symbol: sym, gain: gain(sym, count)}
		if len(h) < k {
			heap.Push(&h, candidate)
		} else if candidate.better(h[0]) {
			h[0] = candidate
			heap.Fix(&h, 0)
		}
	}

	// Popping yields worst first; fill from the back.
	list := make([]symbol, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		list[i] = heap.Pop(&h).(qsym).symbol
	}
	return list
}
