package wrdz

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTrainInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"dict_too_small", Options{MaxSubLen: 4, DictSize: 255}},
		{"dict_zero", Options{MaxSubLen: 4, DictSize: 0}},
		{"sub_len_zero", Options{MaxSubLen: 0, DictSize: 1024}},
		{"sub_len_negative", Options{MaxSubLen: -1, DictSize: 1024}},
		{"sub_len_too_long", Options{MaxSubLen: MaxSubLenLimit + 1, DictSize: 1024}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := Train([]byte("some corpus"), &tt.opts)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
			if cb != nil {
				t.Fatalf("expected nil codebook on error")
			}
		})
	}
}

func TestTrainNilOptions(t *testing.T) {
	cb, err := Train([]byte("hello hello hello"), nil)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if cb.MaxSubLen() != DefaultOptions().MaxSubLen {
		t.Fatalf("max sub len = %d, want default", cb.MaxSubLen())
	}
}

func TestTrainScenario(t *testing.T) {
	cb, err := TrainString("the the the cat", &Options{MaxSubLen: 3, DictSize: 260})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if cb.Len() != 260 {
		t.Fatalf("len = %d, want 260", cb.Len())
	}
	// "he " and "the" both score 3*2; byte order puts "he " first.
	// " th" and "e t" score 2*2 and beat every 2-byte substring (at most 3*1).
	want := []string{"he ", "the", " th", "e t"}
	for i, w := range want {
		got, ok := cb.Symbol(uint32(MinDictSize + i))
		if !ok || string(got) != w {
			t.Fatalf("code %d = %q, want %q", MinDictSize+i, got, w)
		}
	}
	code, ok := cb.Lookup([]byte("the"))
	if !ok || code != 257 {
		t.Fatalf("lookup(the) = %d, %v", code, ok)
	}
	assertTotal(t, cb)
}

func TestTrainEmptyCorpus(t *testing.T) {
	for _, corpus := range [][]byte{nil, {}, []byte("x")} {
		cb, err := Train(corpus, &Options{MaxSubLen: 4, DictSize: 1024})
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		if cb.Len() != MinDictSize {
			t.Fatalf("len = %d, want %d", cb.Len(), MinDictSize)
		}
		assertTotal(t, cb)
		input := []byte("the quick brown fox jumped over the lazy dog")
		got, err := cb.DecodeAll(cb.EncodeAll(input))
		if err != nil || !bytes.Equal(got, input) {
			t.Fatalf("roundtrip mismatch on empty-trained codebook: %q, %v", got, err)
		}
	}
}

func TestTrainFewerCandidatesThanCapacity(t *testing.T) {
	cb, err := TrainString("abab", &Options{MaxSubLen: 2, DictSize: 1000})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if cb.Len() != 258 {
		t.Fatalf("len = %d, want 258", cb.Len())
	}
	first, _ := cb.Symbol(256)
	second, _ := cb.Symbol(257)
	if string(first) != "ab" || string(second) != "ba" {
		t.Fatalf("order = %q, %q", first, second)
	}
}

func TestTrainMaxSubLenOne(t *testing.T) {
	cb, err := TrainString("aaaaaaaa", &Options{MaxSubLen: 1, DictSize: 4096})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if cb.Len() != MinDictSize {
		t.Fatalf("len = %d, want %d", cb.Len(), MinDictSize)
	}
}

func TestTrainRespectsDictSize(t *testing.T) {
	corpus := readCorpus(t, "english.txt")
	for _, size := range []int{256, 257, 300, 1024} {
		cb, err := Train(corpus, &Options{MaxSubLen: 4, DictSize: size})
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		if cb.Len() != size {
			t.Fatalf("len = %d, want %d", cb.Len(), size)
		}
		assertBijective(t, cb)
		assertTotal(t, cb)
	}
}

func TestTrainDeterministic(t *testing.T) {
	corpus := readCorpus(t, "english.txt")
	opts := &Options{MaxSubLen: 4, DictSize: 2048}
	cb1, err := Train(corpus, opts)
	if err != nil {
		t.Fatalf("train1: %v", err)
	}
	cb2, err := Train(corpus, opts)
	if err != nil {
		t.Fatalf("train2: %v", err)
	}

	var b1, b2 bytes.Buffer
	if _, err := cb1.WriteTo(&b1); err != nil {
		t.Fatalf("write1: %v", err)
	}
	if _, err := cb2.WriteTo(&b2); err != nil {
		t.Fatalf("write2: %v", err)
	}
	if !bytes.Equal(b1.Bytes(), b2.Bytes()) {
		t.Fatalf("deterministic training violated: containers differ")
	}
	if cb1.ID() != cb2.ID() {
		t.Fatalf("deterministic training violated: ids differ")
	}
}

func TestTrainSmallerDictIsPrefix(t *testing.T) {
	corpus := readCorpus(t, "english.txt")
	small, _ := Train(corpus, &Options{MaxSubLen: 4, DictSize: 512})
	large, _ := Train(corpus, &Options{MaxSubLen: 4, DictSize: 2048})
	sd, ld := small.DecodeTable(), large.DecodeTable()
	for i := range sd {
		if !bytes.Equal(sd[i], ld[i]) {
			t.Fatalf("code %d: %q != %q", i, sd[i], ld[i])
		}
	}
}

func TestTrainRatioImprovesWithDictSize(t *testing.T) {
	data := readCorpus(t, "english.txt")
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	train := []byte(strings.Join(lines[:len(lines)-6], "\n"))
	held := lines[len(lines)-6:]

	meanRatio := func(size int) float64 {
		cb, err := Train(train, &Options{MaxSubLen: 4, DictSize: size})
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		var sum float64
		for _, line := range held {
			sum += float64(len(cb.EncodeAll([]byte(line)))) / float64(len(line))
		}
		return sum / float64(len(held))
	}

	base := meanRatio(256)
	if base != 1.0 {
		t.Fatalf("ascii text with single-byte codebook: ratio %.3f, want 1", base)
	}
	prev := base
	for _, size := range []int{1024, 4096} {
		r := meanRatio(size)
		if r >= base {
			t.Fatalf("dict size %d: ratio %.3f not below %.3f", size, r, base)
		}
		// Greedy matching may lose a little on single lines, never much.
		if r > prev+0.02 {
			t.Fatalf("dict size %d: ratio %.3f above %.3f", size, r, prev)
		}
		prev = r
	}
}

func TestCorpusRoundtrip(t *testing.T) {
	roundtripFile := func(name, path string) {
		t.Run(name, func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Skipf("missing corpus %s: %v", path, err)
			}
			cb, err := Train(data, &Options{MaxSubLen: 4, DictSize: 4096})
			if err != nil {
				t.Fatalf("train: %v", err)
			}
			for _, line := range strings.Split(string(data), "\n") {
				comp := cb.EncodeAll([]byte(line))
				got, err := cb.DecodeAll(comp)
				if err != nil {
					t.Fatalf("decode: %v", err)
				}
				if string(got) != line {
					t.Fatalf("roundtrip mismatch: %q != %q", got, line)
				}
			}
		})
	}
	roundtripFile("english", "testdata/english.txt")
	roundtripFile("urls", "testdata/urls.txt")
}

// Benchmark over all testdata/*.txt files, reporting ratio and throughput.
func BenchmarkCorpusCompressionSuite(b *testing.B) {
	files, _ := filepath.Glob("testdata/*.txt")
	if len(files) == 0 {
		b.Skip("no files in testdata matching patterns")
	}
	opts := DefaultOptions()
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			b.Fatalf("read %s: %v", f, err)
		}
		b.Run(filepath.Base(f), func(b *testing.B) {
			b.Run("train", func(b *testing.B) {
				b.ReportAllocs()
				for b.Loop() {
					_, _ = Train(data, opts)
				}
			})

			cb, err := Train(data, opts)
			if err != nil {
				b.Fatalf("train: %v", err)
			}
			lines := bytes.Split(data, []byte("\n"))

			b.Run("compress", func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))
				var buf []byte
				var total int
				for b.Loop() {
					total = 0
					for _, line := range lines {
						buf = cb.Encode(buf, line)
						total += len(buf)
					}
				}
				b.ReportMetric(float64(total)/float64(len(data)), "ratio")
			})

			comp := cb.EncodeAll(data)
			b.Run("decompress", func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))
				var buf []byte
				for b.Loop() {
					buf, err = cb.Decode(buf, comp)
					if err != nil || !bytes.Equal(buf, data) {
						b.Fatalf("roundtrip mismatch")
					}
				}
			})
		})
	}
}

func FuzzTrain(f *testing.F) {
	if data, err := os.ReadFile("testdata/english.txt"); err == nil {
		lines := strings.Split(string(data), "\n")
		for i := range len(lines) - 1 {
			f.Add([]byte(lines[i]), uint8(4), uint16(300))
		}
	}
	f.Fuzz(func(t *testing.T, corpus []byte, maxSubLen uint8, dictSize uint16) {
		opts := &Options{MaxSubLen: int(maxSubLen%MaxSubLenLimit) + 1, DictSize: MinDictSize + int(dictSize%2048)}
		cb, err := Train(corpus, opts)
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		assertTotal(t, cb)
		assertBijective(t, cb)
		got, err := cb.DecodeAll(cb.EncodeAll(corpus))
		if err != nil || !bytes.Equal(got, corpus) {
			t.Fatalf("roundtrip mismatch: %v", err)
		}
	})
}

func readCorpus(tb testing.TB, name string) []byte {
	tb.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		tb.Skipf("missing corpus %s: %v", name, err)
	}
	return data
}

func assertTotal(tb testing.TB, cb *Codebook) {
	tb.Helper()
	for i := range 256 {
		code, ok := cb.Lookup([]byte{byte(i)})
		if !ok {
			tb.Fatalf("byte %d missing", i)
		}
		sym, _ := cb.Symbol(code)
		if len(sym) != 1 || sym[0] != byte(i) {
			tb.Fatalf("byte %d maps to %q", i, sym)
		}
	}
}

func assertBijective(tb testing.TB, cb *Codebook) {
	tb.Helper()
	enc, dec := cb.EncodeTable(), cb.DecodeTable()
	if len(enc) != len(dec) || len(dec) != cb.Len() {
		tb.Fatalf("table sizes differ: encode %d decode %d len %d", len(enc), len(dec), cb.Len())
	}
	for s, code := range enc {
		if string(dec[code]) != s {
			tb.Fatalf("decode[encode[%q]] = %q", s, dec[code])
		}
		if got, ok := cb.Lookup([]byte(s)); !ok || got != code {
			tb.Fatalf("lookup(%q) = %d, %v, want %d", s, got, ok, code)
		}
	}
}
