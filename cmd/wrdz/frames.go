package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/c2h5oh/datasize"

	"github.com/axiomhq/wrdz"
)

// maxLine bounds a single input line and a single compressed frame.
const maxLine = 16 * datasize.MB

type stats struct {
	lines   int
	in, out int64
}

func (s stats) ratio() float64 {
	if s.in == 0 {
		return 0
	}
	return float64(s.out) / float64(s.in)
}

// scanLinesKeepEOL is bufio.ScanLines keeping the terminator, "\r" included,
// in the token. A final line without a newline is returned as is.
func scanLinesKeepEOL(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// compressLines writes every line of r, terminator included, as a uvarint
// length followed by the compressed blob. Concatenating the decoded frames
// restores r byte for byte.
func compressLines(codec *wrdz.Codec, r io.Reader, w io.Writer) (stats, error) {
	var st stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), int(maxLine))
	sc.Split(scanLinesKeepEOL)
	bw := bufio.NewWriter(w)

	var (
		blob []byte
		hdr  [binary.MaxVarintLen64]byte
	)
	cb := codec.Codebook()
	for sc.Scan() {
		line := sc.Bytes()
		blob = cb.Encode(blob, line)
		n := binary.PutUvarint(hdr[:], uint64(len(blob)))
		if _, err := bw.Write(hdr[:n]); err != nil {
			return st, err
		}
		if _, err := bw.Write(blob); err != nil {
			return st, err
		}
		st.lines++
		st.in += int64(len(line))
		st.out += int64(n + len(blob))
	}
	if err := sc.Err(); err != nil {
		return st, err
	}
	return st, bw.Flush()
}

// decompressFrames reverses compressLines, writing the decoded bytes of every
// frame.
func decompressFrames(codec *wrdz.Codec, r io.Reader, w io.Writer) (stats, error) {
	var st stats
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	var blob, line []byte
	for {
		size, err := binary.ReadUvarint(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, fmt.Errorf("frame %d: %w: %w", st.lines, wrdz.ErrMalformedInput, err)
		}
		if size > uint64(maxLine) {
			return st, fmt.Errorf("frame %d: %w: length %d", st.lines, wrdz.ErrMalformedInput, size)
		}
		if uint64(cap(blob)) < size {
			blob = make([]byte, size)
		}
		blob = blob[:size]
		if _, err := io.ReadFull(br, blob); err != nil {
			return st, fmt.Errorf("frame %d: %w: %w", st.lines, wrdz.ErrMalformedInput, err)
		}
		line, err = codec.Codebook().Decode(line, blob)
		if err != nil {
			return st, fmt.Errorf("frame %d: %s: %w", st.lines, codec.Domain(), err)
		}
		if _, err := bw.Write(line); err != nil {
			return st, err
		}
		st.lines++
		st.in += int64(len(blob))
		st.out += int64(len(line))
	}
	return st, bw.Flush()
}

// inspect prints the identity, size and most valuable learned symbols of cb.
func inspect(w io.Writer, cb *wrdz.Codebook, top int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "id:          %s\n", cb.ID())
	fmt.Fprintf(bw, "codes:       %d\n", cb.Len())
	fmt.Fprintf(bw, "max_sub_len: %d\n", cb.MaxSubLen())
	size, err := cb.MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Fprintf(bw, "size:        %s\n", datasize.ByteSize(len(size)).HR())

	fmt.Fprintln(bw, "symbols by length:")
	for i, n := range cb.LengthHistogram() {
		if n > 0 {
			fmt.Fprintf(bw, "  %d: %d\n", i+1, n)
		}
	}

	// Trained codebooks rank learned symbols by gain in code order.
	if top > 0 {
		fmt.Fprintln(bw, "top symbols:")
	}
	for code := 0; code < cb.Len() && top > 0; code++ {
		sym, _ := cb.Symbol(uint32(code))
		if len(sym) < 2 {
			continue
		}
		fmt.Fprintf(bw, "  %5d %q\n", code, sym)
		top--
	}
	return bw.Flush()
}
