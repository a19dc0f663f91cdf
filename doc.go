// Package wrdz provides short-string compression via trained substitution
// codebooks.
//
// # Overview
//
// A codebook maps frequent byte substrings (1 to MaxSubLen bytes, at most 8)
// to integer codes. Train learns one from a domain corpus such as English
// prose or URLs: it counts every substring up to MaxSubLen, scores each by
// count*(length-1) and keeps the DictSize-256 best, after the 256 single
// bytes which always receive codes 0..255. Ties are broken by byte order, so
// training is reproducible.
//
// Encoding scans the input left to right and replaces the longest codebook
// substring at each position by its code, written as a base-128 varint.
// Frequent substrings rank first and get small codes, which fit in one byte.
// Because every single byte has a code, any input encodes and decodes back
// exactly, whether or not it resembles the training corpus; only the ratio
// depends on the domain.
//
// # When to Use wrdz
//
// wrdz targets short strings, tens to hundreds of bytes, where general
// purpose compressors pay more in framing than they save:
//   - Chat messages, titles, log lines
//   - URLs and paths
//   - Keys and small values in a database
//
// It beats fixed dictionaries such as smaz when the codebook is trained on
// the same domain as the data.
//
// # When NOT to Use wrdz
//
//   - Large documents (use zstd, optionally with a dictionary)
//   - Binary or random data (incompressible)
//   - Streams that need adaptive models
//
// # Basic Usage
//
//	cb, err := wrdz.Train(corpus, &wrdz.Options{MaxSubLen: 4, DictSize: 16384})
//	if err != nil {
//	    return err
//	}
//
//	compressed := cb.EncodeAll([]byte("the quick brown fox"))
//	original, err := cb.DecodeAll(compressed)
//
//	// Serialize the codebook for reuse
//	data, _ := cb.MarshalBinary()
//	var cb2 wrdz.Codebook
//	err = cb2.UnmarshalBinary(data)
//
//	// Bind it to a domain
//	english := wrdz.NewCodec("english", &cb2)
//	blob := english.CompressString("hello world")
//
// A compressed blob carries no codebook identifier; callers keep track of
// which codebook produced it. Decoding against the wrong codebook yields
// different bytes or ErrCodebookMismatch.
//
// # Performance Characteristics
//
// Training: O(n × k) where n is corpus size, k is MaxSubLen
// Encoding: O(n × k) map lookups, single pass
// Decoding: O(m) where m is output size (table lookup)
package wrdz
