package wrdz

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Package errors. Match with errors.Is; context is added by wrapping.
var (
	ErrInvalidConfiguration = errors.New("wrdz: invalid configuration")
	ErrMalformedInput       = errors.New("wrdz: malformed input")
	ErrCodebookMismatch     = errors.New("wrdz: code not in codebook")
	ErrCodebookUnavailable  = errors.New("wrdz: codebook unavailable")
	ErrBadVersion           = errors.New("wrdz: unsupported codebook version")
	ErrCorruptCodebook      = errors.New("wrdz: corrupt codebook")
)

// DecodeError describes a failed Decode. Err is ErrMalformedInput or
// ErrCodebookMismatch.
type DecodeError struct {
	Offset   int    // byte offset of the offending code in the compressed input
	Code     uint64 // decoded code, valid for ErrCodebookMismatch
	Codebook ID     // codebook the input was decoded against
	Err      error
}

func (e *DecodeError) Error() string {
	id := hex.EncodeToString(e.Codebook[:6])
	if errors.Is(e.Err, ErrCodebookMismatch) {
		return fmt.Sprintf("%v: code %d at offset %d (codebook %s)", e.Err, e.Code, e.Offset, id)
	}
	return fmt.Sprintf("%v: at offset %d (codebook %s)", e.Err, e.Offset, id)
}

func (e *DecodeError) Unwrap() error { return e.Err }
