package wrdz

import "fmt"

// Options configures Train.
type Options struct {
	// MaxSubLen is the longest substring considered, 1..MaxSubLenLimit.
	MaxSubLen int
	// DictSize bounds the number of codes; at least MinDictSize so every
	// single byte has a code.
	DictSize int
}

// DefaultOptions returns the options the bundled english and url
// dictionaries are trained with.
func DefaultOptions() *Options {
	return &Options{
		MaxSubLen: 4,
		DictSize:  16384,
	}
}

// Validate reports ErrInvalidConfiguration when the options cannot produce a
// total codebook.
func (o *Options) Validate() error {
	if o.MaxSubLen < 1 || o.MaxSubLen > MaxSubLenLimit {
		return fmt.Errorf("%w: max substring length %d outside [1, %d]", ErrInvalidConfiguration, o.MaxSubLen, MaxSubLenLimit)
	}
	if o.DictSize < MinDictSize {
		return fmt.Errorf("%w: dictionary size %d below %d", ErrInvalidConfiguration, o.DictSize, MinDictSize)
	}
	return nil
}
