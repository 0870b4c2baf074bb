// Package tokenizer wraps a BPE vocabulary behind a token counter that loads
// the vocabulary at most once.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "cl100k_base"

// Encoder turns text into token ids.
type Encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// BPE counts tokens with a lazily loaded encoder. Loading is expensive (the
// vocabulary may be downloaded), so it happens on first use and is reused for
// the lifetime of the value.
type BPE struct {
	name string
	load func() (Encoder, error)

	once sync.Once
	enc  Encoder
	err  error
}

// New returns a counter for the named tiktoken encoding.
func New(encoding string) *BPE {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return NewWithLoader(encoding, func() (Encoder, error) {
		enc, err := tiktoken.GetEncoding(encoding)
		if err != nil {
			return nil, err
		}
		return enc, nil
	})
}

// NewWithLoader returns a counter that builds its encoder with load.
func NewWithLoader(name string, load func() (Encoder, error)) *BPE {
	return &BPE{name: name, load: load}
}

// Name is the encoding name.
func (b *BPE) Name() string { return b.name }

// CountTokens returns the number of tokens in text. Special-token markers in
// the text are encoded as ordinary text.
func (b *BPE) CountTokens(text string) (int, error) {
	enc, err := b.encoder()
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

func (b *BPE) encoder() (Encoder, error) {
	b.once.Do(func() {
		b.enc, b.err = b.load()
		if b.err != nil {
			b.err = fmt.Errorf("load %s encoding: %w", b.name, b.err)
		}
	})
	return b.enc, b.err
}
