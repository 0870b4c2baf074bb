package tokenizer

import (
	"errors"
	"strings"
	"testing"
)

type wordEncoder struct{}

func (wordEncoder) Encode(text string, _ []string, _ []string) []int {
	return make([]int, len(strings.Fields(text)))
}

func TestCountTokens_LoadsOnce(t *testing.T) {
	loads := 0
	bpe := NewWithLoader("words", func() (Encoder, error) {
		loads++
		return wordEncoder{}, nil
	})

	for i := 0; i < 5; i++ {
		n, err := bpe.CountTokens("MOVE A TO B")
		if err != nil {
			t.Fatalf("CountTokens failed: %v", err)
		}
		if n != 4 {
			t.Errorf("expected 4 tokens, got %d", n)
		}
	}
	if loads != 1 {
		t.Errorf("expected encoder to load once, loaded %d times", loads)
	}
}

func TestCountTokens_LoadFailureIsSticky(t *testing.T) {
	loads := 0
	bpe := NewWithLoader("broken", func() (Encoder, error) {
		loads++
		return nil, errors.New("no network")
	})

	for i := 0; i < 3; i++ {
		if _, err := bpe.CountTokens("x"); err == nil {
			t.Fatal("expected load error")
		}
	}
	if loads != 1 {
		t.Errorf("expected a single load attempt, got %d", loads)
	}
}

func TestNew_DefaultEncoding(t *testing.T) {
	if got := New("").Name(); got != DefaultEncoding {
		t.Errorf("expected %s, got %s", DefaultEncoding, got)
	}
}
