// Package ort compares sentences with a local ONNX sentence-embedding model
// such as all-MiniLM-L6-v2.
package ort

import (
	"context"
	"errors"
	"sync"

	"github.com/23skdu/miniviva/internal/similarity"
)

var ErrClosed = errors.New("encoder is closed")

type encoder interface {
	Encode(text string) ([]float32, error)
	Close() error
}

// Comparator embeds both texts and returns their cosine similarity.
// Embeddings are memoized per text for the lifetime of the Comparator.
type Comparator struct {
	enc encoder

	mu    sync.RWMutex
	cache map[string][]float32
}

// New loads the runtime, model and tokenizer described by cfg.
func New(cfg Config) (*Comparator, error) {
	enc, err := newOrtEncoder(cfg)
	if err != nil {
		return nil, err
	}
	return newComparator(enc), nil
}

func newComparator(enc encoder) *Comparator {
	return &Comparator{enc: enc, cache: make(map[string][]float32)}
}

func (c *Comparator) Name() string { return "local" }

func (c *Comparator) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := c.embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := c.embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return similarity.Cosine(va, vb)
}

func (c *Comparator) embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	vec, ok := c.cache[text]
	enc := c.enc
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	if enc == nil {
		return nil, ErrClosed
	}
	vec, err := enc.Encode(text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.enc != nil {
		c.cache[text] = vec
	}
	c.mu.Unlock()
	return vec, nil
}

// Ready reports whether the encoder is still open.
func (c *Comparator) Ready() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.enc == nil {
		return ErrClosed
	}
	return nil
}

// Close releases the model session and the ONNX runtime environment.
func (c *Comparator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enc == nil {
		return nil
	}
	err := c.enc.Close()
	c.enc = nil
	c.cache = make(map[string][]float32)
	return err
}
