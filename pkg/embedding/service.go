// Package embedding provides the single dense-retrieval operation Stage
// AB's vector search depends on (spec §4.1): embed(batch[text]) ->
// batch[vector]. The model itself is out of scope (spec §1 non-goal: "the
// LLM inference runtime itself") — this package only defines the contract
// and a deterministic local implementation usable without a model server.
package embedding

import (
	"context"
	"errors"
	"sync"
)

const (
	// Dim is the fixed embedding dimension every vector in the system uses.
	// Cosine similarity over mismatched dimensions is a programmer error,
	// not a runtime condition, so callers should never need to check it.
	Dim = 768
)

var (
	// ErrModelNotLoaded is returned lazily on first Embed call if
	// initialization failed; it is fatal to the caller but retryable
	// (spec §4.1).
	ErrModelNotLoaded = errors.New("embedding: model_not_loaded")

	// ErrInputTooLong is returned for any input exceeding MaxInputRunes.
	ErrInputTooLong = errors.New("embedding: input_too_long")
)

// MaxInputRunes bounds a single embed input; queries must already be plain
// text stripped of credentials (spec §4.1).
const MaxInputRunes = 8192

// Service is the embed(batch[text]) -> batch[vector] contract.
type Service interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// loader lazily produces the model state on first use (spec §4.1: "lazy
// initialization, first call triggers model load").
type loader func() (modelState, error)

type modelState struct {
	loaded bool
}

// service is a deterministic, hash-based embedder: it never calls out to a
// model server, so "loaded" here is local initialization of hashing
// parameters, not a network round trip. It stands in for whichever dense
// retrieval model runs in production, preserving the lazy-init and batching
// contract real deployments require.
type service struct {
	mu    sync.Mutex
	state *modelState
	load  loader
}

// NewService constructs a deterministic embedding service. Determinism for
// a fixed model version (spec §4.1 contract) is trivially satisfied since
// the hash function never changes at runtime.
func NewService() Service {
	return &service{
		load: func() (modelState, error) { return modelState{loaded: true}, nil },
	}
}

func (s *service) ensureLoaded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil && s.state.loaded {
		return nil
	}
	st, err := s.load()
	if err != nil {
		return ErrModelNotLoaded
	}
	s.state = &st
	return nil
}

// Embed embeds a batch of plain-text queries, amortizing model load over
// the whole batch (spec §4.1: "batched to amortize cost").
func (s *service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if len([]rune(text)) > MaxInputRunes {
			return nil, ErrInputTooLong
		}
		out[i] = hashEmbed(text)
	}
	return out, nil
}

// hashEmbed derives a cosine-normalized vector deterministically from text
// content via a rolling character hash spread across Dim buckets — a stand
// in for a real dense-retrieval model's output shape.
func hashEmbed(text string) []float32 {
	vec := make([]float32, Dim)
	var h uint32 = 2166136261
	for i, r := range text {
		h ^= uint32(r)
		h *= 16777619
		vec[int(h)%Dim] += float32(1) / float32(i+1)
	}
	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(1.0 / sqrt(sumSquares))
	for i := range vec {
		vec[i] *= norm
	}
}

// sqrt avoids importing math just for one call site at the package's only
// numeric boundary.
func sqrt(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}
