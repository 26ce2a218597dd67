package responder

import (
	"context"
	"strings"

	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/models"
)

// Responder is the respond(userText, Classification, *ExecutionPlan,
// ExecutionStatus) -> Response contract.
type Responder interface {
	Respond(ctx context.Context, userText string, classification models.Classification, plan *models.ExecutionPlan, status ExecutionStatus) Response

	// RespondStream performs the same formatting but streams text chunks as
	// they arrive (spec §4.8: "the emitter produces an ordered token
	// sequence and marks a terminal boundary"). The returned ResponseType is
	// resolved immediately, before any chunk is sent, since it never
	// depends on the LLM call.
	RespondStream(ctx context.Context, userText string, classification models.Classification, plan *models.ExecutionPlan, status ExecutionStatus) (ResponseType, <-chan llmoracle.StreamChunk)
}

type responder struct {
	oracle llmoracle.Client
}

// New constructs a Responder. oracle may be nil, in which case every
// response renders via the deterministic template.
func New(oracle llmoracle.Client) Responder {
	return &responder{oracle: oracle}
}

func (r *responder) Respond(ctx context.Context, userText string, classification models.Classification, plan *models.ExecutionPlan, status ExecutionStatus) Response {
	responseType := classifyResponseType(plan, status)

	if r.oracle == nil {
		return Response{Type: responseType, Text: renderTemplate(responseType, classification, plan, status)}
	}

	text, err := r.oracle.Generate(ctx, llmoracle.Request{
		Messages:  []llmoracle.Message{{Role: "user", Content: responsePrompt(responseType, userText, classification, plan, status)}},
		MaxTokens: 512,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		return Response{Type: responseType, Text: renderTemplate(responseType, classification, plan, status)}
	}
	return Response{Type: responseType, Text: text}
}

func (r *responder) RespondStream(ctx context.Context, userText string, classification models.Classification, plan *models.ExecutionPlan, status ExecutionStatus) (ResponseType, <-chan llmoracle.StreamChunk) {
	responseType := classifyResponseType(plan, status)

	out := make(chan llmoracle.StreamChunk)

	if r.oracle == nil {
		go func() {
			defer close(out)
			emitFallback(out, renderTemplate(responseType, classification, plan, status))
		}()
		return responseType, out
	}

	chunks, errs := r.oracle.GenerateStream(ctx, llmoracle.Request{
		Messages:  []llmoracle.Message{{Role: "user", Content: responsePrompt(responseType, userText, classification, plan, status)}},
		MaxTokens: 512,
	})

	go func() {
		defer close(out)
		var any, sawDone bool
		for chunk := range chunks {
			any = true
			if chunk.Done {
				sawDone = true
			}
			out <- chunk
		}
		err := <-errs
		switch {
		case !any:
			// The stream produced nothing at all: fall back entirely.
			emitFallback(out, renderTemplate(responseType, classification, plan, status))
		case err != nil && !sawDone:
			// Partial output already reached the caller; just close out the
			// terminal boundary rather than re-rendering the whole answer.
			out <- llmoracle.StreamChunk{Done: true}
		}
	}()
	return responseType, out
}

// emitFallback sends text as a single chunk followed by the terminal
// boundary, matching the shape a real stream would have produced.
func emitFallback(out chan<- llmoracle.StreamChunk, text string) {
	out <- llmoracle.StreamChunk{Text: text}
	out <- llmoracle.StreamChunk{Done: true}
}
