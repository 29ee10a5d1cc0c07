package llm

import (
	"strings"
	"sync"
)

// Accumulator tracks the partial assistant message produced by an
// in-flight Call so GetPartialMessage can answer at any moment, including
// after the caller has abandoned the stream. Provider implementations
// embed one per in-flight call and feed it from their stream loop.
type Accumulator struct {
	mu         sync.Mutex
	responseID string
	content    strings.Builder
	thinking   strings.Builder
}

func newAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) reset(responseID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responseID = responseID
	a.content.Reset()
	a.thinking.Reset()
}

func (a *Accumulator) appendText(delta string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.content.WriteString(delta)
}

// setText replaces the accumulated text outright, used when a provider
// emits a final aggregated message that supersedes any deltas rather than
// extending them.
func (a *Accumulator) setText(final string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.content.Reset()
	a.content.WriteString(final)
}

func (a *Accumulator) appendThinking(delta string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.thinking.WriteString(delta)
}

// Partial returns the accumulated assistant text as of now, or nil if
// nothing has streamed. Tool calls are never included — per spec, a tool
// call with partially streamed arguments is dropped on abort, never
// persisted half-formed.
func (a *Accumulator) Partial() *AssistantPayload {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.content.Len() == 0 {
		return nil
	}
	return &AssistantPayload{
		Content:    a.content.String(),
		ResponseID: a.responseID,
	}
}

// PartialReasoning returns the accumulated thinking text as of now, or
// nil if no thinking has streamed. Persisted alongside Partial on abort
// so a reasoning model's in-progress thought isn't silently dropped.
func (a *Accumulator) PartialReasoning() *ReasoningPayload {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.thinking.Len() == 0 {
		return nil
	}
	return &ReasoningPayload{
		Content:    a.thinking.String(),
		ResponseID: a.responseID,
	}
}
