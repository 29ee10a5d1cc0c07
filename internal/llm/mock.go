package llm

import (
	"context"
)

// MockClient is a scripted Client for exercising the Agent Turn Engine
// and reminder pipeline without a network dependency. Each Call pops the
// next []StreamItem script from Scripts (cycling if it runs out) and
// streams it onto the returned channel, honoring context cancellation.
type MockClient struct {
	Model    string
	Provider string

	// Scripts is consumed in order, one script per Call. If empty, Call
	// streams a single AssistantMessage("") and ResponseMetadata(completed).
	Scripts [][]StreamItem

	// CallErr, if set, is returned by the next Call instead of starting a
	// stream.
	CallErr error

	calls int
	acc   *Accumulator
}

// NewMockClient creates a MockClient for model.
func NewMockClient(model string, scripts ...[]StreamItem) *MockClient {
	return &MockClient{Model: model, Provider: "mock", Scripts: scripts, acc: newAccumulator()}
}

func (m *MockClient) ModelName() string { return m.Model }

func (m *MockClient) GetLLMConfig() Config {
	return Config{Provider: m.Provider, Model: m.Model}
}

func (m *MockClient) GetPartialMessage() *AssistantPayload {
	return m.acc.Partial()
}

// Call streams the next script through a single-slot buffered channel, so
// the send loop below blocks on a slow/stopped consumer exactly like a
// real provider's network-paced stream would, and a cancelled context
// unblocks it promptly via the select below rather than after the whole
// script has queued up.
func (m *MockClient) Call(ctx context.Context, params Params) (<-chan StreamItem, error) {
	if m.CallErr != nil {
		err := m.CallErr
		m.CallErr = nil
		return nil, err
	}

	script := defaultScript()
	if len(m.Scripts) > 0 {
		script = m.Scripts[m.calls%len(m.Scripts)]
	}
	m.calls++

	responseID := ""
	if len(script) > 0 && script[0].Type == ItemStart {
		responseID = script[0].Start.ResponseID
	}
	m.acc.reset(responseID)

	ch := make(chan StreamItem, 1)
	go func() {
		defer close(ch)
		for _, item := range script {
			switch item.Type {
			case ItemAssistantMessageDelta:
				m.acc.appendText(item.AssistantMessageDelta.Content)
			case ItemReasoningTextDelta:
				m.acc.appendThinking(item.ReasoningTextDelta.Content)
			case ItemAssistantMessage:
				m.acc.setText(item.AssistantMessage.Content)
			}
			select {
			case <-ctx.Done():
				return
			case ch <- item:
			}
		}
	}()
	return ch, nil
}

func defaultScript() []StreamItem {
	return []StreamItem{
		{Type: ItemStart, Start: &StartPayload{ResponseID: "mock-resp-1"}},
		{Type: ItemAssistantMessage, AssistantMessage: &AssistantPayload{Content: "", ResponseID: "mock-resp-1"}},
		{Type: ItemResponseMetadata, ResponseMetadata: nil},
	}
}
