package executor

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/internal/config"
	"github.com/haasonsaas/agentcore/internal/events"
	"github.com/haasonsaas/agentcore/internal/llm"
	"github.com/haasonsaas/agentcore/internal/observability"
	"github.com/haasonsaas/agentcore/internal/sessions"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/internal/tools/subagent"
	"github.com/haasonsaas/agentcore/pkg/models"
)

func newTestExecutor(t *testing.T, resolve ClientResolver) (*Executor, *events.Bus) {
	t.Helper()
	store := sessions.NewMemoryStore()
	registry := tools.NewRegistry()
	registry.Register(subagent.NewTaskTool())
	runner := tools.NewRunner(registry)
	bus := events.NewBus(256)
	logger := observability.MustNewLogger(observability.LogConfig{Level: "error", Format: "json"})
	engine := agent.NewEngine(store, runner, bus, logger, config.AgentConfig{})

	ex := New(engine, Options{
		Store:         store,
		Registry:      registry,
		Bus:           bus,
		Logger:        logger,
		ResolveClient: resolve,
		DefaultModel:  "mock-model",
	})
	return ex, bus
}

func drain(bus *events.Bus) []events.Event {
	var out []events.Event
	for {
		select {
		case ev := <-bus.Events():
			out = append(out, ev)
			bus.Ack()
		default:
			return out
		}
	}
}

func TestExecutorInitEmitsWelcomeAndReplay(t *testing.T) {
	client := llm.NewMockClient("mock-model", []llm.StreamItem{
		{Type: llm.ItemAssistantMessage, AssistantMessage: &llm.AssistantPayload{Content: "hi"}},
		{Type: llm.ItemResponseMetadata, ResponseMetadata: &models.ResponseMetadataItem{Status: models.StatusCompleted}},
	})
	ex, bus := newTestExecutor(t, func(string) (llm.Client, error) { return client, nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ex.Run(ctx)

	sub, err := ex.Submit(ctx, Operation{Type: OpInit, Init: &InitOp{SessionID: "s1", WorkDir: "/workspace"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := sub.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	evs := drain(bus)
	var sawWelcome bool
	for _, ev := range evs {
		if ev.Type == events.Welcome {
			sawWelcome = true
		}
	}
	if !sawWelcome {
		t.Fatalf("expected a Welcome event, got %+v", evs)
	}
}

func TestExecutorUserInputRunsTask(t *testing.T) {
	client := llm.NewMockClient("mock-model", []llm.StreamItem{
		{Type: llm.ItemStart, Start: &llm.StartPayload{ResponseID: "r1"}},
		{Type: llm.ItemAssistantMessage, AssistantMessage: &llm.AssistantPayload{Content: "hello", ResponseID: "r1"}},
		{Type: llm.ItemResponseMetadata, ResponseMetadata: &models.ResponseMetadataItem{Status: models.StatusCompleted}},
	})
	ex, bus := newTestExecutor(t, func(string) (llm.Client, error) { return client, nil })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ex.Run(ctx)

	initSub, err := ex.Submit(ctx, Operation{Type: OpInit, Init: &InitOp{SessionID: "s2", WorkDir: "/workspace"}})
	if err != nil {
		t.Fatalf("submit init: %v", err)
	}
	if err := initSub.Wait(ctx); err != nil {
		t.Fatalf("wait init: %v", err)
	}
	drain(bus)

	inputSub, err := ex.Submit(ctx, Operation{Type: OpUserInput, UserInput: &UserInputOp{SessionID: "s2", Text: "hi"}})
	if err != nil {
		t.Fatalf("submit input: %v", err)
	}
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := inputSub.Wait(waitCtx); err != nil {
		t.Fatalf("wait input: %v", err)
	}

	evs := drain(bus)
	var sawFinish bool
	for _, ev := range evs {
		if ev.Type == events.TaskFinish {
			sawFinish = true
		}
	}
	if !sawFinish {
		t.Fatalf("expected a TaskFinish event, got %+v", evs)
	}
}

func TestExecutorInterruptCancelsRunningTask(t *testing.T) {
	store := sessions.NewMemoryStore()
	registry := tools.NewRegistry()
	runner := tools.NewRunner(registry)
	bus := events.NewBus(256)
	logger := observability.MustNewLogger(observability.LogConfig{Level: "error", Format: "json"})
	engine := agent.NewEngine(store, runner, bus, logger, config.AgentConfig{})

	blockingClient := &blockingMockClient{model: "mock-model", started: make(chan struct{})}
	ex := New(engine, Options{
		Store: store, Registry: registry, Bus: bus, Logger: logger,
		ResolveClient: func(string) (llm.Client, error) { return blockingClient, nil },
		DefaultModel:  "mock-model",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ex.Run(ctx)

	initSub, _ := ex.Submit(ctx, Operation{Type: OpInit, Init: &InitOp{SessionID: "s3", WorkDir: "/workspace"}})
	if err := initSub.Wait(ctx); err != nil {
		t.Fatalf("wait init: %v", err)
	}

	inputSub, err := ex.Submit(ctx, Operation{Type: OpUserInput, UserInput: &UserInputOp{SessionID: "s3", Text: "go"}})
	if err != nil {
		t.Fatalf("submit input: %v", err)
	}

	<-blockingClient.started

	interruptSub, err := ex.Submit(ctx, Operation{Type: OpInterrupt, Interrupt: &InterruptOp{TargetSessionID: "s3"}})
	if err != nil {
		t.Fatalf("submit interrupt: %v", err)
	}
	if err := interruptSub.Wait(ctx); err != nil {
		t.Fatalf("wait interrupt: %v", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := inputSub.Wait(waitCtx); err != nil {
		t.Fatalf("expected the interrupted task to finish cleanly, got %v", err)
	}

	session, err := store.Get(context.Background(), "s3")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(session.ConversationHistory) == 0 {
		t.Fatalf("expected some history")
	}
	last := session.ConversationHistory[len(session.ConversationHistory)-1]
	if last.Type != models.ItemInterrupt {
		t.Fatalf("expected history to end with InterruptItem, ended with %v", last.Type)
	}
}

func TestExecutorRunSubAgentSpawnsChildSession(t *testing.T) {
	client := llm.NewMockClient("mock-model", []llm.StreamItem{
		{Type: llm.ItemAssistantMessage, AssistantMessage: &llm.AssistantPayload{Content: "child reply"}},
		{Type: llm.ItemResponseMetadata, ResponseMetadata: &models.ResponseMetadataItem{Status: models.StatusCompleted}},
	})
	ex, _ := newTestExecutor(t, func(string) (llm.Client, error) { return client, nil })

	run := ex.runSubAgent("parent-1", "/workspace")
	result, err := run(context.Background(), agent.RoleSubTask, "investigate", "find the bug")
	if err != nil {
		t.Fatalf("runSubAgent: %v", err)
	}
	if result.Message != "child reply" {
		t.Fatalf("expected child reply, got %q", result.Message)
	}
	if result.SessionKey == "" {
		t.Fatalf("expected a child session key")
	}
}

// blockingMockClient stalls until its context is cancelled, for exercising
// Interrupt against a task that's actually still running.
type blockingMockClient struct {
	model   string
	started chan struct{}
}

func (c *blockingMockClient) ModelName() string        { return c.model }
func (c *blockingMockClient) GetLLMConfig() llm.Config { return llm.Config{Provider: "mock", Model: c.model} }
func (c *blockingMockClient) GetPartialMessage() *llm.AssistantPayload { return nil }

func (c *blockingMockClient) Call(ctx context.Context, _ llm.Params) (<-chan llm.StreamItem, error) {
	ch := make(chan llm.StreamItem)
	go func() {
		defer close(ch)
		close(c.started)
		<-ctx.Done()
	}()
	return ch, nil
}
