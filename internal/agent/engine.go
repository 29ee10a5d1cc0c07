package agent

import (
	"context"
	"errors"
	"time"

	"github.com/haasonsaas/agentcore/internal/backoff"
	"github.com/haasonsaas/agentcore/internal/config"
	"github.com/haasonsaas/agentcore/internal/events"
	"github.com/haasonsaas/agentcore/internal/llm"
	"github.com/haasonsaas/agentcore/internal/observability"
	"github.com/haasonsaas/agentcore/internal/sessions"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// ErrTaskAborted is returned by RunTask when a turn's retry budget is
// exhausted without a successful attempt.
var ErrTaskAborted = errors.New("agent: task aborted after exhausting turn retries")

const defaultMaxRetries = 10
const defaultFirstEventTimeout = 60 * time.Second

// Engine runs the outer run_task loop and the per-turn run_turn body of
// spec §4.5 against a session's Profile. One Engine is shared by every
// task the Executor spawns; all per-task state lives on the stack of the
// RunTask call, so concurrent tasks (a parent and its sub-agents) share
// one Engine safely.
type Engine struct {
	store  sessions.Store
	runner *tools.Runner
	bus    *events.Bus
	log    *observability.Logger
	cfg    config.AgentConfig
}

// NewEngine creates an Engine. cfg's zero-valued fields fall back to
// defaultMaxRetries / defaultFirstEventTimeout.
func NewEngine(store sessions.Store, runner *tools.Runner, bus *events.Bus, log *observability.Logger, cfg config.AgentConfig) *Engine {
	return &Engine{store: store, runner: runner, bus: bus, log: log, cfg: cfg}
}

func (e *Engine) maxRetries() int {
	if e.cfg.MaxRetries > 0 {
		return e.cfg.MaxRetries
	}
	return defaultMaxRetries
}

func (e *Engine) firstEventTimeout() time.Duration {
	if e.cfg.FirstEventTimeout > 0 {
		return e.cfg.FirstEventTimeout
	}
	return defaultFirstEventTimeout
}

func (e *Engine) backoffPolicy() backoff.BackoffPolicy {
	initial := e.cfg.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}
	max := e.cfg.MaxBackoff
	if max <= 0 {
		max = 30 * time.Second
	}
	return backoff.BackoffPolicy{
		InitialMs: float64(initial.Milliseconds()),
		MaxMs:     float64(max.Milliseconds()),
		Factor:    2,
		Jitter:    0,
	}
}

// turnOutcome is runTurn's report back to RunTask's retry loop.
type turnOutcome struct {
	toolCalls  []models.ToolCallItem
	metadata   *models.ResponseMetadataItem
	turnFailed bool
	timedOut   bool
}

// RunTask implements run_task: it appends input to session's history,
// emits TaskStart, then loops run_turn until a turn produces zero tool
// calls, a fatal error occurs, or ctx is cancelled. It returns the
// task-level merged metadata regardless of outcome.
func (e *Engine) RunTask(ctx context.Context, profile *Profile, session *models.Session, input models.UserMessage, toolCtx *ToolContext) (*models.ResponseMetadataItem, error) {
	userItem := models.ConversationItem{Type: models.ItemUserMessage, UserMessage: &input}
	if err := e.store.AppendHistory(ctx, session.ID, userItem); err != nil {
		return nil, err
	}
	session.Append(userItem)

	e.emit(ctx, events.Event{
		Type:      events.TaskStart,
		TaskStart: &events.TaskStartPayload{SessionID: session.ID, SubAgentState: session.SubAgentState},
	})
	e.emit(ctx, events.Event{
		Type:        events.UserMessage,
		UserMessage: &events.UserMessagePayload{SessionID: session.ID, Content: input.Content, Images: input.Images},
	})

	acc := newMetadataAccumulator()
	taskResult := "completed"

outer:
	for {
		if ctx.Err() != nil {
			taskResult = "interrupted"
			break outer
		}

		for _, dm := range e.runReminders(ctx, profile, session) {
			item := models.ConversationItem{Type: models.ItemDeveloperMessage, DeveloperMessage: dm}
			if err := e.store.AppendHistory(ctx, session.ID, item); err != nil {
				metadata := acc.finalize()
				return metadata, err
			}
			session.Append(item)
			e.emit(ctx, events.Event{
				Type:             events.DeveloperMessage,
				DeveloperMessage: &events.DeveloperMessagePayload{SessionID: session.ID, Item: *dm},
			})
		}

		turnSucceeded := false
		var lastToolCalls []models.ToolCallItem
		var lastTurnErr error

		for attempt := 1; attempt <= e.maxRetries(); attempt++ {
			outcome, err := e.runTurn(ctx, profile, session, toolCtx)
			if ctx.Err() != nil {
				taskResult = "interrupted"
				break outer
			}
			if outcome != nil {
				acc.mergeTurn(outcome.metadata)
			}
			if err == nil && outcome != nil && !outcome.turnFailed {
				turnSucceeded = true
				lastToolCalls = outcome.toolCalls
				break
			}

			lastTurnErr = err
			reason := "turn failed"
			canRetry := attempt < e.maxRetries()
			switch {
			case outcome != nil && outcome.timedOut:
				reason = "first-event timeout"
			case err != nil:
				reason = err.Error()
			}
			e.emit(ctx, events.Event{Type: events.Error, Error: &events.ErrorPayload{ErrorMessage: reason, CanRetry: canRetry}})

			if !canRetry {
				break
			}
			if serr := backoff.SleepWithContext(ctx, backoff.ComputeBackoff(e.backoffPolicy(), attempt)); serr != nil {
				taskResult = "interrupted"
				break outer
			}
		}

		if !turnSucceeded {
			metadata := acc.finalize()
			metadata.Status = models.StatusError
			if lastTurnErr != nil {
				metadata.ErrorReason = lastTurnErr.Error()
			}
			e.emit(ctx, events.Event{
				Type:             events.ResponseMetadata,
				ResponseMetadata: &events.ResponseMetadataPayload{SessionID: session.ID, Metadata: *metadata},
			})
			e.emit(ctx, events.Event{
				Type:       events.TaskFinish,
				TaskFinish: &events.TaskFinishPayload{SessionID: session.ID, TaskResult: "error"},
			})
			return metadata, ErrTaskAborted
		}

		if len(lastToolCalls) == 0 {
			break outer
		}
	}

	metadata := acc.finalize()
	if err := e.store.AppendHistory(context.Background(), session.ID, models.ConversationItem{
		Type:             models.ItemResponseMetadata,
		ResponseMetadata: metadata,
	}); err != nil {
		e.log.Warn(ctx, "failed to persist task metadata", "error", err, "session_id", session.ID)
	}
	e.emit(context.Background(), events.Event{
		Type:             events.ResponseMetadata,
		ResponseMetadata: &events.ResponseMetadataPayload{SessionID: session.ID, Metadata: *metadata},
	})
	e.emit(context.Background(), events.Event{
		Type:       events.TaskFinish,
		TaskFinish: &events.TaskFinishPayload{SessionID: session.ID, TaskResult: taskResult},
	})
	return metadata, nil
}

// runReminders runs every profile.Reminders function in order, logging
// and skipping (never failing the turn over) any that error.
func (e *Engine) runReminders(ctx context.Context, profile *Profile, session *models.Session) []*models.DeveloperMessage {
	var out []*models.DeveloperMessage
	for _, r := range profile.Reminders {
		dm, err := r(ctx, session)
		if err != nil {
			e.log.Warn(ctx, "reminder failed", "error", err, "session_id", session.ID)
			continue
		}
		if dm != nil {
			out = append(out, dm)
		}
	}
	return out
}

// runTurn implements run_turn: one LLM call, streamed and translated to
// events, then a Tool Runner pass over any resulting tool calls.
func (e *Engine) runTurn(ctx context.Context, profile *Profile, session *models.Session, toolCtx *ToolContext) (*turnOutcome, error) {
	e.emit(ctx, events.Event{Type: events.TurnStart, TurnStart: &events.SessionPayload{SessionID: session.ID}})

	turnCtx, cancelTurn := context.WithCancel(ctx)
	defer cancelTurn()

	params := llm.Params{
		Model:        profile.LLMClient.ModelName(),
		SystemPrompt: profile.SystemPrompt,
		History:      session.ConversationHistory,
		Tools:        profile.ToolSchemas,
	}
	stream, err := profile.LLMClient.Call(turnCtx, params)
	if err != nil {
		return &turnOutcome{turnFailed: true}, err
	}

	var (
		reasoningItems  []models.ConversationItem
		assistantMsg    *models.AssistantMessage
		toolCalls       []models.ToolCallItem
		startedCalls    = map[string]llm.ToolCallStartPayload{}
		responseFailed  bool
		metadata        *models.ResponseMetadataItem
		responseID      string
		firstSeen       bool
		timedOut        bool
	)

	timer := time.NewTimer(e.firstEventTimeout())
	defer timer.Stop()

drain:
	for {
		select {
		case item, ok := <-stream:
			if !ok {
				break drain
			}
			if !firstSeen && item.Type != llm.ItemStart {
				firstSeen = true
				timer.Stop()
			}
			switch item.Type {
			case llm.ItemStart:
				responseID = item.Start.ResponseID
			case llm.ItemReasoningTextDelta:
				e.emit(ctx, events.Event{
					Type:          events.ThinkingDelta,
					ThinkingDelta: &events.ThinkingPayload{SessionID: session.ID, ResponseID: responseID, Content: item.ReasoningTextDelta.Content},
				})
			case llm.ItemReasoningText:
				reasoningItems = append(reasoningItems, models.ConversationItem{
					Type: models.ItemReasoningText,
					ReasoningText: &models.ReasoningText{
						Content:    item.ReasoningText.Content,
						ResponseID: item.ReasoningText.ResponseID,
					},
				})
				e.emit(ctx, events.Event{
					Type:     events.Thinking,
					Thinking: &events.ThinkingPayload{SessionID: session.ID, ResponseID: item.ReasoningText.ResponseID, Content: item.ReasoningText.Content},
				})
			case llm.ItemAssistantMessageDelta:
				e.emit(ctx, events.Event{
					Type:                  events.AssistantMessageDelta,
					AssistantMessageDelta: &events.AssistantMessagePayload{SessionID: session.ID, ResponseID: responseID, Content: item.AssistantMessageDelta.Content},
				})
			case llm.ItemAssistantMessage:
				assistantMsg = &models.AssistantMessage{
					Content:     item.AssistantMessage.Content,
					ResponseID:  item.AssistantMessage.ResponseID,
					Annotations: item.AssistantMessage.Annotations,
				}
				e.emit(ctx, events.Event{
					Type: events.AssistantMessage,
					AssistantMessage: &events.AssistantMessagePayload{
						SessionID: session.ID, ResponseID: assistantMsg.ResponseID,
						Content: assistantMsg.Content, Annotations: assistantMsg.Annotations,
					},
				})
			case llm.ItemToolCallStart:
				startedCalls[item.ToolCallStart.CallID] = *item.ToolCallStart
			case llm.ItemToolCall:
				call := models.ToolCallItem{
					CallID:       item.ToolCall.CallID,
					ResponseID:   item.ToolCall.ResponseID,
					Name:         item.ToolCall.Name,
					ArgumentsRaw: item.ToolCall.ArgumentsRaw,
				}
				toolCalls = append(toolCalls, call)
				e.emit(ctx, events.Event{
					Type: events.ToolCall,
					ToolCall: &events.ToolCallPayload{
						SessionID: session.ID, ResponseID: call.ResponseID,
						ToolCallID: call.CallID, ToolName: call.Name, Arguments: call.ArgumentsRaw,
					},
				})
			case llm.ItemResponseMetadata:
				if item.ResponseMetadata != nil {
					metadata = item.ResponseMetadata
				}
			case llm.ItemStreamError:
				responseFailed = true
				msg := "stream error"
				if item.StreamError != nil && item.StreamError.Err != nil {
					msg = item.StreamError.Err.Error()
				}
				e.emit(ctx, events.Event{Type: events.Error, Error: &events.ErrorPayload{ErrorMessage: msg, CanRetry: true}})
				break drain
			}
		case <-timer.C:
			timedOut = true
			cancelTurn()
			e.emit(ctx, events.Event{Type: events.Error, Error: &events.ErrorPayload{ErrorMessage: "first-event timeout", CanRetry: true}})
			break drain
		case <-ctx.Done():
			cancelTurn()
			e.cancelPartialTurn(session, startedCalls, toolCalls)
			return &turnOutcome{turnFailed: true}, ctx.Err()
		}
	}

	if timedOut {
		go func() {
			for range stream {
			}
		}()
		return &turnOutcome{turnFailed: true, timedOut: true}, nil
	}

	if responseFailed {
		return &turnOutcome{turnFailed: true, metadata: metadata}, nil
	}

	if metadata == nil {
		metadata = &models.ResponseMetadataItem{
			ModelName:  profile.LLMClient.ModelName(),
			Provider:   profile.LLMClient.GetLLMConfig().Provider,
			ResponseID: responseID,
			Status:     models.StatusCompleted,
		}
	}
	if metadata.Status != models.StatusCompleted {
		return &turnOutcome{turnFailed: true, metadata: metadata}, nil
	}

	var toPersist []models.ConversationItem
	toPersist = append(toPersist, reasoningItems...)
	if assistantMsg != nil {
		toPersist = append(toPersist, models.ConversationItem{Type: models.ItemAssistantMessage, AssistantMessage: assistantMsg})
	}
	for i := range toolCalls {
		call := toolCalls[i]
		toPersist = append(toPersist, models.ConversationItem{Type: models.ItemToolCall, ToolCall: &call})
	}
	if len(toPersist) > 0 {
		if err := e.store.AppendHistory(ctx, session.ID, toPersist...); err != nil {
			return &turnOutcome{turnFailed: true, metadata: metadata}, err
		}
		session.Append(toPersist...)
	}
	if responseID != "" {
		session.LastResponseID = responseID
	}

	if len(toolCalls) > 0 {
		sink := events.NewToolEventSink(e.bus, session.ID, responseID)
		runCtx := WithToolContext(ctx, toolCtx)
		if _, err := e.runner.Run(runCtx, session.ID, e.store, sink, toolCalls); err != nil {
			return &turnOutcome{turnFailed: true, metadata: metadata}, err
		}
		if ctx.Err() != nil {
			e.emit(context.Background(), events.Event{Type: events.Interrupt, Interrupt: &events.SessionPayload{SessionID: session.ID}})
			e.refreshHistory(session)
			return &turnOutcome{turnFailed: true, metadata: metadata}, ctx.Err()
		}
		e.refreshHistory(session)
	}

	e.emit(ctx, events.Event{Type: events.TurnEnd, TurnEnd: &events.SessionPayload{SessionID: session.ID}})
	return &turnOutcome{toolCalls: toolCalls, metadata: metadata}, nil
}

// cancelPartialTurn implements spec §4.5.2's cancel() for tool calls that
// only ever existed in the streaming phase (never handed to the Tool
// Runner): it synthesizes the missing ToolCallEvent for any call whose
// arguments never finished streaming, then a cancelled ToolResultEvent
// plus history entry for every call seen this turn, and finally appends
// one InterruptItem.
func (e *Engine) cancelPartialTurn(session *models.Session, started map[string]llm.ToolCallStartPayload, completed []models.ToolCallItem) {
	ctx := context.Background()
	completedIDs := make(map[string]bool, len(completed))
	var toPersist []models.ConversationItem

	for i := range completed {
		call := completed[i]
		completedIDs[call.CallID] = true
		result := models.ToolResultItem{CallID: call.CallID, ToolName: call.Name, Output: models.CancelledToolOutput, Status: models.ToolResultError}
		toPersist = append(toPersist, models.ConversationItem{Type: models.ItemToolResult, ToolResult: &result})
		e.emit(ctx, events.Event{
			Type: events.ToolResult,
			ToolResult: &events.ToolResultPayload{
				SessionID: session.ID, ResponseID: call.ResponseID, ToolCallID: call.CallID,
				ToolName: call.Name, Result: result.Output, Status: result.Status,
			},
		})
	}

	for callID, payload := range started {
		if completedIDs[callID] {
			continue
		}
		e.emit(ctx, events.Event{
			Type: events.ToolCall,
			ToolCall: &events.ToolCallPayload{
				SessionID: session.ID, ResponseID: payload.ResponseID, ToolCallID: callID, ToolName: payload.Name,
			},
		})
		result := models.ToolResultItem{CallID: callID, ToolName: payload.Name, Output: models.CancelledToolOutput, Status: models.ToolResultError}
		toPersist = append(toPersist, models.ConversationItem{Type: models.ItemToolResult, ToolResult: &result})
		e.emit(ctx, events.Event{
			Type: events.ToolResult,
			ToolResult: &events.ToolResultPayload{
				SessionID: session.ID, ResponseID: payload.ResponseID, ToolCallID: callID,
				ToolName: payload.Name, Result: result.Output, Status: result.Status,
			},
		})
	}

	toPersist = append(toPersist, models.ConversationItem{Type: models.ItemInterrupt, Interrupt: &models.InterruptItem{}})
	if err := e.store.AppendHistory(ctx, session.ID, toPersist...); err != nil {
		e.log.Warn(ctx, "failed to persist cancellation", "error", err, "session_id", session.ID)
	}
	session.Append(toPersist...)
	e.emit(ctx, events.Event{Type: events.Interrupt, Interrupt: &events.SessionPayload{SessionID: session.ID}})
}

// refreshHistory reloads session's in-memory history from the store, used
// after the Tool Runner appends tool results directly through the store
// rather than through session.Append.
func (e *Engine) refreshHistory(session *models.Session) {
	refreshed, err := e.store.Get(context.Background(), session.ID)
	if err != nil {
		return
	}
	session.ConversationHistory = refreshed.ConversationHistory
}

func (e *Engine) emit(ctx context.Context, ev events.Event) {
	emitCtx := ctx
	if emitCtx == nil || emitCtx.Err() != nil {
		emitCtx = context.Background()
	}
	if err := e.bus.Emit(emitCtx, ev); err != nil {
		e.log.Debug(context.Background(), "event dropped", "type", ev.Type, "error", err)
	}
}
