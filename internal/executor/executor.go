// Package executor implements the Executor / Operation Dispatcher (C6):
// the single-writer run loop that owns session lifecycle, submission
// queueing, interrupt propagation, and sub-agent spawning, per spec
// §3.5/§4.6. It is the only thing that constructs an agent.Profile or
// calls agent.Engine.RunTask outside of a test.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/internal/events"
	"github.com/haasonsaas/agentcore/internal/llm"
	"github.com/haasonsaas/agentcore/internal/observability"
	"github.com/haasonsaas/agentcore/internal/sessions"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/internal/tools/subagent"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// ClientResolver resolves a model name to the llm.Client that serves it,
// so ChangeModel and sub-agent spawning can pick a client without the
// Executor knowing about concrete providers.
type ClientResolver func(modelName string) (llm.Client, error)

// RoleTools narrows a Registry's schemas to what a given agent.Role may
// call. The main role typically gets every schema; a read-only role
// (Oracle) gets a filtered subset so the model is never even offered a
// mutating tool.
type RoleTools func(role agent.Role, registry *tools.Registry) []llm.ToolSchema

// Options configures a new Executor.
type Options struct {
	Store         sessions.Store
	Registry      *tools.Registry
	Bus           *events.Bus
	Logger        *observability.Logger
	ResolveClient ClientResolver
	RoleTools     RoleTools

	SystemPrompt    string
	Vanilla         bool
	QueueSize       int
	DefaultModel    string
	SubTaskModel    string
	SubOracleModel  string
}

type runningTask struct {
	sessionID string
	cancel    context.CancelFunc
}

// Executor runs the outer Operation loop described in spec §4.6.
type Executor struct {
	store         sessions.Store
	registry      *tools.Registry
	bus           *events.Bus
	log           *observability.Logger
	engine        *agent.Engine
	resolveClient ClientResolver
	roleTools     RoleTools

	systemPrompt   string
	vanilla        bool
	defaultModel   string
	subTaskModel   string
	subOracleModel string

	queue chan *Submission

	mu       sync.Mutex
	profiles map[string]*agent.Profile   // session id -> active profile
	running  map[string]*runningTask     // session id -> cancel of its current RunTask
	ended    bool
}

// New creates an Executor. Call Run in its own goroutine, then Submit
// operations from any goroutine.
func New(engine *agent.Engine, opts Options) *Executor {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	roleTools := opts.RoleTools
	if roleTools == nil {
		roleTools = func(_ agent.Role, registry *tools.Registry) []llm.ToolSchema {
			return agent.ToolSchemasOf(registry)
		}
	}
	return &Executor{
		store:          opts.Store,
		registry:       opts.Registry,
		bus:            opts.Bus,
		log:            opts.Logger,
		engine:         engine,
		resolveClient:  opts.ResolveClient,
		roleTools:      roleTools,
		systemPrompt:   opts.SystemPrompt,
		vanilla:        opts.Vanilla,
		defaultModel:   opts.DefaultModel,
		subTaskModel:   opts.SubTaskModel,
		subOracleModel: opts.SubOracleModel,
		queue:          make(chan *Submission, queueSize),
		profiles:       make(map[string]*agent.Profile),
		running:        make(map[string]*runningTask),
	}
}

// Submit enqueues op and returns a handle the caller can Wait on. Submit
// itself never blocks on the operation's effects, only on queue capacity.
func (ex *Executor) Submit(ctx context.Context, op Operation) (*Submission, error) {
	sub := newSubmission(uuid.NewString(), op)
	select {
	case ex.queue <- sub:
		return sub, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run drains the submission queue until ctx is cancelled or an End
// operation is processed. Interrupt and ChangeModel are handled inline so
// they can interleave with an inflight UserInput task running in its own
// goroutine, per spec §4.7's "single writer, concurrent task" model.
func (ex *Executor) Run(ctx context.Context) {
	for {
		ex.mu.Lock()
		ended := ex.ended
		ex.mu.Unlock()
		if ended {
			return
		}
		select {
		case sub, ok := <-ex.queue:
			if !ok {
				return
			}
			ex.dispatch(ctx, sub)
		case <-ctx.Done():
			return
		}
	}
}

func (ex *Executor) dispatch(ctx context.Context, sub *Submission) {
	switch sub.Operation.Type {
	case OpInit:
		sub.complete(ex.handleInit(ctx, sub.Operation.Init))
	case OpUserInput:
		ex.handleUserInput(ctx, sub)
	case OpInterrupt:
		sub.complete(ex.handleInterrupt(sub.Operation.Interrupt))
	case OpChangeModel:
		sub.complete(ex.handleChangeModel(sub.Operation.ChangeModel))
	case OpEnd:
		ex.mu.Lock()
		ex.ended = true
		ex.mu.Unlock()
		sub.complete(nil)
	default:
		sub.complete(fmt.Errorf("executor: unknown operation type %q", sub.Operation.Type))
	}
}

func (ex *Executor) handleInit(ctx context.Context, op *InitOp) error {
	if op == nil {
		return errors.New("executor: Init operation missing payload")
	}

	session, err := ex.store.Get(ctx, op.SessionID)
	if errors.Is(err, sessions.ErrNotFound) {
		session = models.NewSession(op.SessionID, op.WorkDir)
		if err := ex.store.Create(ctx, session); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	client, err := ex.resolveClient(ex.modelOrDefault(session.ModelName))
	if err != nil {
		return err
	}
	session.ModelName = client.ModelName()

	ex.mu.Lock()
	ex.profiles[session.ID] = agent.NewMainProfile(client, ex.systemPrompt, ex.roleTools(agent.RoleMain, ex.registry), ex.vanilla)
	ex.mu.Unlock()

	ex.emit(ctx, events.Event{
		Type: events.ReplayHistory,
		ReplayHistory: &events.ReplayHistoryPayload{
			SessionID: session.ID,
			Events:    replayEvents(session),
			UpdatedAt: session.UpdatedAt,
		},
	})
	ex.emit(ctx, events.Event{
		Type: events.Welcome,
		Welcome: &events.WelcomePayload{
			WorkDir:   session.WorkDir,
			LLMConfig: events.LLMConfigSummary{DefaultProvider: client.GetLLMConfig().Provider, DefaultModel: client.ModelName()},
		},
	})
	return nil
}

func (ex *Executor) handleUserInput(ctx context.Context, sub *Submission) {
	op := sub.Operation.UserInput
	if op == nil {
		sub.complete(errors.New("executor: UserInput operation missing payload"))
		return
	}

	ex.mu.Lock()
	profile, ok := ex.profiles[op.SessionID]
	ex.mu.Unlock()
	if !ok {
		sub.complete(fmt.Errorf("executor: session %s was never initialized", op.SessionID))
		return
	}

	session, err := ex.store.Get(ctx, op.SessionID)
	if err != nil {
		sub.complete(err)
		return
	}

	taskCtx, cancel := context.WithCancel(ctx)
	ex.mu.Lock()
	ex.running[op.SessionID] = &runningTask{sessionID: op.SessionID, cancel: cancel}
	ex.mu.Unlock()

	toolCtx := &agent.ToolContext{Session: session, RunSubAgent: ex.runSubAgent(op.SessionID, session.WorkDir)}

	go func() {
		defer func() {
			cancel()
			ex.mu.Lock()
			delete(ex.running, op.SessionID)
			ex.mu.Unlock()
		}()
		_, err := ex.engine.RunTask(taskCtx, profile, session, models.UserMessage{Content: op.Text, Images: op.Images}, toolCtx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, agent.ErrTaskAborted) {
			ex.log.Warn(ctx, "task ended with error", "error", err, "session_id", op.SessionID)
		}
		sub.complete(err)
	}()
}

// handleInterrupt cancels every running task matching op's target and
// blocks until their cancellation side effects (the Engine's synthetic
// tool results + InterruptItem) have been persisted, per spec §4.6.
func (ex *Executor) handleInterrupt(op *InterruptOp) error {
	if op == nil {
		op = &InterruptOp{}
	}

	ex.mu.Lock()
	var targets []*runningTask
	for sessionID, task := range ex.running {
		if op.TargetSessionID == "" || op.TargetSessionID == "all" || sessionID == op.TargetSessionID {
			targets = append(targets, task)
		}
	}
	ex.mu.Unlock()

	for _, task := range targets {
		task.cancel()
	}
	return nil
}

func (ex *Executor) handleChangeModel(op *ChangeModelOp) error {
	if op == nil {
		return errors.New("executor: ChangeModel operation missing payload")
	}
	client, err := ex.resolveClient(op.ModelName)
	if err != nil {
		return err
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()
	profile, ok := ex.profiles[op.SessionID]
	if !ok {
		return fmt.Errorf("executor: session %s was never initialized", op.SessionID)
	}
	ex.profiles[op.SessionID] = profile.WithModel(client)
	return nil
}

// runSubAgent builds the RunSubAgent closure installed on every turn's
// ToolContext for session parentID, implementing spec §4.6's callback
// slot: create a child session, build its Profile, run it to completion,
// and hand back its final reply. The child's context derives from the
// ctx the Task/Oracle tool call was given, so a parent interrupt (which
// cancels the parent's task context) cascades into the child for free.
func (ex *Executor) runSubAgent(parentID, workDir string) func(context.Context, agent.Role, string, string) (agent.SubAgentResult, error) {
	return func(ctx context.Context, role agent.Role, description, prompt string) (agent.SubAgentResult, error) {
		child := models.NewSession(uuid.NewString(), workDir)
		child.SubAgentState = &models.SubAgentState{Kind: string(role), ParentID: parentID, Description: description, Prompt: prompt}
		if err := ex.store.Create(ctx, child); err != nil {
			return agent.SubAgentResult{}, err
		}

		client, err := ex.resolveClient(ex.subAgentModel(role))
		if err != nil {
			return agent.SubAgentResult{}, err
		}
		child.ModelName = client.ModelName()

		systemPrompt := subagent.BuildSubagentSystemPrompt(subagent.SubagentSystemPromptParams{
			ChildSessionKey: child.ID,
			Task:            prompt,
			Label:           description,
		})
		childProfile := agent.NewSubProfile(role, client, systemPrompt, ex.roleTools(role, ex.registry), ex.vanilla)

		childCtx, cancel := context.WithCancel(ctx)
		ex.mu.Lock()
		ex.running[child.ID] = &runningTask{sessionID: child.ID, cancel: cancel}
		ex.mu.Unlock()
		defer func() {
			cancel()
			ex.mu.Lock()
			delete(ex.running, child.ID)
			ex.mu.Unlock()
		}()

		metadata, err := ex.engine.RunTask(childCtx, childProfile, child, models.UserMessage{Content: prompt}, nil)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, agent.ErrTaskAborted) {
			return agent.SubAgentResult{}, err
		}

		return agent.SubAgentResult{Message: lastAssistantText(child), SessionKey: child.ID, Metadata: metadata}, nil
	}
}

func (ex *Executor) subAgentModel(role agent.Role) string {
	switch role {
	case agent.RoleSubOracle:
		if ex.subOracleModel != "" {
			return ex.subOracleModel
		}
	case agent.RoleSubTask:
		if ex.subTaskModel != "" {
			return ex.subTaskModel
		}
	}
	return ex.defaultModel
}

func (ex *Executor) modelOrDefault(modelName string) string {
	if modelName != "" {
		return modelName
	}
	return ex.defaultModel
}

func lastAssistantText(session *models.Session) string {
	for i := len(session.ConversationHistory) - 1; i >= 0; i-- {
		item := session.ConversationHistory[i]
		if item.Type == models.ItemAssistantMessage && item.AssistantMessage != nil {
			return item.AssistantMessage.Content
		}
	}
	return ""
}

func (ex *Executor) emit(ctx context.Context, ev events.Event) {
	if err := ex.bus.Emit(ctx, ev); err != nil {
		ex.log.Debug(ctx, "event dropped", "type", ev.Type, "error", err)
	}
}
