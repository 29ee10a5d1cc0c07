package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentcore/internal/agent"
	"github.com/haasonsaas/agentcore/internal/config"
	"github.com/haasonsaas/agentcore/internal/events"
	"github.com/haasonsaas/agentcore/internal/executor"
	"github.com/haasonsaas/agentcore/internal/llm"
	"github.com/haasonsaas/agentcore/internal/observability"
	"github.com/haasonsaas/agentcore/internal/reminders"
	"github.com/haasonsaas/agentcore/internal/sessions"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/internal/tools/bashtool"
	"github.com/haasonsaas/agentcore/internal/tools/files"
	"github.com/haasonsaas/agentcore/internal/tools/plan"
	"github.com/haasonsaas/agentcore/internal/tools/subagent"
	"github.com/haasonsaas/agentcore/internal/tools/webfetch"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// runOptions holds the flags buildRunCmd exposes. selectModel and ui are
// accepted per spec §6.4 ("handled outside core; listed for context") but
// --ui tui is not backed by a real terminal UI: the Non-goals exclude UI
// layout entirely, so "tui" degrades to the same stdout renderer as
// "stdout" with a one-line notice.
type runOptions struct {
	configPath  string
	workspace   string
	selectModel string
	cont        bool
	resume      string
	ui          string
}

func buildRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive session against the Agent Turn Engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to agentcore.yaml (default: "+defaultConfigPath()+")")
	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "workspace directory (default: current directory)")
	cmd.Flags().StringVar(&opts.selectModel, "select-model", "", "model name to use for the main session")
	cmd.Flags().BoolVar(&opts.cont, "continue", false, "resume the most recently updated session in this workspace")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "resume a specific session id")
	cmd.Flags().StringVar(&opts.ui, "ui", "stdout", "output renderer: stdout or tui")
	return cmd
}

func defaultConfigPath() string {
	return "agentcore.yaml"
}

// writeDefaultConfig writes a minimal config document to a temp file so
// config.Load's default/env-override pipeline still runs when no project
// config exists.
func writeDefaultConfig() (string, error) {
	f, err := os.CreateTemp("", "agentcore-config-*.yaml")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString("version: 1\n"); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func runRepl(ctx context.Context, opts *runOptions) error {
	workDir := opts.workspace
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		workDir = cwd
	}
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return fmt.Errorf("resolve workspace path: %w", err)
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = filepath.Join(absWorkDir, defaultConfigPath())
	}
	if _, statErr := os.Stat(configPath); statErr != nil {
		// No project config present; fall back to an all-defaults config
		// rather than failing the session outright, since this file is
		// optional the way the teacher's nexus.yaml is.
		fallback, tmpErr := writeDefaultConfig()
		if tmpErr != nil {
			return fmt.Errorf("prepare default config: %w", tmpErr)
		}
		defer os.Remove(fallback)
		configPath = fallback
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if absWorkDir != "" {
		cfg.Workspace.Path = absWorkDir
	}

	logger := observability.MustNewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	store, err := sessions.NewFileStore(sessions.BaseDir(home, absWorkDir), logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	registry := buildRegistry(cfg, absWorkDir)
	runner := tools.NewRunner(registry)
	bus := events.NewBus(events.DefaultBufferSize)
	engine := agent.NewEngine(store, runner, bus, logger, cfg.Agent)

	defaultModel := cfg.LLM.DefaultModel
	if opts.selectModel != "" {
		defaultModel = opts.selectModel
	}
	if defaultModel == "" {
		defaultModel = "mock-model"
	}

	// No Non-goal of this spec covers a real provider integration
	// (spec.md's Non-goals: "no LLM provider implementation beyond the
	// abstract streaming contract"); every model name resolves to a
	// scripted MockClient that echoes the user's turn back as a single
	// assistant message, which is enough to drive the Executor/Engine/Bus
	// loop end to end from a terminal.
	resolveClient := func(modelName string) (llm.Client, error) {
		return llm.NewMockClient(modelName, []llm.StreamItem{
			{Type: llm.ItemStart, Start: &llm.StartPayload{ResponseID: uuid.NewString()}},
			{Type: llm.ItemAssistantMessage, AssistantMessage: &llm.AssistantPayload{
				Content: "(no LLM provider configured; echoing input)",
			}},
			{Type: llm.ItemResponseMetadata, ResponseMetadata: &models.ResponseMetadataItem{
				Status: models.StatusCompleted,
			}},
		}), nil
	}

	ex := executor.New(engine, executor.Options{
		Store:         store,
		Registry:      registry,
		Bus:           bus,
		Logger:        logger,
		ResolveClient: resolveClient,
		DefaultModel:  defaultModel,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go ex.Run(runCtx)

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	renderDone := make(chan struct{})
	renderer := newEventRenderer(opts.ui, os.Stdout)
	go func() {
		defer close(renderDone)
		renderer.run(bus)
	}()

	sessionID := resolveSessionID(ctx, store, opts)
	initSub, err := ex.Submit(runCtx, executor.Operation{
		Type: executor.OpInit,
		Init: &executor.InitOp{SessionID: sessionID, WorkDir: absWorkDir},
	})
	if err != nil {
		return fmt.Errorf("submit init: %w", err)
	}
	if err := initSub.Wait(runCtx); err != nil {
		return fmt.Errorf("init session: %w", err)
	}
	bus.WaitDrained(runCtx)

	repl := &replLoop{
		ex:        ex,
		bus:       bus,
		sessionID: sessionID,
		out:       os.Stdout,
		in:        bufio.NewScanner(os.Stdin),
	}
	repl.run(sigCtx)

	cancelRun()
	bus.Close()
	<-renderDone
	return nil
}

// resolveSessionID honors --resume/--continue, falling back to a fresh
// random session id (spec §6.4's exit/resume surface is "handled outside
// core"; this is the minimal command-surface equivalent).
func resolveSessionID(ctx context.Context, store sessions.Store, opts *runOptions) string {
	if opts.resume != "" {
		return opts.resume
	}
	if opts.cont {
		if id, err := store.MostRecentSessionID(ctx); err == nil && id != "" {
			return id
		}
	}
	return uuid.NewString()
}

func buildRegistry(cfg *config.Config, workDir string) *tools.Registry {
	registry := tools.NewRegistry()

	filesCfg := files.Config{Workspace: workDir}
	registry.Register(files.NewReadTool(filesCfg))
	registry.Register(files.NewEditTool(filesCfg))
	registry.Register(files.NewMultiEditTool(filesCfg))
	registry.Register(files.NewWriteTool(filesCfg))
	registry.Register(files.NewLsTool(filesCfg))

	registry.Register(bashtool.New(bashtool.Config{Workspace: workDir}))
	registry.Register(webfetch.NewTool())
	registry.Register(subagent.NewTaskTool())
	registry.Register(subagent.NewOracleTool())
	registry.Register(plan.NewTodoWriteTool())
	registry.Register(plan.NewUpdatePlanTool())

	reminders.SetFileAccess(files.NewAccess(filesCfg))
	return registry
}

// replLoop reads stdin lines and turns them into Executor submissions,
// recognizing the exit conditions and slash commands spec §6.4 lists as
// "handled outside core".
type replLoop struct {
	ex        *executor.Executor
	bus       *events.Bus
	sessionID string
	out       *os.File
	in        *bufio.Scanner
}

func (r *replLoop) run(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for r.in.Scan() {
			lines <- r.in.Text()
		}
	}()

	fmt.Fprint(r.out, "> ")
	for {
		select {
		case <-ctx.Done():
			// Ctrl-C or SIGTERM: cancel whatever turn is currently
			// running for this session rather than leaving it to be
			// torn down only when the process exits.
			interruptCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			if sub, err := r.ex.Submit(interruptCtx, executor.Operation{
				Type:      executor.OpInterrupt,
				Interrupt: &executor.InterruptOp{TargetSessionID: r.sessionID},
			}); err == nil {
				sub.Wait(interruptCtx)
			}
			cancel()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if r.handleLine(ctx, line) {
				return
			}
			fmt.Fprint(r.out, "> ")
		}
	}
}

// handleLine processes one line of input and reports whether the REPL
// should exit.
func (r *replLoop) handleLine(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "exit", "quit", ":q":
		return true
	case "":
		return false
	}

	if strings.HasPrefix(trimmed, "/") {
		r.handleSlashCommand(trimmed)
		return false
	}

	sub, err := r.ex.Submit(ctx, executor.Operation{
		Type:      executor.OpUserInput,
		UserInput: &executor.UserInputOp{SessionID: r.sessionID, Text: trimmed},
	})
	if err != nil {
		fmt.Fprintf(r.out, "submit failed: %v\n", err)
		return false
	}
	if err := sub.Wait(ctx); err != nil {
		fmt.Fprintf(r.out, "turn failed: %v\n", err)
	}
	r.bus.WaitDrained(ctx)
	return false
}

// handleSlashCommand dispatches the commands spec §6.4 names explicitly;
// none of them reach the Agent. Most are stubs here since the command
// subsystem they'd otherwise belong to is out of scope for this entry
// point (no UI layout per Non-goals).
func (r *replLoop) handleSlashCommand(cmd string) {
	name, _, _ := strings.Cut(cmd, " ")
	switch name {
	case "/help":
		fmt.Fprintln(r.out, "commands: /help /clear /model /export /status /debug /cost, or exit/quit/:q")
	case "/status":
		fmt.Fprintf(r.out, "session %s\n", r.sessionID)
	case "/clear", "/export", "/model", "/debug", "/cost":
		fmt.Fprintf(r.out, "%s is not implemented by this entry point\n", name)
	default:
		fmt.Fprintf(r.out, "unknown command %s\n", name)
	}
}
