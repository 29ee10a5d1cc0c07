package agent

import (
	"context"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// ToolContext is the per-task value tools read back out of their
// Execute context, per spec §9 Design Notes: a plain value threaded
// through context.Context rather than a global, so a sub-agent's tools
// see its own session while the parent's tools see theirs.
type ToolContext struct {
	// Session is the session the currently running turn belongs to.
	Session *models.Session

	// RunSubAgent spawns a child agent task and blocks until it produces
	// its final assistant message, per spec §4.6's sub-agent spawning
	// contract. Supplied by the Executor; nil when no sub-agent spawner
	// is installed (e.g. a sub-agent's own turn, which cannot itself
	// spawn further sub-agents).
	RunSubAgent func(ctx context.Context, role Role, description, prompt string) (SubAgentResult, error)

	// ExitPlanMode signals the Executor to replace the session's active
	// Profile with its non-planning counterpart. Nil outside plan mode.
	ExitPlanMode func(ctx context.Context) error
}

// SubAgentResult is what a completed Task/Oracle child run hands back to
// the caller of RunSubAgent: its final reply plus the task-level metadata
// the Engine accumulated, so the caller can report runtime/token stats.
type SubAgentResult struct {
	Message    string
	SessionKey string
	Metadata   *models.ResponseMetadataItem
}

type toolContextKey struct{}

// WithToolContext attaches tc to ctx for the tool invocations it covers.
func WithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	if tc == nil {
		return ctx
	}
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFromContext retrieves the ToolContext WithToolContext
// attached, if any.
func ToolContextFromContext(ctx context.Context) (*ToolContext, bool) {
	tc, ok := ctx.Value(toolContextKey{}).(*ToolContext)
	return tc, ok
}
