package executor

import "github.com/haasonsaas/agentcore/pkg/models"

// OperationType discriminates the Operation sum type queued into the
// Executor, matching spec §3.5 exactly.
type OperationType string

const (
	OpInit        OperationType = "init"
	OpUserInput   OperationType = "user_input"
	OpInterrupt   OperationType = "interrupt"
	OpChangeModel OperationType = "change_model"
	OpEnd         OperationType = "end"
)

// Operation is the tagged sum of everything a caller can submit to the
// Executor's run loop. Exactly one payload field is populated.
type Operation struct {
	Type OperationType

	Init        *InitOp
	UserInput   *UserInputOp
	Interrupt   *InterruptOp
	ChangeModel *ChangeModelOp
}

// InitOp loads or creates a session and emits its replay + welcome.
type InitOp struct {
	SessionID string
	WorkDir   string
}

// UserInputOp dispatches one user turn against an existing session.
type UserInputOp struct {
	SessionID string
	Text      string
	Images    []models.ImagePart
}

// InterruptOp cancels inflight work. TargetSessionID == "" means "all".
type InterruptOp struct {
	TargetSessionID string
}

// ChangeModelOp swaps the active LLM client for a session's Profile.
type ChangeModelOp struct {
	SessionID string
	ModelName string
}
