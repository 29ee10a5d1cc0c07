package tools

// Canonical tool names. Reminder and safety logic match on these rather
// than re-deriving them from each Tool's Name() method, since several
// packages need to recognize a call by name before a Registry exists
// (e.g. reminders inspecting session history that may be replayed
// without a live Registry).
const (
	NameRead       = "Read"
	NameEdit       = "Edit"
	NameMultiEdit  = "MultiEdit"
	NameWrite      = "Write"
	NameLs         = "Ls"
	NameBash       = "Bash"
	NameTodoWrite  = "TodoWrite"
	NameUpdatePlan = "UpdatePlan"
	NameTask       = "Task"
	NameOracle     = "Oracle"
	NameWebFetch   = "WebFetch"
)
