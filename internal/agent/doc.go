// Package agent implements the Agent Turn Engine (C5): the outer task
// loop, the per-turn LLM stream consumer, the retry/backoff budget
// around a turn's first meaningful event, and the end-of-task metadata
// merge, per spec §4.5. Engine owns no session storage of its own — it is
// handed a sessions.Store, a tools.Runner, and an events.Bus by the
// Executor (C6) and drives them for the duration of one task.
//
// Cancellation is plain context.Context propagation rather than an
// explicit cancel() call: the Executor cancels a task's context on
// Interrupt, and Engine's RunTask/runTurn notice ctx.Err() at the same
// points the spec's cancel() would run synchronously, synthesizing the
// same cancelled-tool-result-then-InterruptItem history shape.
package agent
