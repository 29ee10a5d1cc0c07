package agent

import (
	"time"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// metadataAccumulator implements the merge rules of spec §4.5.3: token
// counters sum, context_usage_percent and model/response/provider/status
// fields last-wins, first_token_latency_ms is the min across turns, and
// throughput_tps is a weighted average by output_tokens tracked as a
// separate (weighted_sum, total_tokens) pair so it never degrades to NaN
// when no turn reports a throughput.
type metadataAccumulator struct {
	taskStart time.Time

	usage models.Usage

	contextUsagePercent  *float64
	firstTokenLatencyMs  *int64
	throughputWeightedSum float64
	throughputTotalTokens int64

	modelName   string
	provider    string
	responseID  string
	status      models.ResponseStatus
	errorReason string
	turnCount   int
}

func newMetadataAccumulator() *metadataAccumulator {
	return &metadataAccumulator{taskStart: time.Now(), status: models.StatusCompleted}
}

// mergeTurn folds one turn's ResponseMetadataItem into the running task
// total. Safe to call with nil (a turn that never produced one).
func (a *metadataAccumulator) mergeTurn(turn *models.ResponseMetadataItem) {
	if turn == nil {
		return
	}
	a.turnCount++

	if u := turn.Usage; u != nil {
		a.usage.InputTokens += u.InputTokens
		a.usage.CachedTokens += u.CachedTokens
		a.usage.OutputTokens += u.OutputTokens
		a.usage.ReasoningTokens += u.ReasoningTokens
		a.usage.TotalTokens += u.TotalTokens

		if u.ContextUsagePercent != nil {
			a.contextUsagePercent = u.ContextUsagePercent
		}
		if u.FirstTokenLatencyMs != nil {
			if a.firstTokenLatencyMs == nil || *u.FirstTokenLatencyMs < *a.firstTokenLatencyMs {
				v := *u.FirstTokenLatencyMs
				a.firstTokenLatencyMs = &v
			}
		}
		if u.ThroughputTPS != nil && u.OutputTokens > 0 {
			a.throughputWeightedSum += *u.ThroughputTPS * float64(u.OutputTokens)
			a.throughputTotalTokens += u.OutputTokens
		}
	}

	if turn.ModelName != "" {
		a.modelName = turn.ModelName
	}
	if turn.Provider != "" {
		a.provider = turn.Provider
	}
	if turn.ResponseID != "" {
		a.responseID = turn.ResponseID
	}
	a.status = turn.Status
	if turn.ErrorReason != "" {
		a.errorReason = turn.ErrorReason
	}
}

// finalize produces the task-level ResponseMetadataItem, matching the
// shape of a per-turn one (spec: "one turn's, or the task-accumulated,
// metadata").
func (a *metadataAccumulator) finalize() *models.ResponseMetadataItem {
	var tps *float64
	if a.throughputTotalTokens > 0 {
		v := a.throughputWeightedSum / float64(a.throughputTotalTokens)
		tps = &v
	}

	usage := a.usage
	usage.ContextUsagePercent = a.contextUsagePercent
	usage.FirstTokenLatencyMs = a.firstTokenLatencyMs
	usage.ThroughputTPS = tps

	return &models.ResponseMetadataItem{
		ModelName:     a.modelName,
		Provider:      a.provider,
		ResponseID:    a.responseID,
		Status:        a.status,
		ErrorReason:   a.errorReason,
		Usage:         &usage,
		TaskDurationS: time.Since(a.taskStart).Seconds(),
		TurnCount:     a.turnCount,
	}
}
