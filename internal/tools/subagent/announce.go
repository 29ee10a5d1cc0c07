package subagent

import (
	"fmt"
	"strings"
	"time"
)

// StatsLine holds the fields the Task/Oracle tools report back to the
// parent agent after a sub-agent run finishes, formatted by BuildStatsLine.
type StatsLine struct {
	Runtime      string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Cost         float64
	SessionKey   string
}

// FormatDurationShort formats a duration the way a sub-agent stats line
// does: "45s", "3m25s", "2h15m". Non-positive durations are "n/a".
func FormatDurationShort(d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}

	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// FormatTokenCount formats a token count with k/m suffixes.
func FormatTokenCount(count int) string {
	if count <= 0 {
		return "0"
	}
	if count >= 1_000_000 {
		return fmt.Sprintf("%.1fm", float64(count)/1_000_000)
	}
	if count >= 1_000 {
		return fmt.Sprintf("%.1fk", float64(count)/1_000)
	}
	return fmt.Sprintf("%d", count)
}

// FormatUSD formats a cost estimate as USD, or "" when there's nothing
// worth reporting.
func FormatUSD(amount float64) string {
	if amount <= 0 {
		return ""
	}
	if amount >= 0.01 {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("$%.4f", amount)
}

// BuildStatsLine renders a one-line summary of a finished sub-agent run,
// appended to the Task/Oracle tool result so the parent agent (and a
// human reading the transcript) can see what the delegation cost.
func BuildStatsLine(stats *StatsLine) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("runtime %s", stats.Runtime))

	if stats.TotalTokens > 0 {
		inputText := FormatTokenCount(stats.InputTokens)
		outputText := FormatTokenCount(stats.OutputTokens)
		totalText := FormatTokenCount(stats.TotalTokens)
		parts = append(parts, fmt.Sprintf("tokens %s (in %s / out %s)", totalText, inputText, outputText))
	} else {
		parts = append(parts, "tokens n/a")
	}

	if costText := FormatUSD(stats.Cost); costText != "" {
		parts = append(parts, fmt.Sprintf("est %s", costText))
	}

	parts = append(parts, fmt.Sprintf("sessionKey %s", stats.SessionKey))

	return "Stats: " + strings.Join(parts, " • ")
}

// SubagentSystemPromptParams parameterizes BuildSubagentSystemPrompt.
type SubagentSystemPromptParams struct {
	RequesterSessionKey string
	ChildSessionKey     string
	Label               string
	Task                string
}

// BuildSubagentSystemPrompt builds the system prompt prefix a Task/Oracle
// child session runs under, explaining its place in the hierarchy so it
// doesn't try to act like the main agent.
func BuildSubagentSystemPrompt(params SubagentSystemPromptParams) string {
	taskText := params.Task
	if taskText == "" {
		taskText = "{{TASK_DESCRIPTION}}"
	}

	var lines []string
	lines = append(lines, "# Subagent Context")
	lines = append(lines, "")
	lines = append(lines, "You are a **subagent** spawned by the main agent for a specific task.")
	lines = append(lines, "")
	lines = append(lines, "## Your Role")
	lines = append(lines, fmt.Sprintf("- You were created to handle: %s", taskText))
	lines = append(lines, "- Complete this task. That's your entire purpose.")
	lines = append(lines, "- You are NOT the main agent. Don't try to be.")
	lines = append(lines, "")
	lines = append(lines, "## Rules")
	lines = append(lines, "1. **Stay focused** - Do your assigned task, nothing else")
	lines = append(lines, "2. **Complete the task** - Your final message will be automatically reported to the main agent")
	lines = append(lines, "3. **Don't initiate** - No heartbeats, no proactive actions, no side quests")
	lines = append(lines, "4. **Be ephemeral** - You may be terminated after task completion. That's fine.")
	lines = append(lines, "")
	lines = append(lines, "## Output Format")
	lines = append(lines, "When complete, your final response should include:")
	lines = append(lines, "- What you accomplished or found")
	lines = append(lines, "- Any relevant details the main agent should know")
	lines = append(lines, "- Keep it concise but informative")
	lines = append(lines, "")
	lines = append(lines, "## What You DON'T Do")
	lines = append(lines, "- NO user conversations (that's main agent's job)")
	lines = append(lines, "- NO external messages (email, tweets, etc.) unless explicitly tasked")
	lines = append(lines, "- NO cron jobs or persistent state")
	lines = append(lines, "- NO pretending to be the main agent")
	lines = append(lines, "- NO using the `message` tool directly")
	lines = append(lines, "")
	lines = append(lines, "## Session Context")

	if params.Label != "" {
		lines = append(lines, fmt.Sprintf("- Label: %s", params.Label))
	}
	if params.RequesterSessionKey != "" {
		lines = append(lines, fmt.Sprintf("- Requester session: %s.", params.RequesterSessionKey))
	}
	lines = append(lines, fmt.Sprintf("- Your session: %s.", params.ChildSessionKey))
	lines = append(lines, "")

	return strings.Join(lines, "\n")
}
