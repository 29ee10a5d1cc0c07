package webfetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// Tool is the WebFetch tool: it belongs in the Runner's concurrent
// bucket since several fetches have no ordering dependency on each
// other, matching spec.md's "sub-agent spawners, web fetches" example
// of the concurrent class.
type Tool struct {
	fetcher *Fetcher
}

// NewTool builds the WebFetch tool with a default, SSRF-gated Fetcher.
func NewTool(opts ...Option) *Tool {
	return &Tool{fetcher: NewFetcher(opts...)}
}

func (t *Tool) Name() string                            { return tools.NameWebFetch }
func (t *Tool) ConcurrencyClass() tools.ConcurrencyClass { return tools.Concurrent }

func (t *Tool) Description() string {
	return "Fetches a URL and returns its content as Markdown. Only public http/https " +
		"hosts are allowed; requests to localhost, link-local, or other private " +
		"addresses are rejected."
}

func (t *Tool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "The http(s) URL to fetch."}
		},
		"required": ["url"]
	}`)
}

type fetchInput struct {
	URL string `json:"url"`
}

func (t *Tool) Execute(ctx context.Context, callID string, argumentsJSON json.RawMessage) models.ToolResultItem {
	var input fetchInput
	if err := json.Unmarshal(argumentsJSON, &input); err != nil {
		return errResult(callID, t.Name(), fmt.Sprintf("invalid arguments: %v", err))
	}
	if input.URL == "" {
		return errResult(callID, t.Name(), "url is required")
	}

	result, err := t.fetcher.Fetch(ctx, input.URL)
	if err != nil {
		return errResult(callID, t.Name(), err.Error())
	}

	output := result.Markdown
	if result.FinalURL != "" && result.FinalURL != input.URL {
		output = fmt.Sprintf("Fetched %s (redirected from %s)\n\n%s", result.FinalURL, input.URL, output)
	}

	return models.ToolResultItem{CallID: callID, ToolName: t.Name(), Output: output, Status: models.ToolResultSuccess}
}

func errResult(callID, name, msg string) models.ToolResultItem {
	return models.ToolResultItem{CallID: callID, ToolName: name, Output: msg, Status: models.ToolResultError}
}
