package executor

import (
	"github.com/haasonsaas/agentcore/internal/events"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// replayEvents translates a resumed session's history into the same
// event shapes a live run would have emitted, so a UI that only knows
// how to render events can catch up on a reload without a second
// rendering path.
func replayEvents(session *models.Session) []events.Event {
	var out []events.Event
	var responseID string

	for _, item := range session.ConversationHistory {
		switch item.Type {
		case models.ItemUserMessage:
			if item.UserMessage != nil {
				out = append(out, events.Event{
					Type: events.UserMessage,
					UserMessage: &events.UserMessagePayload{
						SessionID: session.ID, Content: item.UserMessage.Content, Images: item.UserMessage.Images,
					},
				})
			}
		case models.ItemDeveloperMessage:
			if item.DeveloperMessage != nil {
				out = append(out, events.Event{
					Type: events.DeveloperMessage,
					DeveloperMessage: &events.DeveloperMessagePayload{
						SessionID: session.ID, Item: *item.DeveloperMessage,
					},
				})
			}
		case models.ItemReasoningText:
			if item.ReasoningText != nil {
				responseID = item.ReasoningText.ResponseID
				out = append(out, events.Event{
					Type: events.Thinking,
					Thinking: &events.ThinkingPayload{
						SessionID: session.ID, ResponseID: responseID, Content: item.ReasoningText.Content,
					},
				})
			}
		case models.ItemAssistantMessage:
			if item.AssistantMessage != nil {
				responseID = item.AssistantMessage.ResponseID
				out = append(out, events.Event{
					Type: events.AssistantMessage,
					AssistantMessage: &events.AssistantMessagePayload{
						SessionID: session.ID, ResponseID: responseID,
						Content: item.AssistantMessage.Content, Annotations: item.AssistantMessage.Annotations,
					},
				})
			}
		case models.ItemToolCall:
			if item.ToolCall != nil {
				out = append(out, events.Event{
					Type: events.ToolCall,
					ToolCall: &events.ToolCallPayload{
						SessionID: session.ID, ResponseID: item.ToolCall.ResponseID,
						ToolCallID: item.ToolCall.CallID, ToolName: item.ToolCall.Name, Arguments: item.ToolCall.ArgumentsRaw,
					},
				})
			}
		case models.ItemToolResult:
			if item.ToolResult != nil {
				out = append(out, events.Event{
					Type: events.ToolResult,
					ToolResult: &events.ToolResultPayload{
						SessionID: session.ID, ToolCallID: item.ToolResult.CallID, ToolName: item.ToolResult.ToolName,
						Result: item.ToolResult.Output, Status: item.ToolResult.Status, UIExtra: item.ToolResult.UIExtra,
					},
				})
			}
		case models.ItemResponseMetadata:
			if item.ResponseMetadata != nil {
				out = append(out, events.Event{
					Type: events.ResponseMetadata,
					ResponseMetadata: &events.ResponseMetadataPayload{
						SessionID: session.ID, Metadata: *item.ResponseMetadata,
					},
				})
			}
		case models.ItemInterrupt:
			out = append(out, events.Event{Type: events.Interrupt, Interrupt: &events.SessionPayload{SessionID: session.ID}})
		}
	}

	return out
}
