// Package contextmgr keeps the message list of one LLM exchange: prior
// conversation turns plus the tool calls and results of the turn in progress.
package contextmgr

import (
	"fmt"
	"strings"

	"github.com/gupta362/pm-agent-v2/pkg/utils"
)

// Roles used in the exchange.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolCall is a tool invocation requested by the assistant.
type ToolCall struct {
	ID         string
	Name       string
	Parameters map[string]any
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Message is a single entry in the exchange.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ContextManager accumulates exchange messages. User text and tool results are
// buffered and become one user message at FlushUserBuffer, so the message list
// always alternates user and assistant.
type ContextManager struct {
	messages       []Message
	userBuffer     []string
	pendingResults []ToolResult
	counter        *utils.TokenCounter
}

// NewContextManager creates an empty context manager.
func NewContextManager() *ContextManager {
	return &ContextManager{messages: make([]Message, 0)}
}

// NewContextManagerWithCounter creates a context manager that counts tokens with counter.
func NewContextManagerWithCounter(counter *utils.TokenCounter) *ContextManager {
	cm := NewContextManager()
	cm.counter = counter
	return cm
}

// AddMessage adds a message. User content is buffered until FlushUserBuffer;
// other roles are appended directly.
func (cm *ContextManager) AddMessage(role, content string) {
	content = strings.TrimSpace(content)
	if role == RoleUser {
		if content != "" {
			cm.userBuffer = append(cm.userBuffer, content)
		}
		return
	}
	cm.messages = append(cm.messages, Message{Role: role, Content: content})
}

// AddAssistantMessage appends an assistant message with text only.
func (cm *ContextManager) AddAssistantMessage(content string) {
	cm.AddMessage(RoleAssistant, content)
}

// AddAssistantMessageWithTools appends an assistant message carrying tool calls.
func (cm *ContextManager) AddAssistantMessageWithTools(content string, calls []ToolCall) {
	cm.messages = append(cm.messages, Message{
		Role:      RoleAssistant,
		Content:   strings.TrimSpace(content),
		ToolCalls: append([]ToolCall(nil), calls...),
	})
}

// AddToolResult buffers the result of a tool call.
func (cm *ContextManager) AddToolResult(toolCallID, content string, isError bool) {
	cm.pendingResults = append(cm.pendingResults, ToolResult{ToolCallID: toolCallID, Content: content, IsError: isError})
}

// FlushUserBuffer turns buffered tool results and user text into a single user message.
func (cm *ContextManager) FlushUserBuffer() error {
	if len(cm.userBuffer) == 0 && len(cm.pendingResults) == 0 {
		return nil
	}
	if len(cm.pendingResults) > 0 && !cm.lastAssistantHasCalls() {
		return fmt.Errorf("%d tool result(s) pending without a preceding tool call", len(cm.pendingResults))
	}
	cm.messages = append(cm.messages, Message{
		Role:        RoleUser,
		Content:     strings.Join(cm.userBuffer, "\n\n"),
		ToolResults: cm.pendingResults,
	})
	cm.userBuffer = nil
	cm.pendingResults = nil
	return nil
}

func (cm *ContextManager) lastAssistantHasCalls() bool {
	if len(cm.messages) == 0 {
		return false
	}
	last := cm.messages[len(cm.messages)-1]
	return last.Role == RoleAssistant && len(last.ToolCalls) > 0
}

// GetMessages returns a copy of the flushed messages.
func (cm *ContextManager) GetMessages() []Message {
	return append([]Message(nil), cm.messages...)
}

// GetMessageCount returns the number of flushed messages.
func (cm *ContextManager) GetMessageCount() int {
	return len(cm.messages)
}

// CountTokens estimates the size of the flushed messages.
func (cm *ContextManager) CountTokens() int {
	total := 0
	for i := range cm.messages {
		msg := &cm.messages[i]
		total += cm.counter.CountTokens(msg.Content)
		for _, call := range msg.ToolCalls {
			total += cm.counter.CountTokens(call.Name + fmt.Sprint(call.Parameters))
		}
		for _, res := range msg.ToolResults {
			total += cm.counter.CountTokens(res.Content)
		}
	}
	return total
}

// GetContextSummary returns a one-line description for logs.
func (cm *ContextManager) GetContextSummary() string {
	calls, results := 0, 0
	for i := range cm.messages {
		calls += len(cm.messages[i].ToolCalls)
		results += len(cm.messages[i].ToolResults)
	}
	return fmt.Sprintf("%d messages, %d tool calls, %d tool results, ~%d tokens", len(cm.messages), calls, results, cm.CountTokens())
}

// Clear removes all messages and buffered input.
func (cm *ContextManager) Clear() {
	cm.messages = make([]Message, 0)
	cm.userBuffer = nil
	cm.pendingResults = nil
}
