package llm

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages assembles a chat request: system prompt, prior history,
// then the current user message.
func FormatMessages(systemPrompt string, current string, history []Message) []Message {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, SystemPrompt(systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, UserMessage(current))
	return messages
}
