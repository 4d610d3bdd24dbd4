package line

import "context"

// Message is a LINE Messaging API message object. The core only sends
// text messages.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

type Provider interface {
	Push(ctx context.Context, to string, messages []Message) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Push(ctx context.Context, to string, messages []Message) error {
	return nil
}
