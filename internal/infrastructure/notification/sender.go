// Package notification renders and delivers workflow emails.
package notification

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Message is one outgoing plain-text email
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes each message to the log and keeps nothing. It backs
// deployments without SMTP.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the envelope of msg. The body is logged at debug level only.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Email not sent, SMTP is not configured",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	s.logger.Debug("Email body", zap.String("body", msg.Body))
	return nil
}

// MemoryOutbox records messages instead of sending them. Tests use it to
// inspect what would have been sent.
type MemoryOutbox struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// NewMemoryOutbox creates an empty outbox
func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

// Send records msg, or returns the error set by FailWith
func (o *MemoryOutbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.messages = append(o.messages, msg)
	return nil
}

// FailWith makes every following Send return err. nil restores delivery.
func (o *MemoryOutbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Messages returns a copy of the recorded messages
func (o *MemoryOutbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// SentTo returns the messages addressed to recipient
func (o *MemoryOutbox) SentTo(recipient string) []Message {
	var out []Message
	for _, m := range o.Messages() {
		for _, to := range m.To {
			if strings.EqualFold(to, recipient) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Reset drops recorded messages
func (o *MemoryOutbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = nil
}

var (
	_ Sender = (*MemoryOutbox)(nil)
	_ Sender = (*LogSender)(nil)
)
