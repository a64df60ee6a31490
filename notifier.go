package accounts

import (
	"context"
)

// Subjects used for outbound notifications.
const (
	SubjectVerification  = "Verification Mail"
	SubjectPasswordReset = "Password Reset"
)

// LogNotifier writes the notification to the logger instead of sending
// it anywhere. Default collaborator for development and tests.
type LogNotifier struct {
	logger Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, link string) error {
	n.logger.Info("notification to=%s subject=%q link=%s", to, subject, link)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Send(ctx context.Context, to, subject, link string) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
