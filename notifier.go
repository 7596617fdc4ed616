package auth

import "context"

// LogEmailSender is a development EmailSender that writes the verification
// link material to the log instead of delivering mail.
type LogEmailSender struct {
	logger Logger
}

func NewLogEmailSender(logger Logger) *LogEmailSender {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogEmailSender{logger: logger}
}

var _ EmailSender = (*LogEmailSender)(nil)

func (s *LogEmailSender) SendVerification(ctx context.Context, user *User, token string) error {
	if user == nil {
		return nil
	}
	s.logger.Info("verification email", "email", user.Email, "token", token)
	return nil
}

// EmailSenderFunc adapts a function to the EmailSender interface.
type EmailSenderFunc func(ctx context.Context, user *User, token string) error

func (f EmailSenderFunc) SendVerification(ctx context.Context, user *User, token string) error {
	if f == nil {
		return nil
	}
	return f(ctx, user, token)
}
