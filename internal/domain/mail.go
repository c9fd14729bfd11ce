package domain

import "context"

// Email is a single outgoing HTML message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers transactional email.
type Notifier interface {
	Send(ctx context.Context, email Email) error
}
