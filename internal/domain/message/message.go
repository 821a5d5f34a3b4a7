package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/user"
)

var (
	ErrIDRequired        = errors.New("message: id is required")
	ErrSenderRequired    = errors.New("message: sender id is required")
	ErrRecipientRequired = errors.New("message: recipient id is required")
	ErrSelfMessage       = errors.New("message: sender and recipient must differ")
	ErrBodyRequired      = errors.New("message: body is required")
)

type ID string

type Message struct {
	ID          ID
	SenderID    user.ID
	RecipientID user.ID
	Body        string
	SentAt      time.Time
}

type Repository interface {
	Save(ctx context.Context, m *Message) error
	// ListBetween returns the conversation between two users ordered by
	// send time, oldest first.
	ListBetween(ctx context.Context, a, b user.ID) ([]*Message, error)
}

func New(id ID, sender, recipient user.ID, body string, now time.Time) (*Message, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(sender)) == "" {
		return nil, ErrSenderRequired
	}
	if strings.TrimSpace(string(recipient)) == "" {
		return nil, ErrRecipientRequired
	}
	if sender == recipient {
		return nil, ErrSelfMessage
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrBodyRequired
	}
	return &Message{
		ID:          id,
		SenderID:    sender,
		RecipientID: recipient,
		Body:        body,
		SentAt:      now.UTC(),
	}, nil
}
