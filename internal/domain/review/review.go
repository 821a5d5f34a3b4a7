package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/user"
)

var (
	ErrIDRequired       = errors.New("review: id is required")
	ErrAuthorRequired   = errors.New("review: author id is required")
	ErrPropertyRequired = errors.New("review: property id is required")
	ErrRatingOutOfRange = errors.New("review: rating must be between 1 and 5")
	ErrCommentRequired  = errors.New("review: comment is required")
	// ErrDuplicate enforces at most one review per (author, property).
	ErrDuplicate = errors.New("review: author already reviewed this property")
	ErrNotFound  = errors.New("review: not found")
)

type ID string

type Review struct {
	ID         ID
	PropertyID property.ID
	AuthorID   user.ID
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

type Repository interface {
	ByAuthorAndProperty(ctx context.Context, authorID user.ID, propertyID property.ID) (*Review, error)
	// Save fails with ErrDuplicate when the author already reviewed the property.
	Save(ctx context.Context, r *Review) error
	ListByProperty(ctx context.Context, propertyID property.ID) ([]*Review, error)
	DeleteByProperty(ctx context.Context, propertyID property.ID) error
}

// New validates the review invariants. The "author had a completed stay"
// precondition is checked by the caller, not here.
func New(id ID, propertyID property.ID, authorID user.ID, rating int, comment string, now time.Time) (*Review, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(propertyID)) == "" {
		return nil, ErrPropertyRequired
	}
	if strings.TrimSpace(string(authorID)) == "" {
		return nil, ErrAuthorRequired
	}
	if rating < 1 || rating > 5 {
		return nil, ErrRatingOutOfRange
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrCommentRequired
	}
	return &Review{
		ID:         id,
		PropertyID: propertyID,
		AuthorID:   authorID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  now.UTC(),
	}, nil
}
