package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

var (
	ErrIDRequired    = errors.New("property: id is required")
	ErrHostRequired  = errors.New("property: host id is required")
	ErrTitleRequired = errors.New("property: title is required")
	ErrInvalidRate   = errors.New("property: nightly rate must be positive")
	ErrNotFound      = errors.New("property: not found")
)

type ID string

type Address struct {
	Line1   string
	City    string
	Country string
}

type Property struct {
	ID          ID
	HostID      user.ID
	Title       string
	Description string
	Address     Address
	NightlyRate money.Money
	PhotoURLs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, property *Property) error
	// Delete removes the property together with its bookings and
	// reviews; the property transitively owns both.
	Delete(ctx context.Context, id ID) error
}

type CreateParams struct {
	ID          ID
	HostID      user.ID
	Title       string
	Description string
	Address     Address
	NightlyRate money.Money
	CreatedAt   time.Time
}

func NewProperty(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.HostID)) == "" {
		return nil, ErrHostRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !params.NightlyRate.IsPositive() {
		return nil, ErrInvalidRate
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Property{
		ID:          params.ID,
		HostID:      params.HostID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Address:     params.Address,
		NightlyRate: params.NightlyRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Property) ChangeRate(rate money.Money, now time.Time) error {
	if !rate.IsPositive() {
		return ErrInvalidRate
	}
	p.NightlyRate = rate
	p.touch(now)
	return nil
}

func (p *Property) AttachPhoto(url string, now time.Time) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	p.PhotoURLs = append(p.PhotoURLs, url)
	p.touch(now)
}

func (p *Property) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	p.UpdatedAt = now.UTC()
}
