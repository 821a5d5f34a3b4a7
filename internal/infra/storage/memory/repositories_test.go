package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "staybook/internal/domain/booking"
	domainmessage "staybook/internal/domain/message"
	domainpayment "staybook/internal/domain/payment"
	domainproperty "staybook/internal/domain/property"
	domainreview "staybook/internal/domain/review"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

var now = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, from, to int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(day(from), day(to))
	require.NoError(t, err)
	return dr
}

func newBooking(t *testing.T, id string, propertyID domainproperty.ID, from, to int) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.ID(id),
		PropertyID: propertyID,
		GuestID:    "g-1",
		Range:      mustRange(t, from, to),
		Total:      money.Must(10000, "EUR"),
		CreatedAt:  now,
	})
	require.NoError(t, err)
	return b
}

func TestBookingRepositoryInsert(t *testing.T) {
	t.Run("rejects overlapping blocking bookings", func(t *testing.T) {
		repo := NewBookingRepository()
		repo.Clock = clock.Fixed(now)

		require.NoError(t, repo.Insert(context.Background(), newBooking(t, "b-1", "p-1", 10, 14)))
		err := repo.Insert(context.Background(), newBooking(t, "b-2", "p-1", 12, 16))
		assert.ErrorIs(t, err, domainbooking.ErrUniquenessViolation)
	})

	t.Run("adjacent bookings coexist", func(t *testing.T) {
		repo := NewBookingRepository()
		repo.Clock = clock.Fixed(now)

		require.NoError(t, repo.Insert(context.Background(), newBooking(t, "b-1", "p-1", 10, 14)))
		assert.NoError(t, repo.Insert(context.Background(), newBooking(t, "b-2", "p-1", 14, 18)))
	})

	t.Run("other properties never conflict", func(t *testing.T) {
		repo := NewBookingRepository()
		repo.Clock = clock.Fixed(now)

		require.NoError(t, repo.Insert(context.Background(), newBooking(t, "b-1", "p-1", 10, 14)))
		assert.NoError(t, repo.Insert(context.Background(), newBooking(t, "b-2", "p-2", 10, 14)))
	})

	t.Run("cancelled booking frees the slot", func(t *testing.T) {
		repo := NewBookingRepository()
		repo.Clock = clock.Fixed(now)

		b := newBooking(t, "b-1", "p-1", 10, 14)
		require.NoError(t, repo.Insert(context.Background(), b))
		require.NoError(t, b.Cancel("g-1", now))
		require.NoError(t, repo.Save(context.Background(), b))

		assert.NoError(t, repo.Insert(context.Background(), newBooking(t, "b-2", "p-1", 10, 14)))
	})

	t.Run("expired pending hold frees the slot", func(t *testing.T) {
		repo := NewBookingRepository()
		repo.Clock = clock.Fixed(now.Add(2 * time.Hour))
		repo.HoldTTL = time.Hour

		require.NoError(t, repo.Insert(context.Background(), newBooking(t, "b-1", "p-1", 10, 14)))
		assert.NoError(t, repo.Insert(context.Background(), newBooking(t, "b-2", "p-1", 10, 14)))
	})
}

func TestBookingRepositorySave(t *testing.T) {
	repo := NewBookingRepository()
	repo.Clock = clock.Fixed(now)

	b := newBooking(t, "b-1", "p-1", 10, 14)
	assert.ErrorIs(t, repo.Save(context.Background(), b), domainbooking.ErrNotFound)

	require.NoError(t, repo.Insert(context.Background(), b))
	versionAfterInsert := b.Version
	require.NoError(t, repo.Save(context.Background(), b))
	assert.Equal(t, versionAfterInsert+1, b.Version)
}

func TestBookingRepositoryOverlappingWindow(t *testing.T) {
	repo := NewBookingRepository()
	repo.Clock = clock.Fixed(now)

	require.NoError(t, repo.Insert(context.Background(), newBooking(t, "late", "p-1", 20, 24)))
	require.NoError(t, repo.Insert(context.Background(), newBooking(t, "early", "p-1", 5, 9)))
	require.NoError(t, repo.Insert(context.Background(), newBooking(t, "other", "p-2", 5, 9)))

	matches, err := repo.OverlappingWindow(context.Background(), "p-1", mustRange(t, 1, 30))
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, domainbooking.ID("early"), matches[0].ID)
	assert.Equal(t, domainbooking.ID("late"), matches[1].ID)

	matches, err = repo.OverlappingWindow(context.Background(), "p-1", mustRange(t, 9, 20))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPropertyRepositoryDeleteCascades(t *testing.T) {
	bookings := NewBookingRepository()
	bookings.Clock = clock.Fixed(now)
	reviews := NewReviewRepository()
	properties := NewPropertyRepository()
	properties.Bookings = bookings
	properties.Reviews = reviews

	prop, err := domainproperty.NewProperty(domainproperty.CreateParams{
		ID:          "p-1",
		HostID:      "h-1",
		Title:       "Canal loft",
		NightlyRate: money.Must(10000, "EUR"),
		CreatedAt:   now,
	})
	require.NoError(t, err)
	require.NoError(t, properties.Save(context.Background(), prop))
	require.NoError(t, bookings.Insert(context.Background(), newBooking(t, "b-1", "p-1", 10, 14)))

	review, err := domainreview.New("r-1", "p-1", "g-1", 5, "lovely stay", now)
	require.NoError(t, err)
	require.NoError(t, reviews.Save(context.Background(), review))

	require.NoError(t, properties.Delete(context.Background(), "p-1"))

	_, err = properties.ByID(context.Background(), "p-1")
	assert.ErrorIs(t, err, domainproperty.ErrNotFound)
	_, err = bookings.ByID(context.Background(), "b-1")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
	listed, err := reviews.ListByProperty(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.ErrorIs(t, properties.Delete(context.Background(), "p-1"), domainproperty.ErrNotFound)
}

func TestPaymentRepositoryUniquePerBooking(t *testing.T) {
	repo := NewPaymentRepository()

	p, err := domainpayment.New("pay-1", "b-1", money.Must(40000, "EUR"), domainpayment.MethodCreditCard, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))

	dup, err := domainpayment.New("pay-2", "b-1", money.Must(40000, "EUR"), domainpayment.MethodPayPal, now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(context.Background(), dup), domainpayment.ErrDuplicate)

	stored, err := repo.ByBooking(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayment.ID("pay-1"), stored.ID)

	_, err = repo.ByBooking(context.Background(), "b-2")
	assert.ErrorIs(t, err, domainpayment.ErrNotFound)
}

func TestReviewRepositoryUniquePerAuthorAndProperty(t *testing.T) {
	repo := NewReviewRepository()

	first, err := domainreview.New("r-1", "p-1", "g-1", 4, "nice", now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), first))

	dup, err := domainreview.New("r-2", "p-1", "g-1", 2, "changed my mind", now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(context.Background(), dup), domainreview.ErrDuplicate)

	other, err := domainreview.New("r-3", "p-1", "g-2", 5, "great", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), other))

	listed, err := repo.ListByProperty(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, domainreview.ID("r-3"), listed[0].ID, "newest first")
}

func TestUserRepositoryUniqueEmail(t *testing.T) {
	repo := NewUserRepository()

	alice, err := user.NewUser(user.CreateParams{
		ID:           "u-1",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		CreatedAt:    now,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), alice))

	clone, err := user.NewUser(user.CreateParams{
		ID:           "u-2",
		Email:        "ALICE@example.com",
		Name:         "Other Alice",
		PasswordHash: "hash",
		CreatedAt:    now,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(context.Background(), clone), user.ErrEmailAlreadyUsed)

	found, err := repo.ByEmail(context.Background(), "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID("u-1"), found.ID)

	// re-saving the same user is an update, not a conflict
	assert.NoError(t, repo.Save(context.Background(), alice))
}

func TestMessageRepositoryListBetween(t *testing.T) {
	repo := NewMessageRepository()

	send := func(id string, from, to user.ID, at time.Time) {
		m, err := domainmessage.New(domainmessage.ID(id), from, to, "hello", at)
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), m))
	}
	send("m-2", "u-2", "u-1", now.Add(time.Minute))
	send("m-1", "u-1", "u-2", now)
	send("m-3", "u-1", "u-3", now)

	conv, err := repo.ListBetween(context.Background(), "u-1", "u-2")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, domainmessage.ID("m-1"), conv[0].ID, "oldest first")
	assert.Equal(t, domainmessage.ID("m-2"), conv[1].ID)
}
