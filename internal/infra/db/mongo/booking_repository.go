package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	domainproperty "staybook/internal/domain/property"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

const bookingCollection = "bookings"

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

// Insert re-checks the overlap rule inside a transaction before writing,
// which is the storage-level race guard: two concurrent inserts for the
// same slot cannot both observe it free and commit.
func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	session, err := r.col.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		filter := overlapFilter(b.PropertyID, b.Range)
		filter["status"] = bson.M{"$in": []string{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}}
		count, err := r.col.CountDocuments(sc, filter)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, domainbooking.ErrUniquenessViolation
		}
		doc := newBookingDocument(b)
		doc.Version = b.Version + 1
		if _, err := r.col.InsertOne(sc, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domainbooking.ErrUniquenessViolation
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	b.Version++
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(false)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) OverlappingWindow(ctx context.Context, propertyID domainproperty.ID, window domainrange.DateRange) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}})
	cur, err := r.col.Find(ctx, overlapFilter(propertyID, window), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID user.ID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"guest_id": string(guestID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

func (r *BookingRepository) DeleteByProperty(ctx context.Context, propertyID domainproperty.ID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"property_id": string(propertyID)})
	return err
}

// overlapFilter expresses the half-open interval test in query form:
// existing.check_in < window.check_out AND existing.check_out > window.check_in.
func overlapFilter(propertyID domainproperty.ID, window domainrange.DateRange) bson.M {
	return bson.M{
		"property_id": string(propertyID),
		"check_in":    bson.M{"$lt": window.CheckOut.UnixMilli()},
		"check_out":   bson.M{"$gt": window.CheckIn.UnixMilli()},
	}
}

type bookingDocument struct {
	ID         string        `bson:"_id"`
	PropertyID string        `bson:"property_id"`
	GuestID    string        `bson:"guest_id"`
	CheckIn    int64         `bson:"check_in"`
	CheckOut   int64         `bson:"check_out"`
	Total      moneyDocument `bson:"total"`
	Status     string        `bson:"status"`
	CreatedAt  int64         `bson:"created_at"`
	UpdatedAt  int64         `bson:"updated_at"`
	Version    int64         `bson:"version"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		GuestID:    string(b.GuestID),
		CheckIn:    b.Range.CheckIn.UnixMilli(),
		CheckOut:   b.Range.CheckOut.UnixMilli(),
		Total:      moneyDocument{Amount: b.Total.Amount, Currency: b.Total.Currency},
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt.UnixMilli(),
		UpdatedAt:  b.UpdatedAt.UnixMilli(),
		Version:    b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	status := domainbooking.Status(d.Status)
	if !domainbooking.ValidStatus(status) {
		return nil, errors.New("mongo: unknown booking status " + d.Status)
	}
	return &domainbooking.Booking{
		ID:         domainbooking.ID(d.ID),
		PropertyID: domainproperty.ID(d.PropertyID),
		GuestID:    user.ID(d.GuestID),
		Range: domainrange.DateRange{
			CheckIn:  timestampToTime(d.CheckIn),
			CheckOut: timestampToTime(d.CheckOut),
		},
		Total:     money.Money{Amount: d.Total.Amount, Currency: d.Total.Currency},
		Status:    status,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}, nil
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
