package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staybook/internal/domain/booking"
	domainpayment "staybook/internal/domain/payment"
	domainproperty "staybook/internal/domain/property"
	domainreview "staybook/internal/domain/review"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

const (
	reviewCollection  = "reviews"
	paymentCollection = "payments"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(reviewCollection)}
}

func (r *ReviewRepository) ByAuthorAndProperty(ctx context.Context, authorID user.ID, propertyID domainproperty.ID) (*domainreview.Review, error) {
	var doc reviewDocument
	filter := bson.M{"author_id": string(authorID), "property_id": string(propertyID)}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreview.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save relies on the unique (author_id, property_id) index to enforce
// one review per author per property.
func (r *ReviewRepository) Save(ctx context.Context, review *domainreview.Review) error {
	if _, err := r.col.InsertOne(ctx, newReviewDocument(review)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainreview.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *ReviewRepository) ListByProperty(ctx context.Context, propertyID domainproperty.ID) ([]*domainreview.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"property_id": string(propertyID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domainreview.Review
	for cur.Next(ctx) {
		var doc reviewDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func (r *ReviewRepository) DeleteByProperty(ctx context.Context, propertyID domainproperty.ID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"property_id": string(propertyID)})
	return err
}

type reviewDocument struct {
	ID         string `bson:"_id"`
	PropertyID string `bson:"property_id"`
	AuthorID   string `bson:"author_id"`
	Rating     int    `bson:"rating"`
	Comment    string `bson:"comment"`
	CreatedAt  int64  `bson:"created_at"`
}

func newReviewDocument(r *domainreview.Review) reviewDocument {
	return reviewDocument{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		AuthorID:   string(r.AuthorID),
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt.UnixMilli(),
	}
}

func (d reviewDocument) toAggregate() *domainreview.Review {
	return &domainreview.Review{
		ID:         domainreview.ID(d.ID),
		PropertyID: domainproperty.ID(d.PropertyID),
		AuthorID:   user.ID(d.AuthorID),
		Rating:     d.Rating,
		Comment:    d.Comment,
		CreatedAt:  time.UnixMilli(d.CreatedAt).UTC(),
	}
}

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection(paymentCollection)}
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save relies on the unique booking_id index for the 1:1 rule.
func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	if _, err := r.col.InsertOne(ctx, newPaymentDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainpayment.ErrDuplicate
		}
		return err
	}
	return nil
}

type paymentDocument struct {
	ID        string        `bson:"_id"`
	BookingID string        `bson:"booking_id"`
	Amount    moneyDocument `bson:"amount"`
	Method    string        `bson:"method"`
	CreatedAt int64         `bson:"created_at"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	return paymentDocument{
		ID:        string(p.ID),
		BookingID: string(p.BookingID),
		Amount:    moneyDocument{Amount: p.Amount.Amount, Currency: p.Amount.Currency},
		Method:    string(p.Method),
		CreatedAt: p.CreatedAt.UnixMilli(),
	}
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:        domainpayment.ID(d.ID),
		BookingID: domainbooking.ID(d.BookingID),
		Amount:    money.Money{Amount: d.Amount.Amount, Currency: d.Amount.Currency},
		Method:    domainpayment.Method(d.Method),
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
	}
}
