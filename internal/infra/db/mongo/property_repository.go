package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "staybook/internal/domain/property"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

const propertyCollection = "properties"

type PropertyRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{db: db, col: db.Collection(propertyCollection)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

// Delete removes the property and, in the same transaction, its
// bookings and reviews; the property owns both lifecycles.
func (r *PropertyRepository) Delete(ctx context.Context, id domainproperty.ID) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		res, err := r.col.DeleteOne(sc, bson.M{"_id": string(id)})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, domainproperty.ErrNotFound
		}
		if _, err := r.db.Collection(bookingCollection).DeleteMany(sc, bson.M{"property_id": string(id)}); err != nil {
			return nil, err
		}
		if _, err := r.db.Collection(reviewCollection).DeleteMany(sc, bson.M{"property_id": string(id)}); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

type propertyDocument struct {
	ID          string        `bson:"_id"`
	HostID      string        `bson:"host_id"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Line1       string        `bson:"line1"`
	City        string        `bson:"city"`
	Country     string        `bson:"country"`
	NightlyRate moneyDocument `bson:"nightly_rate"`
	PhotoURLs   []string      `bson:"photo_urls"`
	CreatedAt   int64         `bson:"created_at"`
	UpdatedAt   int64         `bson:"updated_at"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	return propertyDocument{
		ID:          string(p.ID),
		HostID:      string(p.HostID),
		Title:       p.Title,
		Description: p.Description,
		Line1:       p.Address.Line1,
		City:        p.Address.City,
		Country:     p.Address.Country,
		NightlyRate: moneyDocument{Amount: p.NightlyRate.Amount, Currency: p.NightlyRate.Currency},
		PhotoURLs:   p.PhotoURLs,
		CreatedAt:   p.CreatedAt.UnixMilli(),
		UpdatedAt:   p.UpdatedAt.UnixMilli(),
	}
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	return &domainproperty.Property{
		ID:          domainproperty.ID(d.ID),
		HostID:      user.ID(d.HostID),
		Title:       d.Title,
		Description: d.Description,
		Address: domainproperty.Address{
			Line1:   d.Line1,
			City:    d.City,
			Country: d.Country,
		},
		NightlyRate: money.Money{Amount: d.NightlyRate.Amount, Currency: d.NightlyRate.Currency},
		PhotoURLs:   d.PhotoURLs,
		CreatedAt:   time.UnixMilli(d.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(d.UpdatedAt).UTC(),
	}
}
