package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	DB *mongo.Database
}

func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

// EnsureIndexes creates the indexes the availability queries depend on.
// The (property_id, check_in) compound index keeps the overlap window
// fetch off a collection scan.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	bookings := c.DB.Collection(bookingCollection)
	_, err := bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "check_in", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	payments := c.DB.Collection(paymentCollection)
	_, err = payments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	reviews := c.DB.Collection(reviewCollection)
	_, err = reviews.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "property_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
