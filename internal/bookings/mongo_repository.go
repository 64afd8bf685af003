package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wolfman30/padel-booking/internal/schedule"
)

// MongoCollection is the collection bookings are stored in.
const MongoCollection = "bookings"

// MongoRepository stores bookings as documents keyed by booking id.
type MongoRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoRepository binds the repository to the bookings collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	if db == nil {
		panic("bookings: mongo database required")
	}
	return &MongoRepository{collection: db.Collection(MongoCollection), now: time.Now}
}

// EnsureIndexes creates the unique (date, time) index slot uniqueness relies on.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("date_time_unique"),
	})
	if err != nil {
		return fmt.Errorf("bookings: ensure mongo indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, req *CreateBookingRequest) (*Booking, error) {
	booking := &Booking{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Phone:      req.Phone,
		Date:       req.Date,
		Time:       req.Time,
		FormatType: req.FormatType,
		Status:     StatusConfirmed,
		CreatedAt:  r.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("bookings: mongo insert: %w", err)
	}
	return booking, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Booking, error) {
	var booking Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: mongo find one: %w", err)
	}
	return &booking, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("bookings: mongo find: %w", err)
	}
	var out []*Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("bookings: mongo decode: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("bookings: mongo count: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) BookedSlots(ctx context.Context, from string) ([]schedule.SlotKey, error) {
	filter := bson.M{}
	if from != "" {
		// Dates are stored as YYYY-MM-DD, so string order is calendar order.
		filter["date"] = bson.M{"$gte": from}
	}
	opts := options.Find().SetProjection(bson.M{"date": 1, "time": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("bookings: mongo find slots: %w", err)
	}
	defer cursor.Close(ctx)

	var keys []schedule.SlotKey
	for cursor.Next(ctx) {
		var doc struct {
			Date string `bson:"date"`
			Time string `bson:"time"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("bookings: mongo decode slot: %w", err)
		}
		keys = append(keys, schedule.SlotKey{Date: doc.Date, Time: doc.Time})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("bookings: mongo slot cursor: %w", err)
	}
	return keys, nil
}
