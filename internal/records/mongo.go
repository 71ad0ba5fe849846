package records

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"paintledger/internal/apperr"
	"paintledger/internal/models"
)

// Observer receives one call per store operation.
type Observer interface {
	ObserveStoreOp(op string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveStoreOp(string, error) {}

// MongoStore opens a fresh client for every operation and disconnects it
// before returning, on success and failure alike. No connection outlives
// the request that asked for it.
type MongoStore struct {
	uri        string
	database   string
	collection string
	obs        Observer
	connect    func(ctx context.Context, uri string) (*mongo.Client, error)
}

func NewMongoStore(uri, database, collection string, obs Observer) *MongoStore {
	if obs == nil {
		obs = nopObserver{}
	}
	return &MongoStore{
		uri:        uri,
		database:   database,
		collection: collection,
		obs:        obs,
		connect: func(ctx context.Context, uri string) (*mongo.Client, error) {
			return mongo.Connect(ctx, options.Client().ApplyURI(uri))
		},
	}
}

func (s *MongoStore) withCollection(ctx context.Context, op string, fn func(*mongo.Collection) error) (err error) {
	defer func() { s.obs.ObserveStoreOp(op, err) }()

	client, err := s.connect(ctx, s.uri)
	if err != nil {
		return apperr.Store(fmt.Errorf("%s: connect: %w", op, err))
	}
	defer func() {
		// the request context may already be done; release regardless
		_ = client.Disconnect(context.WithoutCancel(ctx))
	}()

	err = fn(client.Database(s.database).Collection(s.collection))
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return apperr.Store(fmt.Errorf("%s: %w", op, err))
	}
	return err
}

func (s *MongoStore) Insert(ctx context.Context, rec *models.AnalysisRecord) (string, error) {
	var id primitive.ObjectID
	err := s.withCollection(ctx, "insert", func(c *mongo.Collection) error {
		doc := *rec
		doc.ID = primitive.NewObjectID()
		if _, err := c.InsertOne(ctx, doc); err != nil {
			return err
		}
		id = doc.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	rec.ID = id
	return id.Hex(), nil
}

func ownerFilter(username string) bson.D {
	return bson.D{{Key: "id", Value: username}}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
}

func idFilter(id primitive.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func (s *MongoStore) FindByOwner(ctx context.Context, username string) ([]models.AnalysisRecord, error) {
	out := []models.AnalysisRecord{}
	err := s.withCollection(ctx, "find_by_owner", func(c *mongo.Collection) error {
		cur, err := c.Find(ctx, ownerFilter(username), newestFirst())
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	err := s.withCollection(ctx, "find_by_id", func(c *mongo.Collection) error {
		err := c.FindOne(ctx, idFilter(id)).Decode(&rec)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound("record not found")
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var n int64
	err := s.withCollection(ctx, "delete", func(c *mongo.Collection) error {
		res, err := c.DeleteOne(ctx, idFilter(id))
		if err != nil {
			return err
		}
		n = res.DeletedCount
		return nil
	})
	return n, err
}
