package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"event-analytics/internal/model"
)

const (
	mongoDatabase   = "analytics"
	mongoCollection = "user_events"
)

var errNoSQL = errors.New("mongo driver does not execute SQL; reports use aggregation pipelines")

type MongoDriver struct {
	client *mongo.Client
}

type mongoRows struct {
	cursor *mongo.Cursor
}

func (mr *mongoRows) Next() bool {
	return mr.cursor.Next(context.Background())
}

// Scan decodes the current document into dest[0], which must be a
// pointer to a bson-tagged struct.
func (mr *mongoRows) Scan(dest ...interface{}) error {
	return mr.cursor.Decode(dest[0])
}

func (mr *mongoRows) Err() error {
	return mr.cursor.Err()
}

func (mr *mongoRows) Close() {
	mr.cursor.Close(context.Background())
}

func (md *MongoDriver) Connect(dsn string) error {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(dsn))
	if err != nil {
		return err
	}
	md.client = client
	return nil
}

func (md *MongoDriver) Close() error {
	return md.client.Disconnect(context.Background())
}

func (md *MongoDriver) Dialect() string {
	return DialectMongo
}

func (md *MongoDriver) Exec(ctx context.Context, query string, args ...interface{}) error {
	return errNoSQL
}

func (md *MongoDriver) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return nil, errNoSQL
}

// Aggregate runs a pipeline against the user_events collection.
func (md *MongoDriver) Aggregate(ctx context.Context, pipeline mongo.Pipeline) (Rows, error) {
	collection := md.client.Database(mongoDatabase).Collection(mongoCollection)
	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return &mongoRows{cursor: cursor}, nil
}

func (md *MongoDriver) InsertEvents(ctx context.Context, events []model.Event) error {
	docs := make([]interface{}, len(events))
	for i, e := range events {
		docs[i] = e
	}
	collection := md.client.Database(mongoDatabase).Collection(mongoCollection)
	_, err := collection.InsertMany(ctx, docs)
	return err
}

func (md *MongoDriver) Reset(ctx context.Context) error {
	return md.client.Database(mongoDatabase).Collection(mongoCollection).Drop(ctx)
}
