package repomanager

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/userstore/internal/docstore/mongostore"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMongoDatabase = "userstore"
	mongoConnectTimeout  = 10 * time.Second
)

// OpenMongo connects to uri, pings the server and returns the users
// collection of the URI's database (userstore when the URI names none).
func (m *Manager) OpenMongo(ctx context.Context, uri string) (*mongostore.Collection, error) {
	dbName, err := MongoDatabase(uri)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	return mongostore.New(client.Database(dbName).Collection(mongostore.CollectionName), client), nil
}

// MongoDatabase extracts the database name from a mongodb URI path.
func MongoDatabase(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid mongo uri: %w", err)
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name, nil
	}
	return defaultMongoDatabase, nil
}
