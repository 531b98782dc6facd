// Package mongostore implements docstore.Collection on a MongoDB
// collection. Ids are ObjectIDs exposed as hex strings; a filter on a
// malformed id matches nothing.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userstore/internal/docstore"
	"github.com/dmitrijs2005/userstore/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding user documents.
const CollectionName = "users"

type document struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	PasswordDigest string             `bson:"password"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d document) user() models.User {
	return models.User{
		ID:             models.ID(d.ID.Hex()),
		Username:       d.Username,
		PasswordDigest: d.PasswordDigest,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

// Collection is a docstore.Collection backed by a MongoDB collection.
type Collection struct {
	coll   *mongo.Collection
	client *mongo.Client
}

// New wraps coll. When client is non-nil, Close disconnects it.
func New(coll *mongo.Collection, client *mongo.Client) *Collection {
	return &Collection{coll: coll, client: client}
}

// Insert adds a document and returns the hex of its new ObjectID.
func (c *Collection) Insert(ctx context.Context, doc models.User) (models.ID, error) {
	res, err := c.coll.InsertOne(ctx, document{
		Username:       doc.Username,
		PasswordDigest: doc.PasswordDigest,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	})
	if err != nil {
		return "", wrap(err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("db error: unexpected inserted id %T", res.InsertedID)
	}
	return models.ID(oid.Hex()), nil
}

// Find returns every matching document.
func (c *Collection) Find(ctx context.Context, filter docstore.Filter) ([]models.User, error) {
	f, none, err := toBSON(filter)
	if err != nil || none {
		return nil, err
	}

	cur, err := c.coll.Find(ctx, f)
	if err != nil {
		return nil, wrap(err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrap(err)
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.user())
	}
	return users, nil
}

// FindOne returns one matching document, or nil.
func (c *Collection) FindOne(ctx context.Context, filter docstore.Filter) (*models.User, error) {
	f, none, err := toBSON(filter)
	if err != nil || none {
		return nil, err
	}

	var d document
	if err := c.coll.FindOne(ctx, f).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrap(err)
	}

	u := d.user()
	return &u, nil
}

// Update applies patch with $set and returns the matched count.
func (c *Collection) Update(ctx context.Context, filter docstore.Filter, patch docstore.Patch) (int64, error) {
	set, err := toSet(patch)
	if err != nil {
		return 0, err
	}
	f, none, err := toBSON(filter)
	if err != nil || none {
		return 0, err
	}

	if len(set) == 0 {
		n, err := c.coll.CountDocuments(ctx, f)
		if err != nil {
			return 0, wrap(err)
		}
		return n, nil
	}

	res, err := c.coll.UpdateMany(ctx, f, bson.M{"$set": set})
	if err != nil {
		return 0, wrap(err)
	}
	return res.MatchedCount, nil
}

// Remove deletes the matching documents and returns how many were deleted.
func (c *Collection) Remove(ctx context.Context, filter docstore.Filter) (int64, error) {
	f, none, err := toBSON(filter)
	if err != nil || none {
		return 0, err
	}

	res, err := c.coll.DeleteMany(ctx, f)
	if err != nil {
		return 0, wrap(err)
	}
	return res.DeletedCount, nil
}

// EnsureUniqueIndex creates a unique ascending index on field.
func (c *Collection) EnsureUniqueIndex(ctx context.Context, field docstore.Field) error {
	if _, err := docstore.Value(models.User{}, field); err != nil {
		return err
	}
	if field == docstore.FieldID {
		return nil
	}

	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: string(field), Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return wrap(err)
	}
	return nil
}

// Close disconnects the client passed to New, if any.
func (c *Collection) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(context.Background())
}

// toBSON converts filter to a bson.M. none is true when the filter can
// never match, which happens for ids that are not valid ObjectIDs.
func toBSON(filter docstore.Filter) (f bson.M, none bool, err error) {
	f = bson.M{}
	for field, raw := range filter {
		v, err := docstore.Normalize(field, raw)
		if err != nil {
			return nil, false, err
		}
		if field == docstore.FieldID {
			oid, err := primitive.ObjectIDFromHex(string(v.(models.ID)))
			if err != nil {
				return nil, true, nil
			}
			f[string(field)] = oid
			continue
		}
		f[string(field)] = v
	}
	return f, false, nil
}

func toSet(patch docstore.Patch) (bson.M, error) {
	if err := docstore.Apply(&models.User{}, patch); err != nil {
		return nil, err
	}
	set := bson.M{}
	for field, v := range patch {
		set[string(field)] = v
	}
	return set, nil
}

func wrap(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", docstore.ErrDuplicateKey, err)
	}
	return fmt.Errorf("db error: %w", err)
}
