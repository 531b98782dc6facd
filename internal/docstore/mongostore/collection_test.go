package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/userstore/internal/docstore"
	"github.com/dmitrijs2005/userstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// Every test here runs against the driver's mock deployment: responses are
// queued with AddMockResponses and consumed in order, no server needed.

func newMock(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func userDoc(oid primitive.ObjectID, name string, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "username", Value: name},
		{Key: "password", Value: "digest-" + name},
		{Key: "createdAt", Value: at},
		{Key: "updatedAt", Value: at},
	}
}

func duplicateKeyResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: users index: username_1",
	})
}

func TestCollection_Insert(t *testing.T) {
	mt := newMock(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("returns hex object id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := New(mt.Coll, nil).Insert(context.Background(), models.User{
			Username: "jerry", PasswordDigest: "d", CreatedAt: at, UpdatedAt: at,
		})
		require.NoError(mt, err)

		_, err = primitive.ObjectIDFromHex(string(id))
		assert.NoError(mt, err, "id %q", id)
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKeyResponse())

		_, err := New(mt.Coll, nil).Insert(context.Background(), models.User{Username: "jerry"})
		require.ErrorIs(mt, err, docstore.ErrDuplicateKey)
	})

	mt.Run("other failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad value",
		}))

		_, err := New(mt.Coll, nil).Insert(context.Background(), models.User{Username: "jerry"})
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, docstore.ErrDuplicateKey)
		assert.Contains(mt, err.Error(), "db error")
	})
}

func TestCollection_Find(t *testing.T) {
	mt := newMock(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("decodes documents", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			userDoc(a, "bania", at), userDoc(b, "bania", at)))

		users, err := New(mt.Coll, nil).Find(context.Background(), docstore.Filter{docstore.FieldUsername: "bania"})
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, models.ID(a.Hex()), users[0].ID)
		assert.Equal(mt, models.ID(b.Hex()), users[1].ID)
		assert.Equal(mt, "digest-bania", users[0].PasswordDigest)
		assert.True(mt, at.Equal(users[1].UpdatedAt))
	})

	mt.Run("no documents", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		users, err := New(mt.Coll, nil).Find(context.Background(), docstore.Filter{docstore.FieldUsername: "nobody"})
		require.NoError(mt, err)
		assert.Empty(mt, users)
	})

	mt.Run("malformed id skips the server", func(mt *mtest.T) {
		users, err := New(mt.Coll, nil).Find(context.Background(), docstore.Filter{docstore.FieldID: "not-hex"})
		require.NoError(mt, err)
		assert.Empty(mt, users)
	})

	mt.Run("unknown field", func(mt *mtest.T) {
		_, err := New(mt.Coll, nil).Find(context.Background(), docstore.Filter{"email": "x"})
		require.ErrorIs(mt, err, docstore.ErrUnknownField)
	})
}

func TestCollection_FindOne(t *testing.T) {
	mt := newMock(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("found", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, userDoc(oid, "jerry", at)))

		u, err := New(mt.Coll, nil).FindOne(context.Background(), docstore.Filter{docstore.FieldID: models.ID(oid.Hex())})
		require.NoError(mt, err)
		require.NotNil(mt, u)
		assert.Equal(mt, "jerry", u.Username)
	})

	mt.Run("absent is nil", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		u, err := New(mt.Coll, nil).FindOne(context.Background(), docstore.Filter{docstore.FieldUsername: "nobody"})
		require.NoError(mt, err)
		assert.Nil(mt, u)
	})

	mt.Run("malformed id is nil", func(mt *mtest.T) {
		u, err := New(mt.Coll, nil).FindOne(context.Background(), docstore.Filter{docstore.FieldID: "12345"})
		require.NoError(mt, err)
		assert.Nil(mt, u)
	})
}

func TestCollection_Update(t *testing.T) {
	mt := newMock(t)
	patch := docstore.Patch{
		docstore.FieldUsername:  "ebenes",
		docstore.FieldUpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	mt.Run("returns matched count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 2},
			bson.E{Key: "nModified", Value: 2},
		))

		n, err := New(mt.Coll, nil).Update(context.Background(),
			docstore.Filter{docstore.FieldID: models.ID(primitive.NewObjectID().Hex())}, patch)
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
	})

	mt.Run("matched but unchanged still counts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		n, err := New(mt.Coll, nil).Update(context.Background(), docstore.Filter{docstore.FieldUsername: "elaine"}, patch)
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)
	})

	mt.Run("nothing matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		n, err := New(mt.Coll, nil).Update(context.Background(), docstore.Filter{docstore.FieldUsername: "nobody"}, patch)
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		mt.AddMockResponses(duplicateKeyResponse())

		_, err := New(mt.Coll, nil).Update(context.Background(), docstore.Filter{docstore.FieldUsername: "elaine"}, patch)
		require.ErrorIs(mt, err, docstore.ErrDuplicateKey)
	})

	mt.Run("empty patch counts matches", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		n, err := New(mt.Coll, nil).Update(context.Background(), docstore.Filter{docstore.FieldUsername: "elaine"}, docstore.Patch{})
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})

	mt.Run("malformed id touches nothing", func(mt *mtest.T) {
		n, err := New(mt.Coll, nil).Update(context.Background(), docstore.Filter{docstore.FieldID: "zzz"}, patch)
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})

	mt.Run("id cannot be patched", func(mt *mtest.T) {
		_, err := New(mt.Coll, nil).Update(context.Background(), docstore.Filter{}, docstore.Patch{docstore.FieldID: "x"})
		require.ErrorIs(mt, err, docstore.ErrInvalidValue)
	})
}

func TestCollection_Remove(t *testing.T) {
	mt := newMock(t)

	mt.Run("returns deleted count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		n, err := New(mt.Coll, nil).Remove(context.Background(),
			docstore.Filter{docstore.FieldID: models.ID(primitive.NewObjectID().Hex())})
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
	})

	mt.Run("nothing deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		n, err := New(mt.Coll, nil).Remove(context.Background(), docstore.Filter{docstore.FieldUsername: "nobody"})
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})

	mt.Run("malformed id deletes nothing", func(mt *mtest.T) {
		n, err := New(mt.Coll, nil).Remove(context.Background(), docstore.Filter{docstore.FieldID: "zzz"})
		require.NoError(mt, err)
		assert.Zero(mt, n)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 13, Name: "Unauthorized", Message: "not authorized",
		}))

		_, err := New(mt.Coll, nil).Remove(context.Background(), docstore.Filter{docstore.FieldUsername: "jerry"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "db error")
	})
}

func TestCollection_EnsureUniqueIndex(t *testing.T) {
	mt := newMock(t)

	mt.Run("creates index", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, New(mt.Coll, nil).EnsureUniqueIndex(context.Background(), docstore.FieldUsername))
	})

	mt.Run("existing duplicates", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error",
		}))

		err := New(mt.Coll, nil).EnsureUniqueIndex(context.Background(), docstore.FieldUsername)
		require.ErrorIs(mt, err, docstore.ErrDuplicateKey)
	})

	mt.Run("id needs no index", func(mt *mtest.T) {
		require.NoError(mt, New(mt.Coll, nil).EnsureUniqueIndex(context.Background(), docstore.FieldID))
	})

	mt.Run("unknown field", func(mt *mtest.T) {
		err := New(mt.Coll, nil).EnsureUniqueIndex(context.Background(), "email")
		require.ErrorIs(mt, err, docstore.ErrUnknownField)
	})
}
