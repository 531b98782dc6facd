package mongostore

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/userstore/internal/docstore"
	"github.com/dmitrijs2005/userstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestToBSON_ConvertsID(t *testing.T) {
	oid := primitive.NewObjectID()

	f, none, err := toBSON(docstore.Filter{
		docstore.FieldID:       models.ID(oid.Hex()),
		docstore.FieldUsername: "jerry",
	})
	require.NoError(t, err)
	assert.False(t, none)
	assert.Equal(t, bson.M{"_id": oid, "username": "jerry"}, f)
}

func TestToBSON_MalformedIDMatchesNothing(t *testing.T) {
	_, none, err := toBSON(docstore.Filter{docstore.FieldID: "12345"})
	require.NoError(t, err)
	assert.True(t, none)
}

func TestToBSON_UnknownField(t *testing.T) {
	_, _, err := toBSON(docstore.Filter{"email": "x"})
	assert.ErrorIs(t, err, docstore.ErrUnknownField)
}

func TestToBSON_Empty(t *testing.T) {
	f, none, err := toBSON(nil)
	require.NoError(t, err)
	assert.False(t, none)
	assert.Empty(t, f)
}

func TestToSet(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	set, err := toSet(docstore.Patch{docstore.FieldUsername: "elaine", docstore.FieldUpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"username": "elaine", "updatedAt": now}, set)

	_, err = toSet(docstore.Patch{docstore.FieldID: "x"})
	assert.ErrorIs(t, err, docstore.ErrInvalidValue)
}

func TestDocumentUser(t *testing.T) {
	oid := primitive.NewObjectID()
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.FixedZone("x", 7200))

	u := document{ID: oid, Username: "jerry", PasswordDigest: "d", CreatedAt: ts, UpdatedAt: ts}.user()

	assert.Equal(t, models.ID(oid.Hex()), u.ID)
	assert.Equal(t, "jerry", u.Username)
	assert.Equal(t, "d", u.PasswordDigest)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())
	assert.True(t, ts.Equal(u.UpdatedAt))
}

func TestWrap(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, wrap(dup), docstore.ErrDuplicateKey)

	other := errors.New("socket closed")
	err := wrap(other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, docstore.ErrDuplicateKey)
}

func TestClose_WithoutClient(t *testing.T) {
	assert.NoError(t, New(nil, nil).Close())
}
