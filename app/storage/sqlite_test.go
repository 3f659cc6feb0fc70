package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()

	db, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestSQLite_Users(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user, err := db.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, user, "unknown sender has no record")

	require.NoError(t, db.SaveUser(ctx, "1"))
	require.NoError(t, db.SaveUser(ctx, "1"), "registering twice is a no-op")

	user, err = db.GetUser(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "1", user.ID)
	assert.False(t, user.Premium)
	assert.Equal(t, 0, user.Quota)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestSQLite_ChangeUserQuota(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveUser(ctx, "1"))

	require.NoError(t, db.ChangeUserQuota(ctx, "1"))
	require.NoError(t, db.ChangeUserQuota(ctx, "1"))

	user, err := db.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.Quota)
}

func TestSQLite_Redirections(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveUser(ctx, "1"))

	reds, err := db.GetRedirections(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, reds)

	firstID, err := db.SaveRedirection(ctx, "1", "100", "200", "Chan One", "Chan Two")
	require.NoError(t, err)

	secondID, err := db.SaveRedirection(ctx, "1", "200", "300", "Chan Two", "Chan Three")
	require.NoError(t, err)
	assert.Greater(t, secondID, firstID)

	reds, err = db.GetRedirections(ctx, "1")
	require.NoError(t, err)
	require.Len(t, reds, 2)

	assert.Equal(t, firstID, reds[0].ID, "insertion order")
	assert.Equal(t, "1", reds[0].Sender)
	assert.Equal(t, "100", reds[0].Source)
	assert.Equal(t, "200", reds[0].Destination)
	assert.Equal(t, "Chan One", reds[0].SourceTitle)
	assert.Equal(t, "Chan Two", reds[0].DestinationTitle)
	assert.Equal(t, secondID, reds[1].ID)

	reds, err = db.GetRedirections(ctx, "2")
	require.NoError(t, err)
	assert.Empty(t, reds, "redirections are scoped per sender")
}

func TestSQLite_DuplicatePairRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveUser(ctx, "1"))

	_, err := db.SaveRedirection(ctx, "1", "100", "200", "Chan One", "Chan Two")
	require.NoError(t, err)

	// The unique index is the backstop behind the workflow's graph check.
	_, err = db.SaveRedirection(ctx, "1", "100", "200", "Chan One", "Chan Two")
	assert.Error(t, err)

	_, err = db.SaveRedirection(ctx, "2", "100", "200", "Chan One", "Chan Two")
	assert.NoError(t, err, "the same pair is allowed for another sender")
}

func TestSQLite_Audit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveUser(ctx, "1"))
	require.NoError(t, db.SaveUser(ctx, "2"))

	_, err := db.SaveRedirection(ctx, "1", "100", "200", "Chan One", "Chan Two")
	require.NoError(t, err)
	require.NoError(t, db.ChangeUserQuota(ctx, "1"))

	// Simulated crash between insert and increment for sender 2.
	_, err = db.SaveRedirection(ctx, "2", "100", "200", "Chan One", "Chan Two")
	require.NoError(t, err)

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	counts, err := db.CountRedirections(ctx)
	require.NoError(t, err)

	assert.Equal(t, users[0].Quota, counts[users[0].ID])
	assert.NotEqual(t, users[1].Quota, counts[users[1].ID])
}
