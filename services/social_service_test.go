package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRules(t *testing.T) {
	db := newTestDB(t)
	svc := NewSocialService(db)
	ctx := context.Background()
	a := createUser(t, db, "a@example.com")
	b := createUser(t, db, "b@example.com")

	assert.ErrorIs(t, svc.Follow(ctx, a.ID, a.ID), ErrValidation)
	assert.ErrorIs(t, svc.Follow(ctx, a.ID, 999), ErrNotFound)

	require.NoError(t, svc.Follow(ctx, a.ID, b.ID))
	require.NoError(t, svc.Follow(ctx, a.ID, b.ID), "follow is idempotent")

	following, err := svc.Following(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, b.ID, following[0].ID)

	followers, err := svc.Followers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, a.ID, followers[0].ID)

	require.NoError(t, svc.Unfollow(ctx, a.ID, b.ID))
	require.NoError(t, svc.Unfollow(ctx, a.ID, b.ID))
	following, err = svc.Following(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestFeedPaging(t *testing.T) {
	f := newFixture(t)
	svc := NewSocialService(f.db)
	ctx := context.Background()
	me := createUser(t, f.db, "me@example.com")
	friend := createUser(t, f.db, "friend@example.com")
	stranger := createUser(t, f.db, "stranger@example.com")
	require.NoError(t, svc.Follow(ctx, me.ID, friend.ID))

	for i := 0; i < 5; i++ {
		_, err := f.game.Award(ctx, friend.ID, ActionWorkout, uint(i), "Went for a run")
		require.NoError(t, err)
		_, err = f.game.Award(ctx, stranger.ID, ActionWorkout, uint(i), "Lifted weights")
		require.NoError(t, err)
	}

	page, err := svc.Feed(ctx, me.ID, 0, 3)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.NotZero(t, page.NextBefore)
	for _, it := range page.Items {
		assert.Equal(t, friend.ID, it.UserID)
	}
	assert.Greater(t, page.Items[0].ID, page.Items[2].ID, "newest first")

	rest, err := svc.Feed(ctx, me.ID, page.NextBefore, 3)
	require.NoError(t, err)
	require.Len(t, rest.Items, 2)
	assert.Zero(t, rest.NextBefore)
	assert.Less(t, rest.Items[0].ID, page.Items[2].ID)
}
