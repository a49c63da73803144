package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarship-telegram-bot/internal/domain"
	"scholarship-telegram-bot/internal/usecase"
)

func TestApplicationRepoLatestByUser(t *testing.T) {
	ctx := context.Background()
	r := NewApplicationRepo()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := r.FindLatestByUser(ctx, 1)
	require.ErrorIs(t, err, domain.ErrApplicationNotFound)

	_, err = r.Commit(ctx, domain.Application{UserID: 1, Name: "first", SubmittedAt: t0})
	require.NoError(t, err)
	_, err = r.Commit(ctx, domain.Application{UserID: 2, Name: "other", SubmittedAt: t0.Add(2 * time.Hour)})
	require.NoError(t, err)
	id, err := r.Commit(ctx, domain.Application{UserID: 1, Name: "second", SubmittedAt: t0.Add(time.Hour)})
	require.NoError(t, err)

	got, err := r.FindLatestByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Name)
	assert.Equal(t, id, got.ID)
}

func TestApplicationRepoRedrawsCollidingIDs(t *testing.T) {
	ctx := context.Background()
	ids := []string{"aaaaaaaa", "aaaaaaaa", "aaaaaaaa", "bbbbbbbb"}
	r := NewApplicationRepo().WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	})
	first, err := r.Commit(ctx, domain.Application{UserID: 1})
	require.NoError(t, err)
	second, err := r.Commit(ctx, domain.Application{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaa", first)
	assert.Equal(t, "bbbbbbbb", second)
}

func TestApplicationRepoCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewApplicationRepo().Commit(ctx, domain.Application{})
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestBroadcastStatRepoNewestFirst(t *testing.T) {
	r := NewBroadcastStatRepo()
	for i := 1; i <= 3; i++ {
		require.NoError(t, r.Save(usecase.BroadcastStat{Total: i}))
	}
	got, err := r.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Total)
	assert.Equal(t, 2, got[1].Total)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestFunnelAndUserRepos(t *testing.T) {
	f := NewFunnelRepo()
	require.NoError(t, f.Hit(usecase.StepName, 1))
	require.NoError(t, f.Hit(usecase.StepName, 1))
	require.NoError(t, f.Hit(usecase.StepName, 2))
	counts, err := f.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[usecase.StepName])

	u := NewUserRepo()
	require.NoError(t, u.SaveUser(5))
	require.NoError(t, u.SaveUser(3))
	require.NoError(t, u.SaveUser(5))
	ids, err := u.ListChatIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, ids)
}
