package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarship-telegram-bot/internal/domain"
	"scholarship-telegram-bot/internal/usecase"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func fullApplication(userID int64, at time.Time) domain.Application {
	app := domain.Application{UserID: userID, SubmittedAt: at, Status: domain.StatusSubmitted}
	for _, f := range domain.AnswerFields {
		app.SetAnswer(f, "value of "+f)
	}
	app.Name = "Алия Жумабаева"
	app.GPA = ""
	return app
}

func TestApplicationRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewApplicationRepo(openTestDB(t))

	app := fullApplication(77, time.Date(2026, 10, 18, 8, 0, 0, 500, time.UTC))
	id, err := r.Commit(ctx, app)
	require.NoError(t, err)
	require.Len(t, id, 8)

	got, err := r.FindLatestByUser(ctx, 77)
	require.NoError(t, err)
	app.ID = id
	assert.Equal(t, app, got)

	_, err = r.FindLatestByUser(ctx, 78)
	assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
}

func TestApplicationRepoLatest(t *testing.T) {
	ctx := context.Background()
	r := NewApplicationRepo(openTestDB(t))
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, at := range []time.Time{t0.Add(time.Hour), t0, t0.Add(time.Hour)} {
		app := fullApplication(1, at)
		app.Name = []string{"a", "b", "c"}[i]
		_, err := r.Commit(ctx, app)
		require.NoError(t, err)
	}
	got, err := r.FindLatestByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "c", got.Name)
}

func TestApplicationRepoRedrawsCollidingIDs(t *testing.T) {
	ctx := context.Background()
	seq := []string{"11111111", "11111111", "22222222"}
	r := NewApplicationRepo(openTestDB(t)).WithIDGenerator(func() string {
		id := seq[0]
		seq = seq[1:]
		return id
	})
	first, err := r.Commit(ctx, fullApplication(1, time.Now()))
	require.NoError(t, err)
	second, err := r.Commit(ctx, fullApplication(2, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "11111111", first)
	assert.Equal(t, "22222222", second)
}

func TestApplicationRepoClosedDB(t *testing.T) {
	db := openTestDB(t)
	r := NewApplicationRepo(db)
	require.NoError(t, db.Close())
	_, err := r.Commit(context.Background(), fullApplication(1, time.Now()))
	assert.ErrorIs(t, err, domain.ErrStorage)
	_, err = r.FindLatestByUser(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestFunnelUserAndStatRepos(t *testing.T) {
	db := openTestDB(t)

	f := NewFunnelRepo(db)
	require.NoError(t, f.Hit(usecase.StepName, 1))
	require.NoError(t, f.Hit(usecase.StepName, 1))
	require.NoError(t, f.Hit(usecase.StepName, 2))
	require.NoError(t, f.Hit(usecase.StageSubmitted, 2))
	counts, err := f.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[usecase.StepName])
	assert.Equal(t, 1, counts[usecase.StageSubmitted])

	u := NewUserRepo(db)
	require.NoError(t, u.SaveUser(9))
	require.NoError(t, u.SaveUser(4))
	require.NoError(t, u.SaveUser(9))
	ids, err := u.ListChatIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 9}, ids)

	s := NewBroadcastStatRepo(db)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(usecase.BroadcastStat{Total: 1, CreatedAt: at}))
	require.NoError(t, s.Save(usecase.BroadcastStat{Total: 2, CreatedAt: at.Add(time.Minute)}))
	stats, err := s.ListRecent(5)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats[0].Total)
	assert.True(t, stats[1].CreatedAt.Equal(at))
}
