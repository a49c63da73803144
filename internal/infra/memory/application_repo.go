package memory

import (
	"context"
	"fmt"
	"sync"

	"scholarship-telegram-bot/internal/domain"
)

// ApplicationRepo keeps applications in process memory. Records are lost on restart.
type ApplicationRepo struct {
	mu    sync.RWMutex
	apps  []domain.Application
	ids   map[string]struct{}
	newID func() string
}

func NewApplicationRepo() *ApplicationRepo {
	return &ApplicationRepo{ids: make(map[string]struct{}), newID: domain.NewApplicationID}
}

// WithIDGenerator replaces the id source; used by tests to force collisions.
func (r *ApplicationRepo) WithIDGenerator(gen func() string) *ApplicationRepo {
	r.newID = gen
	return r
}

func (r *ApplicationRepo) Commit(ctx context.Context, app domain.Application) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.newID()
	for _, taken := r.ids[id]; taken; _, taken = r.ids[id] {
		id = r.newID()
	}
	app.ID = id
	r.ids[id] = struct{}{}
	r.apps = append(r.apps, app)
	return id, nil
}

func (r *ApplicationRepo) FindLatestByUser(ctx context.Context, userID int64) (domain.Application, error) {
	if err := ctx.Err(); err != nil {
		return domain.Application{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best  domain.Application
		found bool
	)
	for _, app := range r.apps {
		if app.UserID != userID {
			continue
		}
		if !found || !app.SubmittedAt.Before(best.SubmittedAt) {
			best, found = app, true
		}
	}
	if !found {
		return domain.Application{}, domain.ErrApplicationNotFound
	}
	return best, nil
}
