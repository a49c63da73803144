package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrNoActiveSession = errors.New("no active session")

// Coordinator owns the single live session of every user.
// Calls for one user id are serialized; different users run in parallel.
type Coordinator struct {
	dialog *Dialog
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	slots map[int64]*slot
}

// slot is guarded by its own mutex; refs and map membership by Coordinator.mu.
type slot struct {
	mu      sync.Mutex
	refs    int
	session *Session
}

func NewCoordinator(dialog *Dialog, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		dialog: dialog,
		now:    dialog.now,
		logger: logger,
		slots:  make(map[int64]*slot),
	}
}

func (c *Coordinator) Steps() *Steps { return c.dialog.Steps() }

// acquire returns the user's slot locked. Every acquire must be paired with release.
func (c *Coordinator) acquire(userID int64) *slot {
	c.mu.Lock()
	sl, ok := c.slots[userID]
	if !ok {
		sl = &slot{}
		c.slots[userID] = sl
	}
	sl.refs++
	c.mu.Unlock()

	sl.mu.Lock()
	return sl
}

// release unlocks the slot and drops it once nobody holds it and no session is left.
func (c *Coordinator) release(userID int64, sl *slot) {
	sl.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	sl.refs--
	if sl.refs == 0 && sl.session == nil {
		delete(c.slots, userID)
	}
}

// Begin starts a fresh session for userID, discarding any unfinished one.
func (c *Coordinator) Begin(ctx context.Context, userID int64) SessionView {
	sl := c.acquire(userID)
	defer c.release(userID, sl)
	if sl.session != nil {
		c.logger.Info("discarding unfinished session", "user_id", userID, "step", string(sl.session.Current()))
		sl.session.Cancel(ctx)
	}
	sl.session = NewSession(userID, c.dialog.Steps(), c.now())
	return sl.session.view(c.dialog.Steps())
}

// Cancel discards the user's session. It reports whether there was one.
func (c *Coordinator) Cancel(ctx context.Context, userID int64) bool {
	sl := c.acquire(userID)
	defer c.release(userID, sl)
	if sl.session == nil {
		return false
	}
	sl.session.Cancel(ctx)
	sl.session = nil
	return true
}

// Dispatch feeds input to the user's active session.
func (c *Coordinator) Dispatch(ctx context.Context, userID int64, input string) (Outcome, error) {
	sl := c.acquire(userID)
	defer c.release(userID, sl)
	if sl.session == nil {
		return Outcome{}, ErrNoActiveSession
	}
	out := c.dialog.Advance(ctx, sl.session, input)
	if out.Kind.Terminal() {
		sl.session = nil
	}
	return out, nil
}

// Session returns a snapshot of the user's active session.
func (c *Coordinator) Session(userID int64) (SessionView, bool) {
	sl := c.acquire(userID)
	defer c.release(userID, sl)
	if sl.session == nil {
		return SessionView{}, false
	}
	return sl.session.view(c.dialog.Steps()), true
}

// Active reports whether userID has a session in progress.
func (c *Coordinator) Active(userID int64) bool {
	_, ok := c.Session(userID)
	return ok
}
