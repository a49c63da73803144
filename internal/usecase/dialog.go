package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scholarship-telegram-bot/internal/domain"
)

var ErrEmptyAnswer = errors.New("empty answer")

type OutcomeKind int

const (
	// OutcomePrompt: the answer was stored and Next must be asked.
	OutcomePrompt OutcomeKind = iota
	// OutcomeInvalid: the answer was rejected and Next (the same step) must be asked again.
	OutcomeInvalid
	// OutcomeSubmitted: the application was committed.
	OutcomeSubmitted
	// OutcomeFailed: the commit failed; the session is over.
	OutcomeFailed
)

func (k OutcomeKind) Terminal() bool { return k == OutcomeSubmitted || k == OutcomeFailed }

type Outcome struct {
	Kind OutcomeKind
	// Accepted is the step whose answer was just stored, Value the stored input.
	Accepted    Step
	Value       string
	Next        Step
	Application domain.Application
	Err         error
}

// Dialog walks a session through the step table and commits finished applications.
type Dialog struct {
	steps  *Steps
	repo   domain.ApplicationRepository
	now    func() time.Time
	logger *slog.Logger
}

type DialogOption func(*Dialog)

func WithClock(now func() time.Time) DialogOption {
	return func(d *Dialog) { d.now = now }
}

func WithDialogLogger(l *slog.Logger) DialogOption {
	return func(d *Dialog) { d.logger = l }
}

func NewDialog(steps *Steps, repo domain.ApplicationRepository, opts ...DialogOption) *Dialog {
	d := &Dialog{steps: steps, repo: repo, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dialog) Steps() *Steps { return d.steps }

// Advance stores input as the answer to the session's current step and moves on.
func (d *Dialog) Advance(ctx context.Context, s *Session, input string) Outcome {
	step, ok := d.steps.Lookup(s.Current())
	if !ok {
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("session %d is not collecting answers (state %s)", s.UserID, s.Current())}
	}
	if strings.TrimSpace(input) == "" {
		return Outcome{Kind: OutcomeInvalid, Next: step, Err: ErrEmptyAnswer}
	}

	switch {
	case step.Kind == KindOptionalText && strings.EqualFold(input, SkipToken):
		delete(s.answers, step.ID)
	default:
		s.answers[step.ID] = input
	}

	if step.ID == d.steps.Last().ID {
		return d.submit(ctx, s, step, input)
	}

	if err := s.fire(ctx, eventAnswer); err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
	next, _ := d.steps.Lookup(s.Current())
	return Outcome{Kind: OutcomePrompt, Accepted: step, Value: input, Next: next}
}

func (d *Dialog) submit(ctx context.Context, s *Session, step Step, input string) Outcome {
	app := s.application()
	pkg := app.ServicePackage
	if !isKnownPackage(pkg) {
		d.logger.Warn("unrecognized service package, pricing by fallback tier",
			"user_id", s.UserID, "service_package", pkg, "tier", TierFor(pkg).String())
	}
	app.Price = PriceFor(pkg)
	app.Status = domain.StatusSubmitted
	app.SubmittedAt = d.now().UTC()

	id, err := d.repo.Commit(ctx, app)
	s.clear()
	if err != nil {
		_ = s.fire(ctx, eventFail)
		return Outcome{Kind: OutcomeFailed, Accepted: step, Value: input, Err: fmt.Errorf("commit application: %w", err)}
	}
	app.ID = id
	if err := s.fire(ctx, eventSubmit); err != nil {
		d.logger.Error("session state after commit", "user_id", s.UserID, "error", err)
	}
	return Outcome{Kind: OutcomeSubmitted, Accepted: step, Value: input, Application: app}
}
