package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"scholarship-telegram-bot/internal/domain"
)

const (
	eventAnswer = "answer"
	eventSubmit = "submit"
	eventFail   = "fail"
	eventCancel = "cancel"
)

// Session accumulates the answers of one in-progress application.
// It is not safe for concurrent use; the Coordinator serializes access per user.
type Session struct {
	UserID    int64
	StartedAt time.Time

	answers map[StepID]string
	machine *fsm.FSM
}

// SessionView is a read-only copy of a session.
type SessionView struct {
	UserID    int64
	StartedAt time.Time
	Step      Step
	Answers   map[StepID]string
}

func NewSession(userID int64, steps *Steps, startedAt time.Time) *Session {
	return &Session{
		UserID:    userID,
		StartedAt: startedAt,
		answers:   make(map[StepID]string, steps.Len()),
		machine:   fsm.NewFSM(string(steps.First().ID), machineEvents(steps), fsm.Callbacks{}),
	}
}

// machineEvents turns the step table into fsm transitions.
func machineEvents(steps *Steps) fsm.Events {
	order := steps.All()
	src := make([]string, 0, len(order))
	events := make(fsm.Events, 0, len(order)+3)
	for i, st := range order {
		src = append(src, string(st.ID))
		if i+1 < len(order) {
			events = append(events, fsm.EventDesc{Name: eventAnswer, Src: []string{string(st.ID)}, Dst: string(order[i+1].ID)})
		}
	}
	last := string(steps.Last().ID)
	events = append(events,
		fsm.EventDesc{Name: eventSubmit, Src: []string{last}, Dst: string(StageSubmitted)},
		fsm.EventDesc{Name: eventFail, Src: []string{last}, Dst: string(StageFailed)},
		fsm.EventDesc{Name: eventCancel, Src: src, Dst: string(StageCancelled)},
	)
	return events
}

func (s *Session) Current() StepID { return StepID(s.machine.Current()) }

func (s *Session) Answer(id StepID) (string, bool) {
	v, ok := s.answers[id]
	return v, ok
}

func (s *Session) fire(ctx context.Context, event string) error {
	if err := s.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("session %d: %s from %s: %w", s.UserID, event, s.machine.Current(), err)
	}
	return nil
}

// Cancel moves the session to the cancelled state and drops its answers.
func (s *Session) Cancel(ctx context.Context) {
	if s.machine.Can(eventCancel) {
		_ = s.fire(ctx, eventCancel)
	}
	s.clear()
}

func (s *Session) clear() {
	clear(s.answers)
}

// application assembles the record from the collected answers.
func (s *Session) application() domain.Application {
	app := domain.Application{UserID: s.UserID}
	for id, v := range s.answers {
		app.SetAnswer(string(id), v)
	}
	return app
}

func (s *Session) view(steps *Steps) SessionView {
	answers := make(map[StepID]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	st, ok := steps.Lookup(s.Current())
	if !ok {
		st = Step{ID: s.Current()}
	}
	return SessionView{UserID: s.UserID, StartedAt: s.StartedAt, Step: st, Answers: answers}
}
