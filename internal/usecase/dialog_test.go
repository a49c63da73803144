package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarship-telegram-bot/internal/domain"
)

type fakeRepo struct {
	mu   sync.Mutex
	apps []domain.Application
	err  error
	seq  int
}

func (r *fakeRepo) Commit(ctx context.Context, app domain.Application) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.seq++
	app.ID = fmt.Sprintf("app%05d", r.seq)
	r.apps = append(r.apps, app)
	return app.ID, nil
}

func (r *fakeRepo) FindLatestByUser(ctx context.Context, userID int64) (domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.apps) - 1; i >= 0; i-- {
		if r.apps[i].UserID == userID {
			return r.apps[i], nil
		}
	}
	return domain.Application{}, domain.ErrApplicationNotFound
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

// fullAnswers returns one input per step, in step order.
func fullAnswers(gpa, pkg string) []string {
	return []string{
		"Amina Yusuf", "amina@example.com", "+2348000000000", "15/05/2000", "Nigeria",
		"A12345678", "15/05/2030", "Lagos, Nigeria",
		"Bachelor's Degree", "University of Lagos", "2023", "Computer Science", gpa,
		"Master's Degree", "Computer Science & IT", "Beginner", pkg,
	}
}

func TestScholarshipStepsOrder(t *testing.T) {
	steps := ScholarshipSteps()
	require.Equal(t, 17, steps.Len())
	want := []StepID{
		StepName, StepEmail, StepPhone, StepDateOfBirth, StepCountry, StepPassportNumber,
		StepPassportExpiry, StepBirthPlace, StepEducationLevel, StepSchoolName,
		StepGraduationYear, StepFieldStudy, StepGPA, StepDesiredLevel, StepPreferredField,
		StepRussianLevel, StepServicePackage,
	}
	for i, st := range steps.All() {
		assert.Equal(t, want[i], st.ID)
		assert.Equal(t, i+1, steps.Position(st.ID))
		if st.Kind == KindChoice {
			assert.NotEmpty(t, st.Options, st.ID)
		}
	}
	assert.Equal(t, KindOptionalText, mustStep(t, steps, StepGPA).Kind)
	assert.Len(t, mustStep(t, steps, StepServicePackage).Options, 3)
}

func mustStep(t *testing.T, steps *Steps, id StepID) Step {
	t.Helper()
	st, ok := steps.Lookup(id)
	require.True(t, ok)
	return st
}

func TestDialogAdvanceWalksEveryStep(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	d := NewDialog(ScholarshipSteps(), repo, WithClock(fixedClock()))
	s := NewSession(7, d.Steps(), time.Now())

	inputs := fullAnswers("3.5/4.0", PackagePremium)
	for i, in := range inputs[:len(inputs)-1] {
		out := d.Advance(ctx, s, in)
		require.Equal(t, OutcomePrompt, out.Kind, "step %d", i+1)
		assert.Equal(t, in, out.Value)
		assert.Equal(t, d.Steps().All()[i+1].ID, out.Next.ID)
		assert.Equal(t, out.Next.ID, s.Current())
	}

	out := d.Advance(ctx, s, inputs[len(inputs)-1])
	require.Equal(t, OutcomeSubmitted, out.Kind)
	require.NoError(t, out.Err)
	app := out.Application
	assert.Equal(t, "app00001", app.ID)
	assert.Equal(t, int64(7), app.UserID)
	assert.Equal(t, domain.StatusSubmitted, app.Status)
	assert.Equal(t, "$100", app.Price)
	assert.Equal(t, "3.5/4.0", app.GPA)
	assert.Equal(t, "Amina Yusuf", app.Name)
	assert.Equal(t, PackagePremium, app.ServicePackage)
	assert.Equal(t, fixedClock()(), app.SubmittedAt)

	assert.Equal(t, StageSubmitted, s.Current())
	assert.Empty(t, s.answers)
	require.Len(t, repo.apps, 1)
}

func TestDialogGPASkip(t *testing.T) {
	cases := []struct {
		input   string
		stored  bool
		wantGPA string
	}{
		{"skip", false, ""},
		{"Skip", false, ""},
		{"SKIP", false, ""},
		{" skip", true, " skip"},
		{"skipped", true, "skipped"},
		{"85%", true, "85%"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			ctx := context.Background()
			repo := &fakeRepo{}
			d := NewDialog(ScholarshipSteps(), repo)
			s := NewSession(1, d.Steps(), time.Now())
			var out Outcome
			for _, in := range fullAnswers(tc.input, PackageBasic) {
				if s.Current() == StepDesiredLevel {
					_, ok := s.Answer(StepGPA)
					assert.Equal(t, tc.stored, ok)
				}
				out = d.Advance(ctx, s, in)
			}
			require.Equal(t, OutcomeSubmitted, out.Kind)
			assert.Equal(t, tc.wantGPA, out.Application.GPA)
		})
	}
}

func TestDialogRejectsEmptyInput(t *testing.T) {
	ctx := context.Background()
	d := NewDialog(ScholarshipSteps(), &fakeRepo{})
	s := NewSession(1, d.Steps(), time.Now())

	for _, in := range []string{"", "   ", "\n\t"} {
		out := d.Advance(ctx, s, in)
		assert.Equal(t, OutcomeInvalid, out.Kind)
		assert.ErrorIs(t, out.Err, ErrEmptyAnswer)
		assert.Equal(t, StepName, out.Next.ID)
		assert.Equal(t, StepName, s.Current())
	}
	_, ok := s.Answer(StepName)
	assert.False(t, ok)
}

func TestDialogChoiceAcceptsFreeText(t *testing.T) {
	ctx := context.Background()
	d := NewDialog(ScholarshipSteps(), &fakeRepo{})
	s := NewSession(1, d.Steps(), time.Now())
	for _, in := range fullAnswers("skip", "x")[:8] {
		d.Advance(ctx, s, in)
	}
	require.Equal(t, StepEducationLevel, s.Current())
	out := d.Advance(ctx, s, "Doctorate")
	require.Equal(t, OutcomePrompt, out.Kind)
	v, _ := s.Answer(StepEducationLevel)
	assert.Equal(t, "Doctorate", v)
}

func TestDialogUnknownPackageFallsBackToVIP(t *testing.T) {
	ctx := context.Background()
	d := NewDialog(ScholarshipSteps(), &fakeRepo{})
	s := NewSession(1, d.Steps(), time.Now())
	var out Outcome
	for _, in := range fullAnswers("skip", "Something else entirely") {
		out = d.Advance(ctx, s, in)
	}
	require.Equal(t, OutcomeSubmitted, out.Kind)
	assert.Equal(t, "$200", out.Application.Price)
}

func TestDialogCommitFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := fmt.Errorf("%w: disk full", domain.ErrStorage)
	d := NewDialog(ScholarshipSteps(), &fakeRepo{err: storeErr})
	s := NewSession(1, d.Steps(), time.Now())
	var out Outcome
	for _, in := range fullAnswers("skip", PackageVIP) {
		out = d.Advance(ctx, s, in)
	}
	require.Equal(t, OutcomeFailed, out.Kind)
	assert.True(t, errors.Is(out.Err, domain.ErrStorage))
	assert.Equal(t, StageFailed, s.Current())
	assert.Empty(t, s.answers)

	out = d.Advance(ctx, s, "again")
	assert.Equal(t, OutcomeFailed, out.Kind)
}

func TestStepAcknowledge(t *testing.T) {
	steps := ScholarshipSteps()
	assert.Equal(t, "✅ Name recorded: Amina", mustStep(t, steps, StepName).Acknowledge("Amina"))
	assert.Equal(t, "✅ Education information complete!", mustStep(t, steps, StepGPA).Acknowledge("skip"))
}

func TestDialogPricesEachPackageLabel(t *testing.T) {
	cases := []struct {
		pkg   string
		price string
	}{
		{PackageBasic, "$50"},
		{PackagePremium, "$100"},
		{PackageVIP, "$200"},
	}
	for _, tc := range cases {
		t.Run(tc.price, func(t *testing.T) {
			ctx := context.Background()
			repo := &fakeRepo{}
			d := NewDialog(ScholarshipSteps(), repo, WithClock(fixedClock()))
			s := NewSession(3, d.Steps(), time.Now())

			var out Outcome
			for _, in := range fullAnswers("skip", tc.pkg) {
				out = d.Advance(ctx, s, in)
			}
			require.Equal(t, OutcomeSubmitted, out.Kind)
			assert.Equal(t, tc.price, out.Application.Price)
			require.Len(t, repo.apps, 1)
			assert.Equal(t, tc.price, repo.apps[0].Price)
		})
	}
}
