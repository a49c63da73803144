package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"scholarship-telegram-bot/internal/domain"
)

// timeLayout is fixed-width so that text ordering matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(timeLayout, s) }

const maxIDAttempts = 16

type ApplicationRepo struct {
	db    *sql.DB
	newID func() string
}

func NewApplicationRepo(db *sql.DB) *ApplicationRepo {
	return &ApplicationRepo{db: db, newID: domain.NewApplicationID}
}

// WithIDGenerator replaces the id source; used by tests to force collisions.
func (r *ApplicationRepo) WithIDGenerator(gen func() string) *ApplicationRepo {
	r.newID = gen
	return r
}

func migrateApplications(db *sql.DB) error {
	cols := make([]string, 0, len(domain.AnswerFields))
	for _, f := range domain.AnswerFields {
		cols = append(cols, "    "+f+" TEXT NOT NULL DEFAULT ''")
	}
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS applications (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    application_id TEXT NOT NULL UNIQUE,
    user_id INTEGER NOT NULL,
    submitted_at TEXT NOT NULL,
` + strings.Join(cols, ",\n") + `,
    status TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id, submitted_at);
`)
	return err
}

var (
	insertApplicationSQL = func() string {
		cols := append([]string{"application_id", "user_id", "submitted_at"}, domain.AnswerFields...)
		cols = append(cols, "status")
		return `INSERT INTO applications(` + strings.Join(cols, ", ") + `) VALUES(` +
			strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + `) ON CONFLICT(application_id) DO NOTHING`
	}()
	selectLatestSQL = `SELECT application_id, user_id, submitted_at, ` + strings.Join(domain.AnswerFields, ", ") +
		`, status FROM applications WHERE user_id = ? ORDER BY submitted_at DESC, seq DESC LIMIT 1`
)

func (r *ApplicationRepo) Commit(ctx context.Context, app domain.Application) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		app.ID = r.newID()
		args := []any{app.ID, app.UserID, formatTime(app.SubmittedAt)}
		for _, f := range domain.AnswerFields {
			args = append(args, app.Answer(f))
		}
		args = append(args, string(app.Status))

		res, err := r.db.ExecContext(ctx, insertApplicationSQL, args...)
		if err != nil {
			return "", fmt.Errorf("%w: insert application: %w", domain.ErrStorage, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return "", fmt.Errorf("%w: insert application: %w", domain.ErrStorage, err)
		}
		if n == 1 {
			return app.ID, nil
		}
	}
	return "", fmt.Errorf("%w: no free application id after %d attempts", domain.ErrStorage, maxIDAttempts)
}

func (r *ApplicationRepo) FindLatestByUser(ctx context.Context, userID int64) (domain.Application, error) {
	var (
		app         domain.Application
		submittedAt string
		status      string
	)
	answers := make([]string, len(domain.AnswerFields))
	dest := []any{&app.ID, &app.UserID, &submittedAt}
	for i := range answers {
		dest = append(dest, &answers[i])
	}
	dest = append(dest, &status)

	err := r.db.QueryRowContext(ctx, selectLatestSQL, userID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Application{}, domain.ErrApplicationNotFound
	}
	if err != nil {
		return domain.Application{}, fmt.Errorf("%w: select application: %w", domain.ErrStorage, err)
	}
	if app.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return domain.Application{}, fmt.Errorf("%w: parse submitted_at: %w", domain.ErrStorage, err)
	}
	app.Status = domain.Status(status)
	for i, f := range domain.AnswerFields {
		app.SetAnswer(f, answers[i])
	}
	return app, nil
}
