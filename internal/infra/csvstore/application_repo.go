// Package csvstore keeps applications in a flat UTF-8 CSV file, one row per application.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"scholarship-telegram-bot/internal/domain"
)

const (
	colApplicationID = "application_id"
	colUserID        = "user_id"
	colSubmittedAt   = "submitted_at"
	colStatus        = "status"
)

// Header is the column layout of the file.
var Header = func() []string {
	h := []string{colApplicationID, colUserID, colSubmittedAt}
	h = append(h, domain.AnswerFields...)
	return append(h, colStatus)
}()

var ErrHeaderMismatch = errors.New("csv header does not match application layout")

// ApplicationRepo appends applications to a CSV file.
// A mutex serializes appends and scans within the process; each record is
// written with a single write call.
type ApplicationRepo struct {
	mu    sync.Mutex
	path  string
	ids   map[string]struct{}
	newID func() string
}

type Option func(*ApplicationRepo)

func WithIDGenerator(gen func() string) Option {
	return func(r *ApplicationRepo) { r.newID = gen }
}

// NewApplicationRepo opens path, writing the header if the file is new or empty.
func NewApplicationRepo(path string, opts ...Option) (*ApplicationRepo, error) {
	r := &ApplicationRepo{path: path, ids: make(map[string]struct{}), newID: domain.NewApplicationID}
	for _, opt := range opts {
		opt(r)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureHeader(); err != nil {
		return nil, err
	}
	err := r.scan(func(row map[string]string) {
		r.ids[row[colApplicationID]] = struct{}{}
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ensureHeader is idempotent: it writes the header only when the file is
// missing or empty, and refuses a file whose header differs.
func (r *ApplicationRepo) ensureHeader() error {
	f, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", domain.ErrStorage, r.path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", domain.ErrStorage, r.path, err)
	}
	if info.Size() == 0 {
		buf, err := encodeRow(Header)
		if err != nil {
			return fmt.Errorf("%w: encode header: %w", domain.ErrStorage, err)
		}
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("%w: write header: %w", domain.ErrStorage, err)
		}
		return nil
	}
	got, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("%w: read header: %w", domain.ErrStorage, err)
	}
	if !slices.Equal(got, Header) {
		return fmt.Errorf("%w: %w: %s", domain.ErrStorage, ErrHeaderMismatch, r.path)
	}
	return nil
}

func (r *ApplicationRepo) Commit(ctx context.Context, app domain.Application) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureHeader(); err != nil {
		return "", err
	}

	id := r.newID()
	for _, taken := r.ids[id]; taken; _, taken = r.ids[id] {
		id = r.newID()
	}
	app.ID = id

	buf, err := encodeRow(toRow(app))
	if err != nil {
		return "", fmt.Errorf("%w: encode application: %w", domain.ErrStorage, err)
	}
	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", domain.ErrStorage, r.path, err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: append application: %w", domain.ErrStorage, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %w", domain.ErrStorage, r.path, err)
	}
	r.ids[id] = struct{}{}
	return id, nil
}

// FindLatestByUser scans the whole file and returns the user's row with the
// greatest submitted_at; on equal timestamps the later row wins.
func (r *ApplicationRepo) FindLatestByUser(ctx context.Context, userID int64) (domain.Application, error) {
	if err := ctx.Err(); err != nil {
		return domain.Application{}, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	want := strconv.FormatInt(userID, 10)
	var (
		best    domain.Application
		found   bool
		convErr error
	)
	err := r.scan(func(row map[string]string) {
		if convErr != nil || row[colUserID] != want {
			return
		}
		app, err := fromRow(row)
		if err != nil {
			convErr = err
			return
		}
		if !found || !app.SubmittedAt.Before(best.SubmittedAt) {
			best, found = app, true
		}
	})
	if err != nil {
		return domain.Application{}, err
	}
	if convErr != nil {
		return domain.Application{}, fmt.Errorf("%w: %w", domain.ErrStorage, convErr)
	}
	if !found {
		return domain.Application{}, domain.ErrApplicationNotFound
	}
	return best, nil
}

func (r *ApplicationRepo) scan(fn func(row map[string]string)) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", domain.ErrStorage, r.path, err)
	}
	defer f.Close()
	rd := csv.NewReader(f)
	header, err := rd.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read header: %w", domain.ErrStorage, err)
	}
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: read row: %w", domain.ErrStorage, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		fn(row)
	}
}

func encodeRow(rec []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(rec); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRow(app domain.Application) []string {
	rec := make([]string, 0, len(Header))
	rec = append(rec, app.ID, strconv.FormatInt(app.UserID, 10), app.SubmittedAt.Format(time.RFC3339Nano))
	for _, f := range domain.AnswerFields {
		rec = append(rec, app.Answer(f))
	}
	return append(rec, string(app.Status))
}

func fromRow(row map[string]string) (domain.Application, error) {
	userID, err := strconv.ParseInt(row[colUserID], 10, 64)
	if err != nil {
		return domain.Application{}, fmt.Errorf("parse user_id %q: %w", row[colUserID], err)
	}
	submittedAt, err := time.Parse(time.RFC3339Nano, row[colSubmittedAt])
	if err != nil {
		return domain.Application{}, fmt.Errorf("parse submitted_at %q: %w", row[colSubmittedAt], err)
	}
	app := domain.Application{
		ID:          row[colApplicationID],
		UserID:      userID,
		SubmittedAt: submittedAt,
		Status:      domain.Status(row[colStatus]),
	}
	for _, f := range domain.AnswerFields {
		app.SetAnswer(f, row[f])
	}
	return app, nil
}
