package sqlite

import (
	"database/sql"
	"time"

	"scholarship-telegram-bot/internal/usecase"
)

type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(db *sql.DB) *FunnelRepo {
	return &FunnelRepo{db: db}
}

func migrateFunnel(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS funnel_hits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    stage TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_stage ON funnel_hits(stage);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_user_stage ON funnel_hits(user_id, stage);
`)
	return err
}

func (r *FunnelRepo) Hit(stage usecase.StepID, userID int64) error {
	_, err := r.db.Exec(`INSERT INTO funnel_hits(user_id, stage, created_at) VALUES(?,?,?)`, userID, string(stage), time.Now())
	return err
}

func (r *FunnelRepo) Counts() (map[usecase.StepID]int, error) {
	rows, err := r.db.Query(`SELECT stage, COUNT(DISTINCT user_id) FROM funnel_hits GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[usecase.StepID]int{}
	for rows.Next() {
		var stage string
		var cnt int
		if err := rows.Scan(&stage, &cnt); err != nil {
			return nil, err
		}
		out[usecase.StepID(stage)] = cnt
	}
	return out, rows.Err()
}
