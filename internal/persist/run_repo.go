package persist

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrRunNotFound = errors.New("run not found")

// RunRow is one recorded simulation run.
type RunRow struct {
	ID        int64
	Seed      uint32
	MapName   string
	Scenario  string
	Frames    int
	CreatedAt time.Time
}

// TickDigest is the state digest taken after a frame.
type TickDigest struct {
	Frame  int
	Digest []byte
}

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) CreateRun(ctx context.Context, seed uint32, mapName, scenario string) (*RunRow, error) {
	row := &RunRow{Seed: seed, MapName: mapName, Scenario: scenario, CreatedAt: time.Now().Truncate(time.Second)}
	err := r.db.SQL.QueryRowContext(ctx, r.db.rebind(
		`INSERT INTO runs (seed, map_name, scenario, created_at)
		 VALUES (?, ?, ?, ?) RETURNING id`),
		int64(seed), mapName, scenario, row.CreatedAt.Unix(),
	).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return row, nil
}

func (r *RunRepo) FindRun(ctx context.Context, id int64) (*RunRow, error) {
	row := &RunRow{ID: id}
	var seed, created int64
	err := r.db.SQL.QueryRowContext(ctx, r.db.rebind(
		`SELECT seed, map_name, scenario, frames, created_at FROM runs WHERE id = ?`), id,
	).Scan(&seed, &row.MapName, &row.Scenario, &row.Frames, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find run %d: %w", id, err)
	}
	row.Seed = uint32(seed)
	row.CreatedAt = time.Unix(created, 0)
	return row, nil
}

// AppendDigests writes a batch of digests in a single transaction and
// moves the frame count of the run forward.
func (r *RunRepo) AppendDigests(ctx context.Context, runID int64, digests []TickDigest) error {
	if len(digests) == 0 {
		return nil
	}
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("digests begin: %w", err)
	}
	defer tx.Rollback()

	insert := r.db.rebind(`INSERT INTO tick_digests (run_id, frame, digest) VALUES (?, ?, ?)`)
	for _, d := range digests {
		if _, err := tx.ExecContext(ctx, insert, runID, d.Frame, d.Digest); err != nil {
			return fmt.Errorf("digest insert frame %d: %w", d.Frame, err)
		}
	}
	last := digests[len(digests)-1].Frame
	if _, err := tx.ExecContext(ctx, r.db.rebind(
		`UPDATE runs SET frames = ? WHERE id = ? AND frames < ?`), last, runID, last,
	); err != nil {
		return fmt.Errorf("digest frames: %w", err)
	}
	return tx.Commit()
}

// Digests returns the digests of a run ordered by frame.
func (r *RunRepo) Digests(ctx context.Context, runID int64) ([]TickDigest, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(
		`SELECT frame, digest FROM tick_digests WHERE run_id = ? ORDER BY frame`), runID)
	if err != nil {
		return nil, fmt.Errorf("query digests: %w", err)
	}
	defer rows.Close()

	var out []TickDigest
	for rows.Next() {
		var d TickDigest
		if err := rows.Scan(&d.Frame, &d.Digest); err != nil {
			return nil, fmt.Errorf("scan digest: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// FirstDivergence compares recorded digests with a replay and returns the
// first frame that differs, or -1 when the common prefix matches.
func FirstDivergence(recorded, replayed []TickDigest) int {
	for i := 0; i < len(recorded) && i < len(replayed); i++ {
		if recorded[i].Frame != replayed[i].Frame || !bytes.Equal(recorded[i].Digest, replayed[i].Digest) {
			return recorded[i].Frame
		}
	}
	return -1
}
