package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/drevilslab/openbw/internal/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, config.DatabaseConfig{
		Driver:          DriverSQLite,
		DSN:             filepath.Join(t.TempDir(), "runs.db"),
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(db.Close)
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations() failed: %v", err)
	}
	return db
}

func TestRunRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepo(openTestDB(t))

	run, err := repo.CreateRun(ctx, 0xdeadbeef, "test.yaml", "")
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("expected a run id")
	}

	batch := []TickDigest{
		{Frame: 1, Digest: []byte{1, 2, 3}},
		{Frame: 2, Digest: []byte{4, 5, 6}},
	}
	if err := repo.AppendDigests(ctx, run.ID, batch); err != nil {
		t.Fatalf("AppendDigests() failed: %v", err)
	}
	if err := repo.AppendDigests(ctx, run.ID, []TickDigest{{Frame: 3, Digest: []byte{7}}}); err != nil {
		t.Fatalf("AppendDigests() failed: %v", err)
	}

	got, err := repo.FindRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("FindRun() failed: %v", err)
	}
	if got.Seed != 0xdeadbeef {
		t.Errorf("expected seed %x, got %x", uint32(0xdeadbeef), got.Seed)
	}
	if got.Frames != 3 {
		t.Errorf("expected 3 frames, got %d", got.Frames)
	}
	if got.MapName != "test.yaml" {
		t.Errorf("expected test.yaml, got %s", got.MapName)
	}

	digests, err := repo.Digests(ctx, run.ID)
	if err != nil {
		t.Fatalf("Digests() failed: %v", err)
	}
	if len(digests) != 3 {
		t.Fatalf("expected 3 digests, got %d", len(digests))
	}
	if digests[1].Frame != 2 || digests[1].Digest[2] != 6 {
		t.Errorf("expected frame 2 digest, got %+v", digests[1])
	}
}

func TestDuplicateFrameRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepo(openTestDB(t))
	run, err := repo.CreateRun(ctx, 1, "m", "s")
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	if err := repo.AppendDigests(ctx, run.ID, []TickDigest{{Frame: 1, Digest: []byte{1}}}); err != nil {
		t.Fatalf("AppendDigests() failed: %v", err)
	}
	err = repo.AppendDigests(ctx, run.ID, []TickDigest{
		{Frame: 2, Digest: []byte{2}},
		{Frame: 1, Digest: []byte{9}},
	})
	if err == nil {
		t.Fatal("expected a duplicate frame error")
	}
	digests, err := repo.Digests(ctx, run.ID)
	if err != nil {
		t.Fatalf("Digests() failed: %v", err)
	}
	if len(digests) != 1 {
		t.Errorf("expected the batch rolled back, got %d digests", len(digests))
	}
}

func TestFindRunMissing(t *testing.T) {
	repo := NewRunRepo(openTestDB(t))
	if _, err := repo.FindRun(context.Background(), 99); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestFirstDivergence(t *testing.T) {
	a := []TickDigest{{1, []byte{1}}, {2, []byte{2}}, {3, []byte{3}}}
	b := []TickDigest{{1, []byte{1}}, {2, []byte{2}}, {3, []byte{4}}}
	if got := FirstDivergence(a, b); got != 3 {
		t.Errorf("expected frame 3, got %d", got)
	}
	if got := FirstDivergence(a, a[:2]); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}

func TestRebind(t *testing.T) {
	db := &DB{driver: DriverPostgres}
	if got := db.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("expected $ placeholders, got %s", got)
	}
	db.driver = DriverSQLite
	if got := db.rebind("a = ?"); got != "a = ?" {
		t.Errorf("expected unchanged query, got %s", got)
	}
}
