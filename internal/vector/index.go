// Package vector provides a brute-force cosine similarity index backed by a
// SQLite cache file. The cache is derived data: it can always be rebuilt from
// the durable embedding store.
package vector

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/thebtf/lifelog/pkg/models"
)

// Match is one similarity search result.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type entry struct {
	id   string
	vec  models.Vector
	norm float64
}

// Index holds all vectors in memory for exact search and mirrors them to a
// SQLite file so restarts do not require re-embedding.
type Index struct {
	db      *sql.DB
	metrics *Metrics
	byID    map[string]int
	entries []entry
	mu      sync.RWMutex
}

// Open creates or opens the index cache at path and loads its vectors into
// memory.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS vectors (
		id TEXT PRIMARY KEY,
		vector TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create vectors table: %w", err)
	}

	idx := &Index{
		db:      db,
		metrics: NewMetrics(),
		byID:    make(map[string]int),
	}
	if err := idx.load(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (x *Index) load() error {
	rows, err := x.db.Query(`SELECT id, vector FROM vectors`)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var vec models.Vector
		if err := rows.Scan(&id, &vec); err != nil {
			return fmt.Errorf("scan index row: %w", err)
		}
		x.byID[id] = len(x.entries)
		x.entries = append(x.entries, entry{id: id, vec: vec, norm: norm(vec)})
	}
	return rows.Err()
}

// Add inserts or replaces one vector.
func (x *Index) Add(ctx context.Context, id string, vec models.Vector) error {
	if _, err := x.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vectors (id, vector) VALUES (?, ?)`, id, vec); err != nil {
		return fmt.Errorf("persist vector %s: %w", id, err)
	}

	x.mu.Lock()
	if pos, ok := x.byID[id]; ok {
		x.entries[pos] = entry{id: id, vec: vec, norm: norm(vec)}
	} else {
		x.byID[id] = len(x.entries)
		x.entries = append(x.entries, entry{id: id, vec: vec, norm: norm(vec)})
	}
	x.mu.Unlock()

	x.metrics.RecordAdd()
	return nil
}

// Query returns the k nearest vectors by cosine similarity, highest first.
// Equal scores order by id so results are deterministic. Zero-norm vectors
// never match.
func (x *Index) Query(vec models.Vector, k int) []Match {
	defer x.metrics.QueryTimer()()

	qn := norm(vec)
	if qn == 0 || k <= 0 {
		return nil
	}

	x.mu.RLock()
	matches := make([]Match, 0, len(x.entries))
	for _, e := range x.entries {
		if e.norm == 0 {
			continue
		}
		matches = append(matches, Match{ID: e.id, Score: dot(vec, e.vec) / (qn * e.norm)})
	}
	x.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Rebuild replaces the entire index with vectors from the given records.
func (x *Index) Rebuild(ctx context.Context, records []*models.EmbeddingRecord) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear index: %w", err)
	}
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vectors (id, vector) VALUES (?, ?)`, rec.ID, rec.Vector); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert vector %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}

	x.mu.Lock()
	x.entries = x.entries[:0]
	x.byID = make(map[string]int, len(records))
	for _, rec := range records {
		x.byID[rec.ID] = len(x.entries)
		x.entries = append(x.entries, entry{id: rec.ID, vec: rec.Vector, norm: norm(rec.Vector)})
	}
	x.mu.Unlock()

	x.metrics.RecordRebuild(len(records))
	return nil
}

// Count returns the number of indexed vectors.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Metrics returns the index usage counters.
func (x *Index) Metrics() *Metrics {
	return x.metrics
}

// Close closes the underlying cache file.
func (x *Index) Close() error {
	return x.db.Close()
}

func dot(a, b models.Vector) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v models.Vector) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// Cosine computes cosine similarity between two vectors. Zero-norm input
// yields zero.
func Cosine(a, b models.Vector) float64 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}
