// Package recorder turns observed activity events into durable records and
// queues file content for background enrichment.
package recorder

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thebtf/lifelog/pkg/models"
)

// DefaultQueueSize bounds the enrichment backlog. Events past the bound are
// recorded but not enriched.
const DefaultQueueSize = 256

// ActivityStore persists activity records.
type ActivityStore interface {
	Insert(ctx context.Context, rec *models.ActivityRecord) error
}

// Enricher extracts, chunks, and embeds the content behind a record. Process
// is called from worker goroutines; Supports gates enqueueing so files with
// no extraction handler never occupy the queue.
type Enricher interface {
	Process(ctx context.Context, rec *models.ActivityRecord) error
	Supports(path string) bool
}

// Recorder validates events, writes them synchronously, and hands file edits
// to the enricher off the request path. Enrichment failures are logged and
// never affect the recorded event.
type Recorder struct {
	store    ActivityStore
	enricher Enricher
	log      zerolog.Logger
	queue    chan *models.ActivityRecord
	wg       sync.WaitGroup
	once     sync.Once
}

// New creates a recorder. enricher may be nil, in which case file edits are
// recorded without content enrichment.
func New(store ActivityStore, enricher Enricher, log zerolog.Logger) *Recorder {
	return &Recorder{
		store:    store,
		enricher: enricher,
		log:      log.With().Str("component", "recorder").Logger(),
		queue:    make(chan *models.ActivityRecord, DefaultQueueSize),
	}
}

// Start launches workers background-processing queued records until ctx is
// cancelled.
func (r *Recorder) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case rec, ok := <-r.queue:
					if !ok {
						return
					}
					r.enrich(ctx, rec)
				}
			}
		}()
	}
}

// Record validates ev, persists it, and returns the stored record. A nil
// error means the event is durable; enrichment happens asynchronously.
func (r *Recorder) Record(ctx context.Context, ev Event) (*models.ActivityRecord, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	rec := ev.record()
	if err := r.store.Insert(ctx, rec); err != nil {
		return nil, err
	}

	if r.enricher != nil && rec.Kind == models.KindFileEdit && r.enricher.Supports(rec.FilePath.String) {
		select {
		case r.queue <- rec:
		default:
			r.log.Warn().Int64("activity_id", rec.ID).Msg("enrichment queue full, skipping")
		}
	}

	return rec, nil
}

func (r *Recorder) enrich(ctx context.Context, rec *models.ActivityRecord) {
	if err := r.enricher.Process(ctx, rec); err != nil {
		r.log.Warn().Err(err).
			Int64("activity_id", rec.ID).
			Str("file_path", rec.FilePath.String).
			Msg("enrichment failed")
		return
	}
	r.log.Debug().Int64("activity_id", rec.ID).Msg("enrichment complete")
}

// Close stops accepting work and waits for in-flight enrichment to finish.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.queue) })
	r.wg.Wait()
}
