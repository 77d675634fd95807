package ingest

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/patina-dev/patina/internal/assay"
	"github.com/patina-dev/patina/internal/logging"
	"github.com/patina-dev/patina/internal/materializer"
	"github.com/patina-dev/patina/internal/storage/sqlite"
	"github.com/patina-dev/patina/internal/types"
	"github.com/patina-dev/patina/internal/vectorindex"
)

// State names spec.md's ingestion pipeline state machine: idle ->
// scanning_sources -> appending_events -> materializing ->
// deriving_signals -> embedding -> indexing -> idle.
type State string

const (
	StateIdle              State = "idle"
	StateScanningSources    State = "scanning_sources"
	StateAppendingEvents    State = "appending_events"
	StateMaterializing      State = "materializing"
	StateDerivingSignals    State = "deriving_signals"
	StateEmbedding          State = "embedding"
	StateIndexing           State = "indexing"
)

// Driver runs the ingestion pipeline end to end: append new events,
// materialize facts, derive structural signals, embed, and index. Each
// transition is idempotent, so a crash mid-pipeline resumes cleanly on
// the next Run since every stage re-reads current state rather than
// threading partial progress between processes.
type Driver struct {
	store     *sqlite.Store
	mat       *materializer.Materializer
	deriver   *assay.Deriver
	embedder  Embedder
	index     *vectorindex.Index
	indexPath string
	logger    logging.Logger
	state     State
}

type Config struct {
	Store     *sqlite.Store
	Embedder  Embedder
	Index     *vectorindex.Index
	IndexPath string
	Logger    logging.Logger
}

func New(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop
	}
	return &Driver{
		store:     cfg.Store,
		mat:       materializer.New(cfg.Store, logger),
		deriver:   assay.New(cfg.Store.ReadDB()),
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		indexPath: cfg.IndexPath,
		logger:    logger,
		state:     StateIdle,
	}
}

// RunResult reports what each stage did, for CLI/log output.
type RunResult struct {
	EventsAppended  int
	FactsMaterialized int
	SignalsDerived  bool
	Embedded        int
}

// Run executes one full pipeline pass: appendEvents (supplied by the
// caller, since source scanning is source-specific) are already in the
// log by the time Run is called; Run drives materializing ->
// deriving_signals -> embedding -> indexing -> idle.
func (d *Driver) Run(ctx context.Context) (RunResult, error) {
	var result RunResult

	d.state = StateMaterializing
	matResult, err := d.mat.Run()
	if err != nil {
		d.logger.Error("materialization failed", err)
		d.state = StateIdle
		return result, err
	}
	result.FactsMaterialized = matResult.Processed

	d.state = StateDerivingSignals
	if err := d.deriver.Derive(time.Now()); err != nil {
		d.logger.Error("structural derivation failed", err)
		d.state = StateIdle
		return result, err
	}
	result.SignalsDerived = true

	if d.embedder != nil && d.index != nil {
		d.state = StateEmbedding
		n, err := EmbedAndIndex(ctx, d.store.ReadDB(), d.store, d.embedder, d.index, d.indexPath)
		if err != nil {
			d.logger.Error("embedding/indexing failed", err)
			d.state = StateIdle
			return result, err
		}
		result.Embedded = n
		d.state = StateIndexing
	}

	d.state = StateIdle
	return result, nil
}

// AppendEvents is the "appending_events" transition: callers (gitlog,
// codeparse, session, pattern, forge ingesters) hand Driver freshly
// parsed events, which are appended idempotently by content hash.
func (d *Driver) AppendEvents(events []types.Event) (sqlite.AppendResult, error) {
	d.state = StateAppendingEvents
	res, err := d.store.Append(events)
	d.state = StateIdle
	return res, err
}

// Watch re-runs Run after a filesystem event in root (debounced) and, when
// cronSpec is non-empty, on that cron schedule as a fallback for events
// fsnotify misses (network filesystems, editor atomic-rename saves) —
// mirrors the teacher's belt-and-suspenders daemon watch loop. fsnotify
// watches root itself, not its subdirectories, and Run processes only
// events already in the log: Watch does not rescan git history or
// source files.
func (d *Driver) Watch(ctx context.Context, root string, debounce time.Duration, cronSpec string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(root); err != nil {
		return err
	}

	c := cron.New()
	if cronSpec != "" {
		if _, err := c.AddFunc(cronSpec, func() { _, _ = d.Run(ctx) }); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() { _, _ = d.Run(ctx) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("watch error", "error", err.Error())
		}
	}
}
