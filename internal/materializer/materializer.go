// Package materializer implements the Fact Materializer: it dispatches
// events since a watermark to per-type handlers that write relational
// facts and FTS rows inside one transaction per batch, modeled on the
// teacher's internal/storage/sqlite/events.go audit-trail writer and
// its internal/storage/sqlite/migrations/*.go numbered-function style,
// generalized from an issue audit trail to the full fact/FTS projection.
package materializer

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/patina-dev/patina/internal/logging"
	"github.com/patina-dev/patina/internal/storage/sqlite"
	"github.com/patina-dev/patina/internal/types"
)

// Result summarizes one materialization run for logging/diagnostics.
type Result struct {
	Processed   int
	Quarantined int
}

// Materializer projects the event log into relational tables and FTS
// indices.
type Materializer struct {
	store    *sqlite.Store
	log      logging.Logger
	validate *validator.Validate
}

func New(store *sqlite.Store, log logging.Logger) *Materializer {
	if log == nil {
		log = logging.Nop
	}
	return &Materializer{store: store, log: log, validate: validator.New()}
}

// Run executes steps 1-7 of the materialization algorithm: read
// watermark, stream new events in order, dispatch by event_type,
// advance the watermark atomically with the writes. Batch-atomic: a
// failed handler aborts the whole batch (full reconstruction remains
// possible by resetting the watermark to zero).
func (m *Materializer) Run() (Result, error) {
	after, err := m.store.Watermark()
	if err != nil {
		return Result{}, fmt.Errorf("materializer: reading watermark: %w", err)
	}

	events, err := m.store.Scan(types.EventFilter{AfterID: after})
	if err != nil {
		return Result{}, fmt.Errorf("materializer: scanning events: %w", err)
	}
	if len(events) == 0 {
		return Result{}, nil
	}

	var res Result
	var quarantineIDs []string

	err = m.store.WithWrite(func(tx *sql.Tx) error {
		var lastID string
		for _, e := range events {
			if !gjson.ValidBytes(e.Data) {
				quarantineIDs = append(quarantineIDs, e.ID)
				continue
			}
			if err := m.dispatch(tx, e); err != nil {
				if isQuarantineErr(err) {
					quarantineIDs = append(quarantineIDs, e.ID)
					continue
				}
				return fmt.Errorf("materializer: handling event %s (%s): %w", e.ID, e.EventType, err)
			}
			res.Processed++
			lastID = e.ID
		}
		if lastID != "" {
			if err := sqlite.AdvanceWatermark(tx, lastID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	for _, id := range quarantineIDs {
		if qErr := m.store.Quarantine(id); qErr != nil {
			m.log.Warn("materializer: failed to quarantine event", "id", id, "err", qErr)
			continue
		}
		res.Quarantined++
	}

	return res, nil
}

// quarantineError marks a handler failure as "bad payload, not a storage
// fault" — the distinction between aborting the batch and quarantining
// one event.
type quarantineError struct{ err error }

func (q *quarantineError) Error() string { return q.err.Error() }
func (q *quarantineError) Unwrap() error { return q.err }

func isQuarantineErr(err error) bool {
	_, ok := err.(*quarantineError)
	return ok
}

func (m *Materializer) dispatch(tx *sql.Tx, e types.Event) error {
	switch {
	case e.EventType == types.EventGitCommit:
		return m.handleCommit(tx, e)
	case e.EventType == types.EventCodeFunction || e.EventType == types.EventCodeType:
		return m.handleSymbol(tx, e, symbolKindFor(e.EventType))
	case e.EventType == types.EventCodeImport:
		return m.handleImport(tx, e)
	case e.EventType == types.EventCodeSymbol:
		// Deduplication invariant: code.symbol events are excluded from
		// code_fts (they duplicate richer function/type events) but are
		// still acknowledged so the watermark advances past them.
		return nil
	case strings.HasPrefix(e.EventType, "session."):
		return m.handleSession(tx, e)
	case e.EventType == types.EventPatternDoc:
		return m.handlePattern(tx, e)
	case e.EventType == types.EventForgeIssue:
		return m.handleForgeIssue(tx, e)
	case e.EventType == types.EventForgePR:
		return m.handleForgePR(tx, e)
	case strings.HasPrefix(e.EventType, "scry."):
		// Telemetry events are read directly by internal/observability
		// and internal/bench from the event log; they have no relational
		// projection of their own.
		return nil
	default:
		return &quarantineError{fmt.Errorf("unknown event_type %q", e.EventType)}
	}
}

func symbolKindFor(eventType string) types.SymbolKind {
	if eventType == types.EventCodeType {
		return types.KindType
	}
	return types.KindFunction
}

func decodeValidate[T any](m *Materializer, data []byte, out *T) error {
	if err := json.Unmarshal(data, out); err != nil {
		return &quarantineError{err}
	}
	if err := m.validate.Struct(out); err != nil {
		return &quarantineError{err}
	}
	return nil
}
