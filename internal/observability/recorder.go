// Package observability writes per-query provenance back through the
// Event Log Store and exposes a parallel prometheus metrics surface,
// grounded on the teacher's internal/audit/audit.go per-action audit
// trail, generalized from issue-lifecycle actions to scry.query /
// scry.use / scry.feedback events (spec.md §4.10).
package observability

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/patina-dev/patina/internal/storage/sqlite"
	"github.com/patina-dev/patina/internal/types"
)

// Recorder is the narrow capability the RPC tool layer needs: record a
// served query and its downstream usage/feedback signals.
type Recorder interface {
	RecordQuery(query, mode, intent string, resp types.FusedResponse) string
	RecordUse(queryID, docID string, rank int)
	RecordFeedback(queryID, signal, comment string)
}

// EventRecorder implements Recorder by appending to the Event Log
// Store; every event it writes is itself subject to materialization
// like any other ingested event, consistent with spec's "QueryEvent ...
// written to the event log" note.
type EventRecorder struct {
	store *sqlite.Store
}

func NewEventRecorder(store *sqlite.Store) *EventRecorder {
	return &EventRecorder{store: store}
}

func (r *EventRecorder) RecordQuery(query, mode, intent string, resp types.FusedResponse) string {
	queryID := uuid.NewString()
	MetricQueryTotal.WithLabelValues(mode).Inc()

	type contribution struct {
		Oracle   string  `json:"oracle"`
		Rank     int     `json:"rank"`
		RawScore float64 `json:"raw_score"`
	}
	type resultEntry struct {
		DocID         string         `json:"doc_id"`
		Rank          int            `json:"rank"`
		Contributions []contribution `json:"contributions"`
	}
	var entries []resultEntry
	for i, res := range resp.Results {
		var contribs []contribution
		for _, c := range res.Contributions {
			contribs = append(contribs, contribution{Oracle: c.Oracle, Rank: c.Rank, RawScore: c.RawScore})
		}
		entries = append(entries, resultEntry{DocID: res.DocID, Rank: i + 1, Contributions: contribs})
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"query_id": queryID, "query": query, "mode": mode, "intent": intent, "results": entries,
	})
	_, _ = r.store.Append([]types.Event{{
		EventType: types.EventScryQuery, SourceID: queryID, Timestamp: time.Now(), Data: payload,
	}})
	return queryID
}

func (r *EventRecorder) RecordUse(queryID, docID string, rank int) {
	payload, _ := json.Marshal(map[string]interface{}{"query_id": queryID, "doc_id": docID, "rank": rank})
	_, _ = r.store.Append([]types.Event{{
		EventType: types.EventScryUse, SourceID: queryID + ":" + docID, Timestamp: time.Now(), Data: payload,
	}})
	MetricUseTotal.Inc()
}

func (r *EventRecorder) RecordFeedback(queryID, signal, comment string) {
	payload, _ := json.Marshal(map[string]interface{}{"query_id": queryID, "signal": signal, "comment": comment})
	_, _ = r.store.Append([]types.Event{{
		EventType: types.EventScryFeedback, SourceID: queryID + ":" + signal, Timestamp: time.Now(), Data: payload,
	}})
	MetricFeedbackTotal.WithLabelValues(signal).Inc()
}
