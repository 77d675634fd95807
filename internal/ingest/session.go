package ingest

import (
	"encoding/json"
	"time"

	"github.com/patina-dev/patina/internal/types"
)

// SessionRecord is the JSON shape a session file is expected to contain
// — goal plus a time window — matching spec.md §3's Session fact.
type SessionRecord struct {
	ID      string    `json:"id"`
	Goal    string    `json:"goal"`
	StartTS time.Time `json:"start_ts"`
	EndTS   time.Time `json:"end_ts"`
	Notes   string    `json:"notes"`
}

// ParseSessionRecords decodes a JSON array of SessionRecord into
// session.start Events, one per session.
func ParseSessionRecords(data []byte) ([]types.Event, error) {
	var records []SessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	var events []types.Event
	for _, r := range records {
		payload, err := json.Marshal(map[string]interface{}{
			"id": r.ID, "goal": r.Goal,
			"start_ts": r.StartTS.UnixNano(), "end_ts": r.EndTS.UnixNano(),
			"notes": r.Notes,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, types.Event{
			EventType: types.EventSessionStart, SourceID: r.ID, Timestamp: r.StartTS, Data: payload,
		})
	}
	return events, nil
}
