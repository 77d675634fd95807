package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/types"
)

type fakeForgeFetcher struct {
	issues []byte
	prs    []byte
}

func (f fakeForgeFetcher) FetchIssues(ctx context.Context) ([]byte, error) { return f.issues, nil }
func (f fakeForgeFetcher) FetchPRs(ctx context.Context) ([]byte, error)    { return f.prs, nil }

func TestForgeIngester_IngestIssuesProducesOneEventPerItem(t *testing.T) {
	issues, err := json.Marshal([]forgeItem{
		{Number: 7, Title: "flaky test", State: "open", Labels: []string{"bug"}},
		{Number: 8, Title: "docs gap", State: "closed"},
	})
	require.NoError(t, err)

	ing := NewForgeIngester(fakeForgeFetcher{issues: issues})
	events, err := ing.IngestIssues(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, types.EventForgeIssue, events[0].EventType)
	require.Equal(t, "forge.issue:7", events[0].SourceID)

	var decoded forgeItem
	require.NoError(t, json.Unmarshal(events[0].Data, &decoded))
	require.Equal(t, "flaky test", decoded.Title)
}

func TestForgeIngester_IngestPRsUsesPRPrefix(t *testing.T) {
	prs, err := json.Marshal([]forgeItem{{Number: 3, Title: "add oracle", State: "merged"}})
	require.NoError(t, err)

	ing := NewForgeIngester(fakeForgeFetcher{prs: prs})
	events, err := ing.IngestPRs(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, types.EventForgePR, events[0].EventType)
	require.Equal(t, "forge.pr:3", events[0].SourceID)
}
