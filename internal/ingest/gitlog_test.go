package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/types"
)

func TestParseGitLog_ExtractsConventionalCommitFields(t *testing.T) {
	output := "abc123\x00Jane Dev\x001700000000\x00feat(sozo)!: invoke command (#42)\nsrc/sozo/invoke.rs\nsrc/sozo/mod.rs\n\n"
	events, err := ParseGitLog(output)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, types.EventGitCommit, events[0].EventType)
	require.Equal(t, "abc123", events[0].SourceID)

	var payload commitEvent
	require.NoError(t, json.Unmarshal(events[0].Data, &payload))
	require.Equal(t, "feat", payload.Type)
	require.Equal(t, "sozo", payload.Scope)
	require.True(t, payload.Breaking)
	require.Equal(t, "42", payload.PRRef)
	require.ElementsMatch(t, []string{"src/sozo/invoke.rs", "src/sozo/mod.rs"}, payload.Files)
}

func TestParseGitLog_MultipleRecordsAndNoFiles(t *testing.T) {
	output := "sha1\x00a\x001600000000\x00fix: bug\n\nsha2\x00b\x001600000100\x00chore: release\nCHANGELOG.md\n"
	events, err := ParseGitLog(output)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "sha1", events[0].SourceID)
	require.Equal(t, "sha2", events[1].SourceID)
}
