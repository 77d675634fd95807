package ingest

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/patina-dev/patina/internal/types"
)

func TestWalkPatternTree_TitleFromH1AndFilename(t *testing.T) {
	fsys := fstest.MapFS{
		"layer/core/retrieval.md": &fstest.MapFile{Data: []byte("# Retrieval Design\n\nSome notes.\n")},
		"layer/core/untitled.md":  &fstest.MapFile{Data: []byte("no heading here\n")},
		"layer/core/ignore.txt":   &fstest.MapFile{Data: []byte("not markdown")},
	}

	events, err := WalkPatternTree(fsys, "layer/core")
	require.NoError(t, err)
	require.Len(t, events, 2)

	byPath := map[string]types.Event{}
	for _, e := range events {
		require.Equal(t, types.EventPatternDoc, e.EventType)
		byPath[e.SourceID] = e
	}

	var titled map[string]string
	require.NoError(t, json.Unmarshal(byPath["layer/core/retrieval.md"].Data, &titled))
	require.Equal(t, "Retrieval Design", titled["title"])

	var untitled map[string]string
	require.NoError(t, json.Unmarshal(byPath["layer/core/untitled.md"].Data, &untitled))
	require.Equal(t, "untitled", untitled["title"])
}
