package ingest

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/patina-dev/patina/internal/types"
)

// WalkPatternTree reads every markdown file under root (spec's
// layer/core, layer/surface knowledge trees) into pattern.doc Events.
// The title is the first Markdown H1 if present, else the file's base
// name without extension.
func WalkPatternTree(fsys fs.FS, root string) ([]types.Event, error) {
	var events []types.Event
	now := time.Now()
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		title := titleFromMarkdown(string(content), path)
		payload, err := json.Marshal(map[string]string{
			"path": path, "title": title, "content": string(content),
		})
		if err != nil {
			return err
		}
		events = append(events, types.Event{
			EventType: types.EventPatternDoc, SourceID: path, Timestamp: now, Data: payload,
		})
		return nil
	})
	return events, err
}

func titleFromMarkdown(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
