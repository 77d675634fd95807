// Package codeparse extracts function/import/type facts from source
// files using tree-sitter, grounded on the pack's smacker/go-tree-sitter
// dependency (the only structural source parser present anywhere in the
// retrieved corpus).
package codeparse

import (
	"context"
	"encoding/json"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/patina-dev/patina/internal/types"
)

// Extract parses a Go source file's bytes and emits code.function,
// code.import, and code.type Events for the symbols it finds.
func Extract(ctx context.Context, path string, src []byte) ([]types.Event, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	now := time.Now()
	var events []types.Event
	root := tree.RootNode()

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration", "method_declaration":
			name := childByFieldText(n, "name", src)
			if name == "" {
				return
			}
			events = append(events, symbolEvent(types.EventCodeFunction, path, name,
				src[n.StartByte():min(n.StartByte()+160, n.EndByte())], int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1, now))
		case "type_spec":
			name := childByFieldText(n, "name", src)
			if name == "" {
				return
			}
			events = append(events, symbolEvent(types.EventCodeType, path, name,
				src[n.StartByte():n.EndByte()], int(n.StartPoint().Row)+1, int(n.EndPoint().Row)+1, now))
		case "import_spec":
			imported := importPathText(n, src)
			if imported == "" {
				return
			}
			payload, _ := json.Marshal(map[string]string{"path": path, "imported": imported})
			events = append(events, types.Event{
				EventType: types.EventCodeImport, SourceID: path + "->" + imported, Timestamp: now, Data: payload,
			})
		}
	})
	return events, nil
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

func childByFieldText(n *sitter.Node, field string, src []byte) string {
	c := n.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return string(src[c.StartByte():c.EndByte()])
}

func importPathText(n *sitter.Node, src []byte) string {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return ""
	}
	raw := string(src[pathNode.StartByte():pathNode.EndByte()])
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

func symbolEvent(eventType, path, name string, signature []byte, startLine, endLine int, ts time.Time) types.Event {
	payload, _ := json.Marshal(map[string]interface{}{
		"path": path, "name": name, "signature": string(signature),
		"start_line": startLine, "end_line": endLine,
	})
	return types.Event{
		EventType: eventType, SourceID: path + "::" + name, Timestamp: ts, Data: payload,
	}
}

func min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
