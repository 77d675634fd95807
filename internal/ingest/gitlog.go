// Package ingest turns raw source material (git log text, parsed source
// files, session records, pattern markdown, forge API responses) into
// Events for the Event Log Store. Each ingester only parses text handed
// to it; the subprocess/API calls that produce that text are external
// collaborators per spec.md §1's out-of-scope list.
package ingest

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/patina-dev/patina/internal/types"
)

// rawCommit is one record of the `git log` format this package expects:
// NUL-separated fields, one commit per line, file paths following.
type rawCommit struct {
	SHA       string
	Author    string
	Timestamp time.Time
	Message   string
	Files     []string
}

var conventionalCommitRe = regexp.MustCompile(`^(\w+)(?:\(([^)]+)\))?(!)?:\s*(.*)$`)
var issueRefRe = regexp.MustCompile(`#(\d+)`)
var prRefRe = regexp.MustCompile(`\(#(\d+)\)\s*$`)
var breakingFooterRe = regexp.MustCompile(`(?m)^BREAKING CHANGE:`)

// ParseGitLog parses `git log --name-only --format=%H%x00%an%x00%at%x00%s`
// style output (records separated by a blank line, fields by NUL) into
// git.commit Events. The subprocess invocation itself lives in
// cmd/patina, which hands this function the captured stdout.
func ParseGitLog(output string) ([]types.Event, error) {
	var events []types.Event
	records := strings.Split(strings.TrimRight(output, "\n"), "\n\n")
	for _, record := range records {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		lines := strings.Split(record, "\n")
		fields := strings.Split(lines[0], "\x00")
		if len(fields) < 4 {
			continue
		}
		unixSec, _ := strconv.ParseInt(fields[2], 10, 64)
		rc := rawCommit{
			SHA:       fields[0],
			Author:    fields[1],
			Timestamp: time.Unix(unixSec, 0).UTC(),
			Message:   fields[3],
			Files:     lines[1:],
		}
		var files []string
		for _, f := range rc.Files {
			if strings.TrimSpace(f) != "" {
				files = append(files, strings.TrimSpace(f))
			}
		}
		rc.Files = files

		payload := commitEventPayload(rc)
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		events = append(events, types.Event{
			EventType: types.EventGitCommit,
			SourceID:  rc.SHA,
			Timestamp: rc.Timestamp,
			Data:      data,
		})
	}
	return events, nil
}

type commitEvent struct {
	SHA       string   `json:"sha"`
	Message   string   `json:"message"`
	Author    string   `json:"author"`
	Type      string   `json:"type"`
	Scope     string   `json:"scope"`
	Breaking  bool     `json:"breaking"`
	PRRef     string   `json:"pr_ref"`
	IssueRefs []string `json:"issue_refs"`
	Files     []string `json:"files"`
}

// commitEventPayload extracts conventional-commit fields (type, scope,
// breaking, PR/issue refs) from the raw subject line and trailer, per
// spec.md §3's Commit fact shape.
func commitEventPayload(rc rawCommit) commitEvent {
	ev := commitEvent{SHA: rc.SHA, Message: rc.Message, Author: rc.Author, Files: rc.Files}

	m := conventionalCommitRe.FindStringSubmatch(rc.Message)
	if m != nil {
		ev.Type = m[1]
		ev.Scope = m[2]
		if m[3] == "!" {
			ev.Breaking = true
		}
	}
	if breakingFooterRe.MatchString(rc.Message) {
		ev.Breaking = true
	}
	if pr := prRefRe.FindStringSubmatch(rc.Message); pr != nil {
		ev.PRRef = pr[1]
	}
	for _, ref := range issueRefRe.FindAllStringSubmatch(rc.Message, -1) {
		ev.IssueRefs = append(ev.IssueRefs, ref[1])
	}
	return ev
}
