package assay

import (
	"database/sql"
	"strings"

	"github.com/patina-dev/patina/internal/types"
)

type momentRule struct {
	name       string
	matchKind  string
	matchValue string
	momentType string
	priority   int
}

// deriveMoments classifies each commit against the moment_rules table
// (seeded at migration time, editable afterwards without a code change —
// see DESIGN.md's Open Question decision on the rule vocabulary). Only
// genesis (strictly the earliest commit) is fixed in code; big_bang
// (> 50 files changed) is the seeded file_count_gt rule.
func (d *Deriver) deriveMoments(tx *sql.Tx) error {
	rules, err := loadRules(tx)
	if err != nil {
		return err
	}

	rows, err := tx.Query(`SELECT sha, message, conv_type, breaking, files_touched, timestamp FROM commits`)
	if err != nil {
		return err
	}
	type commitRow struct {
		sha, message, convType string
		breaking               bool
		filesTouched           int
		timestamp              int64
	}
	var commits []commitRow
	for rows.Next() {
		var c commitRow
		if err := rows.Scan(&c.sha, &c.message, &c.convType, &c.breaking, &c.filesTouched, &c.timestamp); err != nil {
			rows.Close()
			return err
		}
		commits = append(commits, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(commits) == 0 {
		return nil
	}

	genesisSHA := commits[0].sha
	genesisTS := commits[0].timestamp
	for _, c := range commits {
		if c.timestamp < genesisTS {
			genesisSHA = c.sha
			genesisTS = c.timestamp
		}
	}

	if _, err := tx.Exec(`DELETE FROM moments`); err != nil {
		return err
	}

	for _, c := range commits {
		momentType := classify(c.sha, c.message, c.convType, c.breaking, c.filesTouched, c.sha == genesisSHA, rules)
		if momentType == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO moments (sha, moment_type) VALUES (?, ?)`, c.sha, string(momentType)); err != nil {
			return err
		}
	}
	return nil
}

func loadRules(tx *sql.Tx) ([]momentRule, error) {
	rows, err := tx.Query(`SELECT rule_name, match_kind, match_value, moment_type, priority FROM moment_rules ORDER BY priority DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []momentRule
	for rows.Next() {
		var r momentRule
		if err := rows.Scan(&r.name, &r.matchKind, &r.matchValue, &r.momentType, &r.priority); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// classify returns genesis for the earliest commit; otherwise the first
// matching rule in descending priority order. The seeded big_bang rule
// has the highest priority (100), so it is checked first unless the
// table is edited.
func classify(sha, message, convType string, breaking bool, filesTouched int, isGenesis bool, rules []momentRule) types.MomentType {
	if isGenesis {
		return types.MomentGenesis
	}
	lower := strings.ToLower(message)
	for _, r := range rules {
		switch r.matchKind {
		case "file_count_gt":
			if n := atoiSafe(r.matchValue); filesTouched > n {
				return types.MomentType(r.momentType)
			}
		case "keyword":
			if strings.Contains(lower, strings.ToLower(r.matchValue)) || (r.matchValue == "!" && strings.Contains(message, "!:")) {
				return types.MomentType(r.momentType)
			}
			if breaking && r.momentType == string(types.MomentBreaking) {
				return types.MomentBreaking
			}
		case "conventional_type":
			if convType == r.matchValue {
				return types.MomentType(r.momentType)
			}
		}
	}
	return ""
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
