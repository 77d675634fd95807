// Package query implements the Query Engine: intent detection, parallel
// oracle dispatch, weighted RRF fusion, commit->file expansion, and
// provenance assembly.
package query

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"

	"github.com/patina-dev/patina/internal/types"
)

// weightTable mirrors spec's intent/oracle weight table exactly.
var weightTable = map[types.Intent]map[string]float64{
	types.IntentGeneral:    {"semantic": 1.0, "lexical": 1.0, "temporal": 1.0, "persona": 1.0},
	types.IntentTemporal:   {"semantic": 0.5, "lexical": 2.0, "temporal": 1.5, "persona": 0.5},
	types.IntentRationale:  {"semantic": 1.0, "lexical": 1.5, "temporal": 0.5, "persona": 1.5},
	types.IntentMechanism:  {"semantic": 1.5, "lexical": 1.0, "temporal": 0.5, "persona": 0.5},
	types.IntentDefinition: {"semantic": 1.0, "lexical": 1.5, "temporal": 0.3, "persona": 1.0},
}

// weightsFor resolves the oracle weight table for intent, layering any
// .patina/oxidize.yaml overrides over the built-in defaults.
func weightsFor(intent types.Intent, overrides map[string]map[string]float64) map[string]float64 {
	base := weightTable[intent]
	if base == nil {
		base = weightTable[types.IntentGeneral]
	}
	out := make(map[string]float64, len(base))
	for k, v := range base {
		out[k] = v
	}
	if ov, ok := overrides[string(intent)]; ok {
		for k, v := range ov {
			out[k] = v
		}
	}
	return out
}

var whWords = map[string]types.Intent{
	"when": types.IntentTemporal,
	"why":  types.IntentRationale,
	"how":  types.IntentMechanism,
	"what": types.IntentDefinition,
}

var whenParser = when.New(nil)

func init() {
	whenParser.Add(en.All...)
}

// DetectIntent heuristically classifies a query from wh-words, falling
// back to general. The caller (LLM) may instead supply intent directly,
// in which case DetectIntent is never consulted.
func DetectIntent(queryText string) types.Intent {
	lower := strings.ToLower(queryText)
	if r, _ := whenParser.Parse(lower, time.Now()); r != nil {
		return types.IntentTemporal
	}
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, "?,.!")
		if intent, ok := whWords[word]; ok {
			return intent
		}
	}
	return types.IntentGeneral
}
