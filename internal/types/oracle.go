package types

import "time"

// ScoreType names the native scale of an OracleResult's RawScore, since
// cosine similarity, BM25, and co-change counts are not comparable
// without normalization inside RRF.
type ScoreType string

const (
	ScoreCosine        ScoreType = "cosine"
	ScoreBM25          ScoreType = "bm25"
	ScoreCoChangeCount ScoreType = "co_change_count"
	ScoreComposite     ScoreType = "composite"
)

// OracleResult is one hit returned by an Oracle.Query call.
type OracleResult struct {
	DocID        string
	Content      string
	RawScore     float64
	ScoreType    ScoreType
	Path         string
	Line         int
	Timestamp    time.Time
	EventType    string
	MatchedTerms []string
}

// QueryMode is the user-selected retrieval style (orthogonal to Intent).
type QueryMode string

const (
	ModeFind   QueryMode = "find"
	ModeOrient QueryMode = "orient"
	ModeRecent QueryMode = "recent"
	ModeWhy    QueryMode = "why"
)

// Intent tunes oracle weights for find mode; detected heuristically or
// supplied by the caller.
type Intent string

const (
	IntentGeneral    Intent = "general"
	IntentTemporal   Intent = "temporal"
	IntentRationale  Intent = "rationale"
	IntentMechanism  Intent = "mechanism"
	IntentDefinition Intent = "definition"
)

// Contribution records one oracle's participation in a fused result.
type Contribution struct {
	Oracle    string
	Rank      int
	RawScore  float64
	ScoreType ScoreType
}

// FusedResult is one row of a FusedResponse: a doc_id with its RRF score,
// contributing oracles, and structural annotations.
type FusedResult struct {
	DocID          string
	Content        string
	Score          float64
	Contributions  []Contribution
	Structural     *ModuleSignals
	Path           string
	Line           int
}

// FusedResponse is the Query Engine's top-level output.
type FusedResponse struct {
	QueryID             string
	Results             []FusedResult
	SemanticUnavailable bool
	Warning             string
}
