package materializer

// Payload shapes for each event_type's data_json, validated with
// go-playground/validator before being written to relational tables —
// a failure here is what sends an event to quarantine rather than
// aborting the whole batch.

type commitPayload struct {
	SHA       string   `json:"sha" validate:"required"`
	Message   string   `json:"message" validate:"required"`
	Author    string   `json:"author" validate:"required"`
	Type      string   `json:"type"`
	Scope     string   `json:"scope"`
	Breaking  bool     `json:"breaking"`
	PRRef     string   `json:"pr_ref"`
	IssueRefs []string `json:"issue_refs"`
	Files     []string `json:"files"`
}

type symbolPayload struct {
	Path      string `json:"path" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Signature string `json:"signature"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

type importPayload struct {
	Path     string `json:"path" validate:"required"`
	Imported string `json:"imported" validate:"required"`
}

type sessionPayload struct {
	ID      string `json:"id" validate:"required"`
	Goal    string `json:"goal"`
	StartTS int64  `json:"start_ts"`
	EndTS   int64  `json:"end_ts"`
	Notes   string `json:"notes"`
}

type patternPayload struct {
	Path    string `json:"path" validate:"required"`
	Title   string `json:"title"`
	Content string `json:"content" validate:"required"`
}

type forgeItemPayload struct {
	Number       int      `json:"number" validate:"required"`
	Title        string   `json:"title" validate:"required"`
	Body         string   `json:"body"`
	State        string   `json:"state"`
	Labels       []string `json:"labels"`
	LinkedIssues []int    `json:"linked_issues"`
	Comments     int      `json:"comments"`
}
