package domain

// Suggestion is the structured output of the classifier: a best-effort
// categorization for a URL. Either fully AI-produced or built by the
// deterministic domain fallback — consumers cannot tell the difference.
type Suggestion struct {
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	Summary        string   `json:"summary"`
	SuggestedTitle string   `json:"suggested_title"`
	PageTitle      string   `json:"page_title"`
}
