package models

// CommentSearchResult is one ranked (device, comment) hit.
type CommentSearchResult struct {
	Device       string   `json:"device"`
	Comment      string   `json:"comment"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matchedTerms"`
}

// DeviceGuess is one device inferred from free text.
type DeviceGuess struct {
	Device    string `json:"device"`
	Priority  int    `json:"priority"`
	Rationale string `json:"rationale"`
}

// ReasoningResult carries either a best guess plus ranked candidates,
// or Inferred=false with a message when nothing matched.
type ReasoningResult struct {
	Inferred   bool          `json:"inferred"`
	Best       *DeviceGuess  `json:"best,omitempty"`
	Candidates []DeviceGuess `json:"candidates,omitempty"`
	Message    string        `json:"message,omitempty"`
}
