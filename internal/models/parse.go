package models

// ParsedReminder is the structured result the reminder parser extracts from
// free text. Any result with an empty Task is treated as a parse failure,
// regardless of how the collaborator reported it.
type ParsedReminder struct {
	Task       string  `json:"task"`
	Timestamp  int64   `json:"timestamp"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Usable reports whether the result can drive the review flow.
func (p *ParsedReminder) Usable() bool {
	return p != nil && p.Task != ""
}
