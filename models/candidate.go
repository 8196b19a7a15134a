package models

// GeneratedFlashcard is a model-proposed flashcard that has not been accepted
// into permanent storage yet. It only lives in memory (and on the wire)
// between generation and the user's triage decision.
type GeneratedFlashcard struct {
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Phonetic string   `json:"phonetic,omitempty"`
	Tags     []string `json:"tags"`
	Source   string   `json:"source"`
}
