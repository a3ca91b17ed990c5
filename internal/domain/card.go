package domain

// Card is a single question-answer-context entry as authored in a
// deck file. It is pure content: scheduling state lives in the store,
// keyed by the card's content fingerprint.
type Card struct {
	Question    string
	Answer      string
	Context     string
	Fingerprint string
}
