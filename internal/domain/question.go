package domain

// Question is a single flashcard drawn from the question bank
type Question struct {
	Word        string `json:"word"`
	Translation string `json:"translated"`
}

// Outcome is the result of a review answer, reported back to the question bank
type Outcome string

const (
	OutcomeRight Outcome = "right"
	OutcomeWrong Outcome = "wrong"
)

// Sentence is a usage example attached to a translation
type Sentence struct {
	Source string `json:"source"`
}

// Translation is the translator backend's response for a single word
type Translation struct {
	Query      string     `json:"query"`
	Translated string     `json:"translated"`
	Image      string     `json:"image"`
	Sentences  []Sentence `json:"sentences"`
}

// Valid reports whether the response carries the fields needed to build
// a flashcard. Responses missing the translated text are treated as
// malformed and must not count towards the user's request total.
func (t *Translation) Valid() bool {
	return t != nil && t.Translated != ""
}
