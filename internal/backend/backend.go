package backend

import (
	"context"

	"teachme/internal/domain"
)

// QuestionBank provides review questions and receives answer outcomes
type QuestionBank interface {
	FetchQuestions(ctx context.Context, userID string) ([]domain.Question, error)
	ReportAnswer(ctx context.Context, userID, word string, outcome domain.Outcome) error
}

// Translator resolves a word into a translation with optional image and
// example sentences.
type Translator interface {
	Translate(ctx context.Context, userID, word string) (*domain.Translation, error)
}
