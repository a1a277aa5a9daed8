package testutil

import (
	"teachme/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestBatch creates a four-question batch, the smallest that can
// start a review.
func NewTestBatch() []domain.Question {
	return []domain.Question{
		{Word: "perro", Translation: "dog"},
		{Word: "gato", Translation: "cat"},
		{Word: "ave", Translation: "bird"},
		{Word: "pez", Translation: "fish"},
	}
}

// NewTestTranslation creates a well-formed translation response
func NewTestTranslation(query, translated string) *domain.Translation {
	return &domain.Translation{
		Query:      query,
		Translated: translated,
	}
}
