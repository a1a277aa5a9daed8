package testutil

import (
	"context"

	"teachme/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockQuestionBank is a mock for backend.QuestionBank
type MockQuestionBank struct {
	mock.Mock
}

func (m *MockQuestionBank) FetchQuestions(ctx context.Context, userID string) ([]domain.Question, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

func (m *MockQuestionBank) ReportAnswer(ctx context.Context, userID, word string, outcome domain.Outcome) error {
	args := m.Called(ctx, userID, word, outcome)
	return args.Error(0)
}

// MockTranslator is a mock for backend.Translator
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, userID, word string) (*domain.Translation, error) {
	args := m.Called(ctx, userID, word)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Translation), args.Error(1)
}

// MockSender is a mock for messenger.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendText(ctx context.Context, recipientID, text string) error {
	args := m.Called(ctx, recipientID, text)
	return args.Error(0)
}

func (m *MockSender) SendButtons(ctx context.Context, recipientID, text string, buttons []domain.Button) error {
	args := m.Called(ctx, recipientID, text, buttons)
	return args.Error(0)
}

func (m *MockSender) SendCards(ctx context.Context, recipientID string, items []domain.CardItem) error {
	args := m.Called(ctx, recipientID, items)
	return args.Error(0)
}

func (m *MockSender) SendImage(ctx context.Context, recipientID, imageURL string) error {
	args := m.Called(ctx, recipientID, imageURL)
	return args.Error(0)
}
