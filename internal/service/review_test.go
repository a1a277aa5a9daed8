package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"teachme/internal/domain"
	"teachme/internal/session"
	"teachme/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

type engineFixture struct {
	engine     *ReviewEngine
	store      *session.Store
	bank       *testutil.MockQuestionBank
	translator *testutil.MockTranslator
	sender     *testutil.MockSender

	scheduled      []func()
	scheduledDelay time.Duration
}

// newFixture builds an engine with deterministic shuffling (identity
// order) and a captured scheduler instead of real timers.
func newFixture(levelInterval int) *engineFixture {
	f := &engineFixture{
		store:      session.NewStore(levelInterval),
		bank:       new(testutil.MockQuestionBank),
		translator: new(testutil.MockTranslator),
		sender:     new(testutil.MockSender),
	}
	f.engine = NewReviewEngine(f.store, f.bank, f.translator, f.sender, "https://bot.example.com", testutil.NewTestLogger())
	f.engine.shuffle = func(n int, swap func(i, j int)) {}
	f.engine.after = func(d time.Duration, fn func()) {
		f.scheduledDelay = d
		f.scheduled = append(f.scheduled, fn)
	}
	return f
}

// expectReport registers a ReportAnswer expectation and returns a
// channel closed when the fire-and-forget report lands.
func (f *engineFixture) expectReport(word string, outcome domain.Outcome) chan struct{} {
	done := make(chan struct{})
	f.bank.On("ReportAnswer", mock.Anything, testUser, word, outcome).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)
	return done
}

func waitFor(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for answer report")
	}
}

// startedReview puts the user mid-review with "perro"/"dog" pending
func (f *engineFixture) startedReview(t *testing.T) *session.Session {
	t.Helper()
	sess := f.store.Get(testUser)
	sess.LoadQuestionBatch(testutil.NewTestBatch())
	require.True(t, sess.StartReview())
	_, ok := sess.NextQuestion()
	require.True(t, ok)
	return sess
}

func TestReviewEngine_StartReview(t *testing.T) {
	f := newFixture(10)

	f.bank.On("FetchQuestions", mock.Anything, testUser).Return(testutil.NewTestBatch(), nil)
	f.sender.On("SendText", mock.Anything, testUser, msgReviewStarting).Return(nil)
	f.sender.On("SendText", mock.Anything, testUser, msgQuestionPrompt).Return(nil)
	f.sender.On("SendButtons", mock.Anything, testUser, "perro", mock.Anything).Return(nil)

	f.engine.StartReview(context.Background(), testUser)

	sess := f.store.Get(testUser)
	assert.True(t, sess.Reviewing())
	assert.ElementsMatch(t, []string{"dog", "cat", "bird", "fish"}, sess.AnswerPool())
	assert.Equal(t, "perro", sess.CurrentWord())
	assert.Equal(t, "dog", sess.CurrentAnswer())

	// With identity shuffle the choices are the two first distractors
	// followed by the correct answer.
	buttons := f.sender.Calls[len(f.sender.Calls)-1].Arguments.Get(3).([]domain.Button)
	require.Len(t, buttons, 3)
	assert.Equal(t, domain.Button{Title: "cat", Payload: domain.PayloadWrongAnswer}, buttons[0])
	assert.Equal(t, domain.Button{Title: "bird", Payload: domain.PayloadWrongAnswer}, buttons[1])
	assert.Equal(t, domain.Button{Title: "dog", Payload: domain.PayloadRightAnswer}, buttons[2])

	rightTagged := 0
	for _, b := range buttons {
		if b.Payload == domain.PayloadRightAnswer {
			rightTagged++
			assert.Equal(t, "dog", b.Title)
		}
	}
	assert.Equal(t, 1, rightTagged, "exactly one choice carries the right tag")

	f.bank.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestReviewEngine_StartReviewAlreadyReviewing(t *testing.T) {
	f := newFixture(10)
	f.startedReview(t)

	f.sender.On("SendText", mock.Anything, testUser, msgAlreadyInReview).Return(nil)

	f.engine.StartReview(context.Background(), testUser)

	f.sender.AssertExpectations(t)
	f.bank.AssertNotCalled(t, "FetchQuestions", mock.Anything, mock.Anything)
}

func TestReviewEngine_StartReviewNotEnoughWords(t *testing.T) {
	tests := []struct {
		name      string
		questions []domain.Question
		fetchErr  error
	}{
		{
			name:      "batch smaller than the minimum pool",
			questions: testutil.NewTestBatch()[:3],
		},
		{
			name:      "empty batch",
			questions: []domain.Question{},
		},
		{
			name:     "question bank unreachable",
			fetchErr: fmt.Errorf("backend down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(10)

			if tt.fetchErr != nil {
				f.bank.On("FetchQuestions", mock.Anything, testUser).Return(nil, tt.fetchErr)
			} else {
				f.bank.On("FetchQuestions", mock.Anything, testUser).Return(tt.questions, nil)
			}
			f.sender.On("SendText", mock.Anything, testUser, msgReviewStarting).Return(nil)
			f.sender.On("SendText", mock.Anything, testUser, msgNotEnoughWords).Return(nil)

			f.engine.StartReview(context.Background(), testUser)

			sess := f.store.Get(testUser)
			assert.False(t, sess.Reviewing(), "aborted start must never leave the session reviewing")
			assert.Empty(t, sess.AnswerPool())

			f.sender.AssertExpectations(t)
			f.sender.AssertNotCalled(t, "SendButtons", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReviewEngine_StopReview(t *testing.T) {
	t.Run("not reviewing", func(t *testing.T) {
		f := newFixture(10)
		f.sender.On("SendText", mock.Anything, testUser, msgNotInReview).Return(nil)

		f.engine.StopReview(context.Background(), testUser)

		f.sender.AssertExpectations(t)
	})

	t.Run("reviewing", func(t *testing.T) {
		f := newFixture(10)
		f.startedReview(t)
		f.sender.On("SendText", mock.Anything, testUser, msgReviewFinished).Return(nil)

		f.engine.StopReview(context.Background(), testUser)

		sess := f.store.Get(testUser)
		assert.False(t, sess.Reviewing())
		assert.Empty(t, sess.CurrentWord())
		assert.Empty(t, sess.AnswerPool())
		f.sender.AssertExpectations(t)
	})
}

func TestReviewEngine_ToggleReview(t *testing.T) {
	f := newFixture(10)
	f.startedReview(t)
	f.sender.On("SendText", mock.Anything, testUser, msgReviewFinished).Return(nil)

	f.engine.ToggleReview(context.Background(), testUser)

	assert.False(t, f.store.Get(testUser).Reviewing())
	f.sender.AssertExpectations(t)
}

func TestReviewEngine_SubmitAnswerRight(t *testing.T) {
	f := newFixture(10)
	f.startedReview(t)

	f.translator.On("Translate", mock.Anything, testUser, "perro").
		Return(testutil.NewTestTranslation("perro", "dog"), nil)
	f.sender.On("SendCards", mock.Anything, testUser,
		[]domain.CardItem{{Title: "perro", Subtitle: "dog"}}).Return(nil)
	f.sender.On("SendText", mock.Anything, testUser, msgRightAnswer).Return(nil)
	done := f.expectReport("perro", domain.OutcomeRight)

	f.engine.SubmitAnswer(context.Background(), testUser, true)
	waitFor(t, done)

	assert.Equal(t, 1, f.store.Get(testUser).TotalRequests())
	require.Len(t, f.scheduled, 1, "next question must be scheduled, not sent inline")
	assert.Equal(t, askNextDelay, f.scheduledDelay)

	// The delayed continuation asks the next question
	f.sender.On("SendText", mock.Anything, testUser, msgQuestionPrompt).Return(nil)
	f.sender.On("SendButtons", mock.Anything, testUser, "gato", mock.Anything).Return(nil)
	f.scheduled[0]()

	assert.Equal(t, "gato", f.store.Get(testUser).CurrentWord())
	f.bank.AssertExpectations(t)
	f.sender.AssertExpectations(t)
	f.translator.AssertExpectations(t)
}

func TestReviewEngine_SubmitAnswerWrong(t *testing.T) {
	f := newFixture(10)
	f.startedReview(t)

	f.sender.On("SendText", mock.Anything, testUser, fmt.Sprintf(wrongAnswerFormat, "perro")).Return(nil)
	f.translator.On("Translate", mock.Anything, testUser, "perro").
		Return(testutil.NewTestTranslation("perro", "dog"), nil)
	f.sender.On("SendCards", mock.Anything, testUser, mock.Anything).Return(nil)
	done := f.expectReport("perro", domain.OutcomeWrong)

	f.engine.SubmitAnswer(context.Background(), testUser, false)
	waitFor(t, done)

	require.Len(t, f.scheduled, 1)
	f.bank.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestReviewEngine_SubmitAnswerWithoutPendingQuestion(t *testing.T) {
	f := newFixture(10)

	// Stale button tap: no review, no pending question
	f.engine.SubmitAnswer(context.Background(), testUser, true)

	assert.Empty(t, f.scheduled)
	f.sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
	f.bank.AssertNotCalled(t, "ReportAnswer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewEngine_FinishingLastQuestionEndsReview(t *testing.T) {
	f := newFixture(10)
	sess := f.store.Get(testUser)
	sess.LoadQuestionBatch(testutil.NewTestBatch())
	require.True(t, sess.StartReview())

	// Drain to the last question
	for i := 0; i < len(testutil.NewTestBatch()); i++ {
		_, ok := sess.NextQuestion()
		require.True(t, ok)
	}

	f.translator.On("Translate", mock.Anything, testUser, "pez").
		Return(testutil.NewTestTranslation("pez", "fish"), nil)
	f.sender.On("SendCards", mock.Anything, testUser, mock.Anything).Return(nil)
	f.sender.On("SendText", mock.Anything, testUser, msgRightAnswer).Return(nil)
	done := f.expectReport("pez", domain.OutcomeRight)

	f.engine.SubmitAnswer(context.Background(), testUser, true)
	waitFor(t, done)

	// Continuation finds the queue empty and finishes the review
	f.sender.On("SendText", mock.Anything, testUser, msgReviewFinished).Return(nil)
	require.Len(t, f.scheduled, 1)
	f.scheduled[0]()

	assert.False(t, f.store.Get(testUser).Reviewing())
	f.sender.AssertExpectations(t)
}

func TestReviewEngine_HandleDefaultText(t *testing.T) {
	t.Run("idle text is translated", func(t *testing.T) {
		f := newFixture(10)

		f.translator.On("Translate", mock.Anything, testUser, "hola").
			Return(testutil.NewTestTranslation("hola", "hello"), nil)
		f.sender.On("SendCards", mock.Anything, testUser,
			[]domain.CardItem{{Title: "hola", Subtitle: "hello"}}).Return(nil)

		f.engine.HandleDefaultText(context.Background(), testUser, "hola")

		assert.Equal(t, 1, f.store.Get(testUser).TotalRequests())
		f.translator.AssertExpectations(t)
		f.sender.AssertExpectations(t)
	})

	t.Run("reviewing text is judged case-insensitively", func(t *testing.T) {
		f := newFixture(10)
		f.startedReview(t)

		f.translator.On("Translate", mock.Anything, testUser, "perro").
			Return(testutil.NewTestTranslation("perro", "dog"), nil)
		f.sender.On("SendCards", mock.Anything, testUser, mock.Anything).Return(nil)
		f.sender.On("SendText", mock.Anything, testUser, msgRightAnswer).Return(nil)
		done := f.expectReport("perro", domain.OutcomeRight)

		f.engine.HandleDefaultText(context.Background(), testUser, "DOG")
		waitFor(t, done)

		f.bank.AssertExpectations(t)
	})

	t.Run("reviewing text with wrong answer", func(t *testing.T) {
		f := newFixture(10)
		f.startedReview(t)

		f.sender.On("SendText", mock.Anything, testUser, fmt.Sprintf(wrongAnswerFormat, "perro")).Return(nil)
		f.translator.On("Translate", mock.Anything, testUser, "perro").
			Return(testutil.NewTestTranslation("perro", "dog"), nil)
		f.sender.On("SendCards", mock.Anything, testUser, mock.Anything).Return(nil)
		done := f.expectReport("perro", domain.OutcomeWrong)

		f.engine.HandleDefaultText(context.Background(), testUser, "cat")
		waitFor(t, done)

		f.bank.AssertExpectations(t)
	})
}

func TestReviewEngine_TranslateWordMalformedResponse(t *testing.T) {
	tests := []struct {
		name        string
		translation *domain.Translation
		err         error
	}{
		{
			name:        "missing translated field",
			translation: &domain.Translation{Query: "hola"},
		},
		{
			name: "lookup error",
			err:  fmt.Errorf("backend down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(10)

			if tt.err != nil {
				f.translator.On("Translate", mock.Anything, testUser, "hola").Return(nil, tt.err)
			} else {
				f.translator.On("Translate", mock.Anything, testUser, "hola").Return(tt.translation, nil)
			}
			f.sender.On("SendText", mock.Anything, testUser, msgCannotTranslate).Return(nil)

			f.engine.TranslateWord(context.Background(), testUser, "hola")

			assert.Equal(t, 0, f.store.Get(testUser).TotalRequests(),
				"malformed responses must not count towards the total")
			f.sender.AssertExpectations(t)
			f.sender.AssertNotCalled(t, "SendCards", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReviewEngine_TranslateWordWithSentences(t *testing.T) {
	f := newFixture(10)

	tr := &domain.Translation{
		Query:      "hola",
		Translated: "hello",
		Image:      "https://img.example.com/hola.png",
		Sentences: []domain.Sentence{
			{Source: "Hola, ¿cómo estás?"},
			{Source: "Hola a todos."},
		},
	}
	f.translator.On("Translate", mock.Anything, testUser, "hola").Return(tr, nil)
	f.sender.On("SendCards", mock.Anything, testUser, []domain.CardItem{
		{Title: "hello", Subtitle: "Hola, ¿cómo estás?", ImageURL: "https://img.example.com/hola.png"},
		{Title: "hello", Subtitle: "Hola a todos.", ImageURL: "https://img.example.com/hola.png"},
	}).Return(nil)

	f.engine.TranslateWord(context.Background(), testUser, "hola")

	f.sender.AssertExpectations(t)
}

func TestReviewEngine_LevelUpCelebration(t *testing.T) {
	f := newFixture(3)

	f.translator.On("Translate", mock.Anything, testUser, mock.Anything).
		Return(testutil.NewTestTranslation("hola", "hello"), nil)
	f.sender.On("SendCards", mock.Anything, testUser, mock.Anything).Return(nil)

	// First request: 1 % 3 != 2, no celebration
	f.engine.TranslateWord(context.Background(), testUser, "hola")
	f.sender.AssertNotCalled(t, "SendImage", mock.Anything, mock.Anything, mock.Anything)

	// Second request: 2 % 3 == 2, level 1, gif slot (1 % 5) + 1 = 2
	f.sender.On("SendText", mock.Anything, testUser, "Congrats! Your level is up. And now is: 1").Return(nil)
	f.sender.On("SendImage", mock.Anything, testUser, "https://bot.example.com/assets/level_up_2.gif").Return(nil)

	f.engine.TranslateWord(context.Background(), testUser, "hola")

	assert.Equal(t, 1, f.store.Get(testUser).Level())
	f.sender.AssertExpectations(t)
}

func TestReviewEngine_SendFailuresDoNotStopTheFlow(t *testing.T) {
	f := newFixture(10)

	f.bank.On("FetchQuestions", mock.Anything, testUser).Return(testutil.NewTestBatch(), nil)
	f.sender.On("SendText", mock.Anything, testUser, mock.Anything).Return(fmt.Errorf("send failed"))
	f.sender.On("SendButtons", mock.Anything, testUser, "perro", mock.Anything).Return(fmt.Errorf("send failed"))

	f.engine.StartReview(context.Background(), testUser)

	// Session state advanced regardless of delivery failures
	assert.True(t, f.store.Get(testUser).Reviewing())
	assert.Equal(t, "perro", f.store.Get(testUser).CurrentWord())
}
