package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"teachme/internal/backend"
	"teachme/internal/domain"
	"teachme/internal/messenger"
	"teachme/internal/session"

	"go.uber.org/zap"
)

// User-facing texts

const (
	msgHelp = "Hi! I'm your personal language learning assistant.\nYou can:\n" +
		"- Type a word for me to translate and create a flashcard for you, or\n" +
		"- Turn on Review Mode from the menu to review your cards."
	msgReviewStarting  = "Let's start review your cards!"
	msgReviewFinished  = "Review finished! Type a word to create your flashcard!"
	msgNotEnoughWords  = "Not enough words for you to learn. Stop review words."
	msgAlreadyInReview = "You are already in review mode."
	msgNotInReview     = "You are not in review mode."
	msgQuestionPrompt  = "What is the correct translation of this word?"
	msgRightAnswer     = "Yes, that's correct! Great job!!"
	msgCannotTranslate = "Can not translate."
)

const wrongAnswerFormat = "Oh no... It is not correct. Let's see what the correct meaning of %s is."

// maxDistractors is how many wrong choices accompany the correct one
const maxDistractors = 2

// askNextDelay gives the user time to read the answer feedback before
// the next question arrives.
const askNextDelay = 2 * time.Second

// ReviewEngine orchestrates the flashcard review flow and the plain
// translate-and-send flow.
//
// Every state-changing operation for a user runs under that user's
// lock, including scheduled continuations, so overlapping events for
// one user never interleave against the session.
type ReviewEngine struct {
	store      *session.Store
	bank       backend.QuestionBank
	translator backend.Translator
	sender     messenger.Sender
	serverURL  string
	logger     *zap.Logger

	// Injectable for tests
	askDelay time.Duration
	after    func(d time.Duration, fn func())
	shuffle  func(n int, swap func(i, j int))

	locksMux sync.Mutex
	locks    map[string]*sync.Mutex
}

// NewReviewEngine creates a review engine. serverURL is where static
// assets (level-up gifs) are served from.
func NewReviewEngine(
	store *session.Store,
	bank backend.QuestionBank,
	translator backend.Translator,
	sender messenger.Sender,
	serverURL string,
	logger *zap.Logger,
) *ReviewEngine {
	return &ReviewEngine{
		store:      store,
		bank:       bank,
		translator: translator,
		sender:     sender,
		serverURL:  serverURL,
		logger:     logger,
		askDelay:   askNextDelay,
		after:      func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		shuffle:    rand.Shuffle,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-user lock, creating it on first use
func (e *ReviewEngine) lockFor(userID string) *sync.Mutex {
	e.locksMux.Lock()
	defer e.locksMux.Unlock()

	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

func (e *ReviewEngine) withSession(userID string, fn func(sess *session.Session)) {
	l := e.lockFor(userID)
	l.Lock()
	defer l.Unlock()
	fn(e.store.Get(userID))
}

// SendHelp sends the static help text
func (e *ReviewEngine) SendHelp(ctx context.Context, userID string) {
	e.send(ctx, userID, msgHelp)
}

// StartReview begins a review session for the user. If the user is
// already reviewing it only says so.
func (e *ReviewEngine) StartReview(ctx context.Context, userID string) {
	e.withSession(userID, func(sess *session.Session) {
		if sess.Reviewing() {
			e.send(ctx, userID, msgAlreadyInReview)
			return
		}
		e.startReview(ctx, userID, sess)
	})
}

// StopReview ends the user's review session. If the user is not
// reviewing it only says so.
func (e *ReviewEngine) StopReview(ctx context.Context, userID string) {
	e.withSession(userID, func(sess *session.Session) {
		if !sess.Reviewing() {
			e.send(ctx, userID, msgNotInReview)
			return
		}
		e.endReview(ctx, userID, sess)
	})
}

// ToggleReview flips review mode, used by the /review_switch postback
func (e *ReviewEngine) ToggleReview(ctx context.Context, userID string) {
	e.withSession(userID, func(sess *session.Session) {
		if sess.Reviewing() {
			e.endReview(ctx, userID, sess)
		} else {
			e.startReview(ctx, userID, sess)
		}
	})
}

// SubmitAnswer handles a button tap carrying a right/wrong routing tag
func (e *ReviewEngine) SubmitAnswer(ctx context.Context, userID string, correct bool) {
	e.withSession(userID, func(sess *session.Session) {
		e.submitAnswer(ctx, userID, sess, correct)
	})
}

// HandleDefaultText routes free text: a translation request while idle,
// an answer submission while reviewing. The decision happens under the
// user's lock so it cannot race a mode transition.
func (e *ReviewEngine) HandleDefaultText(ctx context.Context, userID, text string) {
	e.withSession(userID, func(sess *session.Session) {
		if !sess.Reviewing() {
			e.translateAndSend(ctx, userID, sess, text)
			return
		}
		e.submitAnswer(ctx, userID, sess, sess.JudgeAnswer(text))
	})
}

// TranslateWord translates a word and sends the resulting flashcard
func (e *ReviewEngine) TranslateWord(ctx context.Context, userID, word string) {
	e.withSession(userID, func(sess *session.Session) {
		e.translateAndSend(ctx, userID, sess, word)
	})
}

// startReview fetches a question batch and asks the first question.
// Callers hold the user's lock.
func (e *ReviewEngine) startReview(ctx context.Context, userID string, sess *session.Session) {
	e.send(ctx, userID, msgReviewStarting)

	questions, err := e.bank.FetchQuestions(ctx, userID)
	if err != nil {
		e.logger.Error("Failed to fetch question batch",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		e.send(ctx, userID, msgNotEnoughWords)
		sess.EndReview()
		return
	}

	sess.LoadQuestionBatch(questions)
	if !sess.StartReview() {
		e.logger.Info("Question batch too small for review",
			zap.String("user_id", userID),
			zap.Int("count", len(questions)),
		)
		e.send(ctx, userID, msgNotEnoughWords)
		return
	}

	e.askNextQuestion(ctx, userID, sess)
}

// endReview clears review state and tells the user. Callers hold the
// user's lock.
func (e *ReviewEngine) endReview(ctx context.Context, userID string, sess *session.Session) {
	sess.EndReview()
	e.send(ctx, userID, msgReviewFinished)
}

// askNextQuestion draws the next question and presents it as a button
// card. Callers hold the user's lock.
func (e *ReviewEngine) askNextQuestion(ctx context.Context, userID string, sess *session.Session) {
	q, ok := sess.NextQuestion()
	if !ok {
		e.endReview(ctx, userID, sess)
		return
	}

	e.send(ctx, userID, msgQuestionPrompt)

	buttons := e.buildChoices(sess)
	if err := e.sender.SendButtons(ctx, userID, q.Word, buttons); err != nil {
		e.logger.Error("Failed to send question",
			zap.String("user_id", userID),
			zap.String("word", q.Word),
			zap.Error(err),
		)
	}
}

// buildChoices assembles the multiple-choice buttons for the current
// question: up to maxDistractors wrong answers plus exactly one correct
// answer, in randomized order.
func (e *ReviewEngine) buildChoices(sess *session.Session) []domain.Button {
	correct := sess.CurrentAnswer()

	pool := append([]string(nil), sess.AnswerPool()...)
	e.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	buttons := make([]domain.Button, 0, maxDistractors+1)
	for _, answer := range pool {
		if answer == correct {
			continue
		}
		buttons = append(buttons, domain.Button{Title: answer, Payload: domain.PayloadWrongAnswer})
		if len(buttons) == maxDistractors {
			break
		}
	}
	for _, answer := range pool {
		if answer != correct {
			continue
		}
		buttons = append(buttons, domain.Button{Title: answer, Payload: domain.PayloadRightAnswer})
		break
	}

	e.shuffle(len(buttons), func(i, j int) { buttons[i], buttons[j] = buttons[j], buttons[i] })
	return buttons
}

// submitAnswer judges the pending question, sends feedback, schedules
// the next question and reports the outcome. Callers hold the user's
// lock.
func (e *ReviewEngine) submitAnswer(ctx context.Context, userID string, sess *session.Session, correct bool) {
	word := sess.CurrentWord()
	if !sess.Reviewing() || word == "" {
		// Stale button tap from an earlier review
		e.logger.Info("Ignoring answer with no pending question",
			zap.String("user_id", userID),
		)
		return
	}

	outcome := domain.OutcomeWrong
	if correct {
		outcome = domain.OutcomeRight
		e.translateAndSend(ctx, userID, sess, word)
		e.send(ctx, userID, msgRightAnswer)
	} else {
		e.send(ctx, userID, fmt.Sprintf(wrongAnswerFormat, word))
		e.translateAndSend(ctx, userID, sess, word)
	}

	e.after(e.askDelay, func() {
		e.withSession(userID, func(sess *session.Session) {
			e.askNextQuestion(context.Background(), userID, sess)
		})
	})

	go e.reportAnswer(userID, word, outcome)
}

// reportAnswer is fire-and-forget: the question bank's response is
// ignored, failures are only logged.
func (e *ReviewEngine) reportAnswer(userID, word string, outcome domain.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.bank.ReportAnswer(ctx, userID, word, outcome); err != nil {
		e.logger.Warn("Failed to report answer",
			zap.String("user_id", userID),
			zap.String("word", word),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
	}
}

// translateAndSend looks up a word, sends the flashcard and, on a
// well-formed response, counts the request and celebrates level-ups.
// Callers hold the user's lock.
func (e *ReviewEngine) translateAndSend(ctx context.Context, userID string, sess *session.Session, word string) {
	tr, err := e.translator.Translate(ctx, userID, word)
	if err != nil || !tr.Valid() {
		if err != nil {
			e.logger.Error("Translation lookup failed",
				zap.String("user_id", userID),
				zap.String("word", word),
				zap.Error(err),
			)
		} else {
			e.logger.Warn("Malformed translation response",
				zap.String("user_id", userID),
				zap.String("word", word),
			)
		}
		e.send(ctx, userID, msgCannotTranslate)
		return
	}

	items := buildCards(tr)
	if err := e.sender.SendCards(ctx, userID, items); err != nil {
		e.logger.Error("Failed to send translation card",
			zap.String("user_id", userID),
			zap.String("word", word),
			zap.Error(err),
		)
	}

	if sess.RecordTranslationRequest() {
		e.celebrateLevelUp(ctx, userID, sess)
	}
}

// buildCards maps a translation to generic-card items: one card per
// example sentence, or a single word/translation card when the backend
// returned no examples.
func buildCards(tr *domain.Translation) []domain.CardItem {
	if len(tr.Sentences) > 0 {
		items := make([]domain.CardItem, 0, len(tr.Sentences))
		for _, s := range tr.Sentences {
			items = append(items, domain.CardItem{
				Title:    tr.Translated,
				Subtitle: s.Source,
				ImageURL: tr.Image,
			})
		}
		return items
	}
	return []domain.CardItem{{
		Title:    tr.Query,
		Subtitle: tr.Translated,
		ImageURL: tr.Image,
	}}
}

// celebrateLevelUp announces the new level and sends the matching gif.
// Callers hold the user's lock.
func (e *ReviewEngine) celebrateLevelUp(ctx context.Context, userID string, sess *session.Session) {
	level := sess.Level()
	e.send(ctx, userID, fmt.Sprintf("Congrats! Your level is up. And now is: %d", level))

	gifURL := fmt.Sprintf("%s/assets/level_up_%d.gif", e.serverURL, (level%5)+1)
	if err := e.sender.SendImage(ctx, userID, gifURL); err != nil {
		e.logger.Error("Failed to send level-up gif",
			zap.String("user_id", userID),
			zap.Int("level", level),
			zap.Error(err),
		)
	}
}

func (e *ReviewEngine) send(ctx context.Context, userID, text string) {
	if err := e.sender.SendText(ctx, userID, text); err != nil {
		e.logger.Error("Failed to send text message",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
