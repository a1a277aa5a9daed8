package session

import (
	"strings"
	"time"

	"teachme/internal/domain"
)

// MinAnswerPool is the smallest answer pool a review can run with: one
// correct answer plus enough distractors for a multiple-choice question.
const MinAnswerPool = 4

// Session holds one user's in-memory review state. It lives for the
// process lifetime and is never persisted.
//
// Session does no locking of its own; callers serialize access per user
// (the engine holds a per-user lock across every state-changing
// operation, including delayed continuations).
type Session struct {
	LastActiveAt time.Time

	reviewOn         bool
	pendingQuestions []domain.Question
	answerPool       []string
	currentWord      string
	currentAnswer    string

	totalRequests int
	level         int
	levelInterval int
}

// New creates an idle session. interval is the level-up interval K;
// values below 1 fall back to the historical default of 10.
func New(interval int) *Session {
	if interval < 1 {
		interval = 10
	}
	return &Session{
		LastActiveAt:  time.Now(),
		levelInterval: interval,
	}
}

// Touch refreshes the last-activity timestamp
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}

// Reviewing reports whether the user is in flashcard-review mode
func (s *Session) Reviewing() bool {
	return s.reviewOn
}

// CurrentWord returns the word of the question awaiting an answer,
// or "" when none is pending.
func (s *Session) CurrentWord() string {
	return s.currentWord
}

// CurrentAnswer returns the correct translation for the pending question
func (s *Session) CurrentAnswer() string {
	return s.currentAnswer
}

// AnswerPool returns the distractor pool for the current review batch.
// The returned slice is shared; callers must not mutate it.
func (s *Session) AnswerPool() []string {
	return s.answerPool
}

// Level returns the user's current level
func (s *Session) Level() int {
	return s.level
}

// TotalRequests returns how many successful translation lookups the
// user has made.
func (s *Session) TotalRequests() int {
	return s.totalRequests
}

// LoadQuestionBatch replaces the pending question queue with the given
// batch and rebuilds the answer pool from every translation in it. The
// pool stays fixed while questions are consumed.
func (s *Session) LoadQuestionBatch(questions []domain.Question) {
	s.pendingQuestions = make([]domain.Question, len(questions))
	copy(s.pendingQuestions, questions)

	s.answerPool = make([]string, 0, len(questions))
	for _, q := range questions {
		s.answerPool = append(s.answerPool, q.Translation)
	}
}

// StartReview turns review mode on. It is refused (returning false,
// leaving the session idle) unless the answer pool holds at least
// MinAnswerPool distinct translations.
func (s *Session) StartReview() bool {
	if distinctCount(s.answerPool) < MinAnswerPool {
		s.EndReview()
		return false
	}
	s.reviewOn = true
	return true
}

// EndReview turns review mode off and clears every piece of review
// state. No stale question survives the transition.
func (s *Session) EndReview() {
	s.reviewOn = false
	s.pendingQuestions = nil
	s.answerPool = nil
	s.currentWord = ""
	s.currentAnswer = ""
}

// NextQuestion pops the next pending question into the current slot.
// When the queue is empty it ends the review and reports ok=false.
func (s *Session) NextQuestion() (domain.Question, bool) {
	if len(s.pendingQuestions) == 0 {
		s.EndReview()
		return domain.Question{}, false
	}
	q := s.pendingQuestions[0]
	s.pendingQuestions = s.pendingQuestions[1:]
	s.currentWord = q.Word
	s.currentAnswer = q.Translation
	return q, true
}

// JudgeAnswer compares a submitted answer against the current correct
// answer, case-insensitively but whitespace-exact.
func (s *Session) JudgeAnswer(submitted string) bool {
	if s.currentAnswer == "" {
		return false
	}
	return strings.EqualFold(submitted, s.currentAnswer)
}

// RecordTranslationRequest increments the translation-request counter
// and reports whether this request crossed a level-up boundary, bumping
// the level when it did.
//
// The boundary test is total % K == K-1 on the post-increment count.
// That is the historical contract: the counter values 9, 19, 29, …
// trigger for K=10. It is not equivalent to total % K == 0.
func (s *Session) RecordTranslationRequest() bool {
	s.totalRequests++
	if s.totalRequests%s.levelInterval == s.levelInterval-1 {
		s.level++
		return true
	}
	return false
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
