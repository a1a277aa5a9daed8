package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"teachme/internal/domain"

	"go.uber.org/zap"
)

// Client talks to the question-bank/translator service. The service
// exposes three GET endpoints under a shared base URL: "u" (questions
// for a user), "a" (answer report), and "t" (translation).
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ QuestionBank = (*Client)(nil)
var _ Translator = (*Client)(nil)

// NewClient creates a backend client for the given base endpoint
func NewClient(endpoint string, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// FetchQuestions returns the user's review batch. An empty batch is not
// an error; the caller decides whether it is enough to review with.
func (c *Client) FetchQuestions(ctx context.Context, userID string) ([]domain.Question, error) {
	q := url.Values{}
	q.Set("uid", userID)

	var questions []domain.Question
	if err := c.getJSON(ctx, "u", q, &questions); err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	c.logger.Info("Fetched question batch",
		zap.String("user_id", userID),
		zap.Int("count", len(questions)),
	)
	return questions, nil
}

// ReportAnswer tells the question bank how the user answered. The
// response body is ignored.
func (c *Client) ReportAnswer(ctx context.Context, userID, word string, outcome domain.Outcome) error {
	q := url.Values{}
	q.Set("uid", userID)
	q.Set("q", word)
	q.Set("answer", string(outcome))

	if err := c.getJSON(ctx, "a", q, nil); err != nil {
		return fmt.Errorf("report answer: %w", err)
	}
	return nil
}

// Translate looks up a word. A decodable response is returned as-is;
// callers must check Translation.Valid before building cards from it.
func (c *Client) Translate(ctx context.Context, userID, word string) (*domain.Translation, error) {
	q := url.Values{}
	q.Set("uid", userID)
	q.Set("q", word)

	var tr domain.Translation
	if err := c.getJSON(ctx, "t", q, &tr); err != nil {
		return nil, fmt.Errorf("translate %q: %w", word, err)
	}
	return &tr, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.endpoint + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
