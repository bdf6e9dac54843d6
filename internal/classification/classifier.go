// Package classification scores how interested a lead is in a listing from a call summary.
// Failures never reach the caller; they degrade to an unknown result.
package classification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadcall_backend/internal/leads/domain"
	"leadcall_backend/platform/logger"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	RationaleAnalysisFailed = "analysis_failed"

	maxAttempts = 3
)

// defaultBackoff is the wait before attempt n+1 after attempt n failed with a retryable status.
var defaultBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

type Result struct {
	InterestLevel domain.InterestLevel `json:"interest_level"`
	InterestScore int                  `json:"interest_score"`
	Rationale     string               `json:"rationale"`
}

func fallback(rationale string) Result {
	return Result{InterestLevel: domain.InterestUnknown, InterestScore: 0, Rationale: rationale}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Classifier struct {
	llm     model.LLM
	backoff []time.Duration
	sleep   SleepFunc
	log     *logger.Logger
}

type Option func(*Classifier)

// WithBackoff overrides the retry schedule.
func WithBackoff(schedule ...time.Duration) Option {
	return func(c *Classifier) { c.backoff = schedule }
}

// WithSleep overrides how the classifier waits between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Classifier) { c.sleep = sleep }
}

func New(llm model.LLM, log *logger.Logger, opts ...Option) *Classifier {
	c := &Classifier{
		llm:     llm,
		backoff: defaultBackoff,
		sleep:   sleepContext,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the interest level, score and rationale for summary.
func (c *Classifier) Classify(ctx context.Context, summary string) Result {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fallback(RationaleAnalysisFailed)
	}
	if c == nil || c.llm == nil {
		return fallback(RationaleAnalysisFailed)
	}

	req := buildRequest(summary)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := c.generate(ctx, req)
		if err == nil {
			result, parseErr := parseResult(text)
			if parseErr != nil {
				c.log.Warn("classification: unparseable response", "error", parseErr, "model", c.llm.Name())
				return fallback(RationaleAnalysisFailed)
			}
			return result
		}

		lastErr = err
		if !isRetryable(err) {
			c.log.Warn("classification: request failed", "error", err, "attempt", attempt, "model", c.llm.Name())
			return fallback(RationaleAnalysisFailed)
		}
		if attempt == maxAttempts {
			break
		}

		delay := c.delayAfter(attempt)
		c.log.Info("classification: retrying after upstream error", "error", err, "attempt", attempt, "delay", delay.String())
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	c.log.Warn("classification: giving up", "error", lastErr, "attempts", maxAttempts, "model", c.llm.Name())
	return fallback(RationaleAnalysisFailed)
}

func (c *Classifier) delayAfter(attempt int) time.Duration {
	if len(c.backoff) == 0 {
		return 0
	}
	if attempt-1 < len(c.backoff) {
		return c.backoff[attempt-1]
	}
	return c.backoff[len(c.backoff)-1]
}

func (c *Classifier) generate(ctx context.Context, req *model.LLMRequest) (string, error) {
	var text strings.Builder
	for resp, err := range c.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", errEmptyResponse
	}
	return text.String(), nil
}

var errEmptyResponse = errors.New("empty model response")

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func buildRequest(summary string) *model.LLMRequest {
	return &model.LLMRequest{
		Contents: []*genai.Content{
			genai.NewContentFromText(buildPrompt(summary), genai.RoleUser),
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    responseSchema(),
		},
	}
}

func describeLevels() string {
	return fmt.Sprintf("%q, %q, %q or %q", domain.InterestUnknown, domain.InterestCold, domain.InterestWarm, domain.InterestHot)
}
