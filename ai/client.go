package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"neurodvach/config"
	"neurodvach/models"
)

// Failure is the reason a generation produced no usable text.
type Failure int

const (
	FailureNone Failure = iota
	FailureNoCredential
	FailureBackend
	FailureEmpty
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "ok"
	case FailureNoCredential:
		return "no_credential"
	case FailureBackend:
		return "backend_error"
	case FailureEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Result is the outcome of one generation call. Text is set only when Failure is FailureNone.
type Result struct {
	Text    string
	Failure Failure
	Err     error
}

// Content is the text to publish: the model's answer or the matching placeholder.
func (r Result) Content() string {
	switch r.Failure {
	case FailureNone:
		return r.Text
	case FailureNoCredential:
		return config.PlaceholderNoKey
	case FailureEmpty:
		return config.PlaceholderSilent
	default:
		return config.PlaceholderFailure
	}
}

// Client performs one generation call and never returns an error: every
// backend fault becomes a Result with a Failure reason.
type Client struct {
	SystemInstruction string
	// Limiter paces calls made with the default key. Nil disables pacing.
	Limiter *models.KeyLimiter
	// Timeout bounds the pacing wait plus the backend call. Zero means no bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

func (c *Client) Generate(ctx context.Context, prompt string, creds Credentials) Result {
	if creds.Backend == nil {
		return c.observe(creds, time.Now(), Result{Failure: FailureNoCredential})
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	if creds.Source == SourceDefault && c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return c.observe(creds, time.Now(), Result{Failure: FailureBackend, Err: fmt.Errorf("waiting for default key: %w", err)})
		}
	}

	start := time.Now()
	text, err := c.call(ctx, prompt, creds)
	if err != nil {
		return c.observe(creds, start, Result{Failure: FailureBackend, Err: err})
	}
	if strings.TrimSpace(text) == "" {
		return c.observe(creds, start, Result{Failure: FailureEmpty})
	}
	return c.observe(creds, start, Result{Text: text})
}

// call invokes the backend, turning a panic inside it into an error.
func (c *Client) call(ctx context.Context, prompt string, creds Credentials) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("backend panic: %v", rec)
		}
	}()
	return creds.Backend.GenerateContent(ctx, creds.Model, c.SystemInstruction, prompt)
}

func (c *Client) observe(creds Credentials, start time.Time, res Result) Result {
	generationsTotal.WithLabelValues(string(creds.Source), res.Failure.String()).Inc()
	if creds.Backend != nil {
		generationDuration.WithLabelValues(creds.Model).Observe(time.Since(start).Seconds())
	}

	if c.Logger == nil {
		return res
	}
	switch res.Failure {
	case FailureNone:
		c.Logger.Info("AI generation succeeded", "source", creds.Source, "model", creds.Model, "chars", len(res.Text), "duration", time.Since(start))
	case FailureNoCredential:
		c.Logger.Warn("AI generation skipped, no API key configured")
	case FailureEmpty:
		c.Logger.Warn("AI generation returned empty text", "source", creds.Source, "model", creds.Model)
	default:
		c.Logger.Error("AI generation failed", "source", creds.Source, "model", creds.Model, "error", res.Err)
	}
	return res
}
