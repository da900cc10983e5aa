package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"neurodvach/config"
	"neurodvach/models"
)

// ErrNoUserPost is returned when a request carries no user-authored post.
// AI posts are only ever written into threads a user has posted in.
var ErrNoUserPost = errors.New("ai: thread has no user post")

// Generator produces the list of AI post bodies for a thread.
type Generator struct {
	renderer *Renderer
	resolver *Resolver
	client   *Client
	logger   *slog.Logger
}

// GeneratorOptions configures NewGenerator.
type GeneratorOptions struct {
	// Default is the server-wide backend. It may be nil.
	Default       Backend
	DefaultModel  string
	NewBackend    BackendFactory
	ContextWindow int
	Limiter       *models.KeyLimiter
	// Timeout bounds each backend call. Zero means no bound.
	Timeout time.Duration
	Logger        *slog.Logger
}

func NewGenerator(opts GeneratorOptions) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaultModel := opts.DefaultModel
	if defaultModel == "" {
		defaultModel = config.DefaultModelID
	}
	return &Generator{
		renderer: NewRenderer(opts.ContextWindow),
		resolver: &Resolver{
			Default:       opts.Default,
			DefaultModel:  defaultModel,
			AllowedModels: config.UserModels,
			NewBackend:    opts.NewBackend,
		},
		client: &Client{
			SystemInstruction: config.SystemInstruction,
			Limiter:           opts.Limiter,
			Timeout:           opts.Timeout,
			Logger:            logger,
		},
		logger: logger,
	}
}

// GenerateReplies returns between one and req.ReplyCount post bodies. Backend
// problems never surface as errors; they come back as a single placeholder post.
// An error means the request itself was unusable and nothing should be published.
func (g *Generator) GenerateReplies(ctx context.Context, req Request) ([]string, error) {
	if !hasUserPost(req.Posts) {
		return nil, ErrNoUserPost
	}
	count := ClampInt(req.ReplyCount)
	req.ReplyCount = count

	var res Result
	creds, err := g.resolver.Resolve(ctx, req.UserAPIKey, req.UserModelID)
	if err != nil {
		res = g.client.observe(creds, time.Now(), Result{Failure: FailureBackend, Err: err})
	} else {
		res = g.client.Generate(ctx, g.renderer.Render(req), creds)
	}

	var replies []string
	if res.Failure != FailureNone {
		replies = []string{res.Content()}
	} else {
		replies = Split(res.Text, count)
	}
	repliesTotal.Add(float64(len(replies)))
	g.logger.Debug("AI replies ready", "thread", req.ThreadTitle, "requested", count, "got", len(replies), "outcome", res.Failure.String())
	return replies, nil
}

func hasUserPost(posts []models.Post) bool {
	for _, p := range posts {
		if p.AuthorType == models.AuthorUser {
			return true
		}
	}
	return false
}
