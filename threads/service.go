// Package threads implements the two write flows of the board: starting a
// thread and replying to one. Both store the user's post first and then ask
// the AI for replies, which are stored under the same thread.
package threads

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"neurodvach/ai"
	"neurodvach/config"
	"neurodvach/models"

	"github.com/go-playground/validator/v10"
)

// Store is the persistence the flows need. *database.DatabaseService satisfies it.
type Store interface {
	GetBoard(ctx context.Context, slug string) (*models.Board, error)
	GetThread(ctx context.Context, boardID, threadID int64) (*models.Thread, error)
	GetPostsForThread(ctx context.Context, threadID int64) ([]models.Post, error)
	CreateThread(ctx context.Context, boardID int64, title, authorName, content string) (int64, int64, error)
	InsertPost(ctx context.Context, threadID int64, authorType models.AuthorType, authorName, content string) (int64, error)
	TouchThread(ctx context.Context, threadID int64) error
}

// ReplyGenerator produces AI post bodies. *ai.Generator satisfies it.
type ReplyGenerator interface {
	GenerateReplies(ctx context.Context, req ai.Request) ([]string, error)
}

// CreateThreadInput is a new thread as submitted by a user.
type CreateThreadInput struct {
	BoardSlug string
	Title     string `validate:"notblank,title_len"`
	Content   string `validate:"notblank,content_len"`
	// AIReplies is the raw requested count; it is clamped, never rejected.
	AIReplies string
}

// ReplyInput is a reply as submitted by a user. APIKey and ModelID are
// optional and only live for the duration of the call. A key or model the
// backend does not accept ends up as a placeholder reply, never as a rejected post.
type ReplyInput struct {
	BoardSlug string
	ThreadID  int64
	Content   string `validate:"notblank,content_len"`
	APIKey    string
	ModelID   string
	AIReplies string
}

// Outcome describes what a flow stored.
type Outcome struct {
	BoardSlug  string
	ThreadID   int64
	UserPostID int64
	AIPostIDs  []int64
	// EnrichErr is set when AI replies could not be produced or stored.
	// The user's post is kept regardless.
	EnrichErr error
}

type Service struct {
	store    Store
	gen      ReplyGenerator
	locks    *models.ThreadLocks
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(store Store, gen ReplyGenerator, locks *models.ThreadLocks, logger *slog.Logger) *Service {
	if locks == nil {
		locks = models.NewThreadLocks()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		gen:      gen,
		locks:    locks,
		validate: newValidator(),
		logger:   logger,
	}
}

// CreateThread stores the thread with its opening post, then adds AI replies.
// A returned error means nothing was stored. A non-nil Outcome means the thread exists.
// Title and content are stored as submitted; only blankness is judged after trimming.
func (s *Service) CreateThread(ctx context.Context, in CreateThreadInput) (*Outcome, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	board, err := s.store.GetBoard(ctx, in.BoardSlug)
	if err != nil {
		return nil, fmt.Errorf("loading board %q: %w", in.BoardSlug, err)
	}

	threadID, postID, err := s.store.CreateThread(ctx, board.ID, in.Title, config.UserAuthorName, in.Content)
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}
	s.logger.Info("Thread created", "board", board.Slug, "thread_id", threadID, "post_id", postID)

	out := &Outcome{BoardSlug: board.Slug, ThreadID: threadID, UserPostID: postID}
	thread := &models.Thread{ID: threadID, BoardID: board.ID, Title: in.Title}

	s.enrichLocked(ctx, board, thread, ai.ClampReplyCount(in.AIReplies), "", "", out)
	return out, nil
}

// Reply stores the user's post in an existing thread, then adds AI replies.
// The post is stored before waiting for the thread, so it is durable even if
// the caller gives up while another reply to the same thread is generating.
func (s *Service) Reply(ctx context.Context, in ReplyInput) (*Outcome, error) {
	in.APIKey = strings.TrimSpace(in.APIKey)
	in.ModelID = strings.TrimSpace(in.ModelID)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	board, err := s.store.GetBoard(ctx, in.BoardSlug)
	if err != nil {
		return nil, fmt.Errorf("loading board %q: %w", in.BoardSlug, err)
	}
	thread, err := s.store.GetThread(ctx, board.ID, in.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("loading thread %d: %w", in.ThreadID, err)
	}

	postID, err := s.store.InsertPost(ctx, thread.ID, models.AuthorUser, config.UserAuthorName, in.Content)
	if err != nil {
		return nil, fmt.Errorf("storing reply: %w", err)
	}
	s.logger.Info("Reply stored", "board", board.Slug, "thread_id", thread.ID, "post_id", postID)

	out := &Outcome{BoardSlug: board.Slug, ThreadID: thread.ID, UserPostID: postID}
	s.enrichLocked(ctx, board, thread, ai.ClampReplyCount(in.AIReplies), in.APIKey, in.ModelID, out)
	return out, nil
}

// enrichLocked runs enrich while holding the thread, so generations for one
// thread never overlap. Waiting for the thread follows the caller's context;
// if it ends first, no AI replies are added and the thread is still bumped.
func (s *Service) enrichLocked(ctx context.Context, board *models.Board, thread *models.Thread, count int, apiKey, modelID string, out *Outcome) {
	unlock, err := s.locks.Lock(ctx, thread.ID)
	if err != nil {
		out.EnrichErr = fmt.Errorf("waiting for thread %d: %w", thread.ID, err)
		s.logger.Warn("Skipping AI replies", "board", board.Slug, "thread_id", thread.ID, "error", out.EnrichErr)
		if err := s.store.TouchThread(context.WithoutCancel(ctx), thread.ID); err != nil {
			s.logger.Error("Failed to bump thread", "thread_id", thread.ID, "error", err)
		}
		return
	}
	defer unlock()
	s.enrich(ctx, board, thread, count, apiKey, modelID, out)
}

// enrich asks the generator for replies and stores them. It runs detached from
// the caller's cancellation so a dropped connection does not cut a thread short.
// The thread is bumped even if enrichment fails, since the user's post is new.
func (s *Service) enrich(ctx context.Context, board *models.Board, thread *models.Thread, count int, apiKey, modelID string, out *Outcome) {
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With("board", board.Slug, "thread_id", thread.ID)

	defer func() {
		if err := s.store.TouchThread(ctx, thread.ID); err != nil {
			log.Error("Failed to bump thread", "error", err)
		}
	}()

	posts, err := s.store.GetPostsForThread(ctx, thread.ID)
	if err != nil {
		out.EnrichErr = fmt.Errorf("loading thread history: %w", err)
		log.Error("Skipping AI replies", "error", out.EnrichErr)
		return
	}

	replies, err := s.gen.GenerateReplies(ctx, ai.Request{
		BoardSlug:   board.Slug,
		BoardTitle:  board.Title,
		ThreadTitle: thread.Title,
		Posts:       posts,
		ReplyCount:  count,
		UserAPIKey:  apiKey,
		UserModelID: modelID,
	})
	if err != nil {
		out.EnrichErr = fmt.Errorf("generating replies: %w", err)
		log.Error("Skipping AI replies", "error", out.EnrichErr)
		return
	}

	for _, text := range replies {
		id, err := s.store.InsertPost(ctx, thread.ID, models.AuthorAI, config.AIAuthorName, text)
		if err != nil {
			out.EnrichErr = fmt.Errorf("storing AI reply: %w", err)
			log.Error("Stopped storing AI replies", "stored", len(out.AIPostIDs), "error", err)
			return
		}
		out.AIPostIDs = append(out.AIPostIDs, id)
	}
	log.Info("AI replies stored", "requested", count, "stored", len(out.AIPostIDs))
}
