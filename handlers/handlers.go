// neurodvach/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"neurodvach/config"
	"neurodvach/database"
	"neurodvach/models"
	"neurodvach/threads"
	"neurodvach/utils"

	"github.com/go-chi/chi/v5"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	Threads() *threads.Service
	Markup() *utils.Markup
	Logger() *slog.Logger
}

var boardSlugRegex = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// MakeHandler adapts a handler that needs the App to an http.HandlerFunc.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// loadBoard resolves the {board} URL parameter, writing a 404 page when it is unknown.
func loadBoard(w http.ResponseWriter, r *http.Request, app App) (*models.Board, bool) {
	slug := chi.URLParam(r, "board")
	if !boardSlugRegex.MatchString(slug) {
		HandleNotFound(w, r, app)
		return nil, false
	}
	board, err := app.DB().GetBoard(r.Context(), slug)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			app.Logger().Info("User attempted to access non-existent board", "board", slug)
			HandleNotFound(w, r, app)
			return nil, false
		}
		app.Logger().Error("DB error loading board", "board", slug, "error", err)
		renderError(w, r, app, http.StatusInternalServerError, "Ошибка базы данных.")
		return nil, false
	}
	return board, true
}

// threadIDParam parses the {threadID} URL parameter.
func threadIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "threadID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HandleHome serves the main page listing all boards.
func HandleHome(w http.ResponseWriter, r *http.Request, app App) {
	boards, err := app.DB().ListBoards(r.Context())
	if err != nil {
		app.Logger().Error("DB error listing boards", "error", err)
		renderError(w, r, app, http.StatusInternalServerError, "Ошибка базы данных.")
		return
	}
	render(w, r, app, "layout.html", "home.html", map[string]interface{}{
		"Title":        "Главная",
		"Boards":       boards,
		"GlobalBoards": boards,
	})
}

// HandleBoard lists the threads of a board, most recently active first.
func HandleBoard(w http.ResponseWriter, r *http.Request, app App) {
	board, ok := loadBoard(w, r, app)
	if !ok {
		return
	}
	threadList, err := app.DB().ListThreads(r.Context(), board.ID)
	if err != nil {
		app.Logger().Error("DB error listing threads", "board", board.Slug, "error", err)
		renderError(w, r, app, http.StatusInternalServerError, "Ошибка базы данных.")
		return
	}
	render(w, r, app, "layout.html", "board.html", map[string]interface{}{
		"Title":      board.Title,
		"Board":      board,
		"Threads":    threadList,
		"MaxReplies": config.MaxReplies,
	})
}

// HandleThread shows every post of a thread with the reply form.
func HandleThread(w http.ResponseWriter, r *http.Request, app App) {
	board, ok := loadBoard(w, r, app)
	if !ok {
		return
	}
	threadID, ok := threadIDParam(r)
	if !ok {
		HandleNotFound(w, r, app)
		return
	}

	thread, err := app.DB().GetThread(r.Context(), board.ID, threadID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			HandleNotFound(w, r, app)
			return
		}
		app.Logger().Error("DB error getting thread", "thread_id", threadID, "error", err)
		renderError(w, r, app, http.StatusInternalServerError, "Ошибка базы данных.")
		return
	}

	posts, err := app.DB().GetPostsForThread(r.Context(), threadID)
	if err != nil {
		app.Logger().Error("DB error getting posts for thread", "thread_id", threadID, "error", err)
		renderError(w, r, app, http.StatusInternalServerError, "Ошибка базы данных.")
		return
	}
	for i := range posts {
		posts[i].HTML = app.Markup().Render(posts[i].Content)
	}

	render(w, r, app, "layout.html", "thread.html", map[string]interface{}{
		"Title":        thread.Title,
		"Board":        board,
		"Thread":       thread,
		"Posts":        posts,
		"Models":       config.UserModels,
		"DefaultModel": config.DefaultModelID,
		"MaxReplies":   config.MaxReplies,
		"MaxKeyLen":    config.MaxKeyLen,
	})
}

// HandlePostPreview serves the HTML of a single post, used for >>id hover previews.
func HandlePostPreview(w http.ResponseWriter, r *http.Request, app App) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID.", http.StatusBadRequest)
		return
	}

	post, err := app.DB().GetPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.Logger().Error("Error fetching post for preview", "post_id", postID, "error", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	post.HTML = app.Markup().Render(post.Content)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "post", *post); err != nil {
		app.Logger().Error("Error rendering post preview", "post_id", postID, "error", err)
	}
}

// HandleHealth reports whether the database answers.
func HandleHealth(w http.ResponseWriter, r *http.Request, app App) {
	if err := app.DB().Ping(r.Context()); err != nil {
		app.Logger().Error("Health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": config.AppVersion}, app)
}

// HandleNotFound renders the 404 page.
func HandleNotFound(w http.ResponseWriter, r *http.Request, app App) {
	renderError(w, r, app, http.StatusNotFound, "Страница не найдена.")
}
