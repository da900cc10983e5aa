// neurodvach/handlers/actions.go

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"neurodvach/database"
	"neurodvach/threads"

	"github.com/go-chi/chi/v5"
)

// HandleCreateThread starts a new thread and redirects to it once AI replies are in.
func HandleCreateThread(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleCreateThread")
	if err := r.ParseForm(); err != nil {
		renderError(w, r, app, http.StatusBadRequest, "Некорректная форма.")
		return
	}

	board, ok := loadBoard(w, r, app)
	if !ok {
		return
	}

	out, err := app.Threads().CreateThread(r.Context(), threads.CreateThreadInput{
		BoardSlug: board.Slug,
		Title:     r.PostFormValue("title"),
		Content:   r.PostFormValue("content"),
		AIReplies: r.PostFormValue("aiReplies"),
	})
	if err != nil {
		respondFlowError(w, r, app, err, "Ошибка при создании треда.")
		return
	}
	if out.EnrichErr != nil {
		logger.Warn("Thread created without AI replies", "thread_id", out.ThreadID, "error", out.EnrichErr)
	}

	http.Redirect(w, r, fmt.Sprintf("/%s/thread/%d", out.BoardSlug, out.ThreadID), http.StatusSeeOther)
}

// HandleReply adds the user's post to a thread and redirects back to it.
// The caller's API key is read from the form and used for this request only.
func HandleReply(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleReply")
	if err := r.ParseForm(); err != nil {
		renderError(w, r, app, http.StatusBadRequest, "Некорректная форма.")
		return
	}

	threadID, ok := threadIDParam(r)
	if !ok {
		HandleNotFound(w, r, app)
		return
	}

	out, err := app.Threads().Reply(r.Context(), threads.ReplyInput{
		BoardSlug: chi.URLParam(r, "board"),
		ThreadID:  threadID,
		Content:   r.PostFormValue("content"),
		APIKey:    r.PostFormValue("geminiApiKey"),
		ModelID:   r.PostFormValue("geminiModelId"),
		AIReplies: r.PostFormValue("aiReplies"),
	})
	if err != nil {
		respondFlowError(w, r, app, err, "Ошибка при отправке ответа.")
		return
	}
	if out.EnrichErr != nil {
		logger.Warn("Reply stored without AI replies", "thread_id", out.ThreadID, "error", out.EnrichErr)
	}

	http.Redirect(w, r, fmt.Sprintf("/%s/thread/%d#p%d", out.BoardSlug, out.ThreadID, out.UserPostID), http.StatusSeeOther)
}

// respondFlowError maps an error from a write flow to a status page.
func respondFlowError(w http.ResponseWriter, r *http.Request, app App, err error, fallback string) {
	var ve *threads.ValidationError
	switch {
	case errors.As(err, &ve):
		renderError(w, r, app, http.StatusBadRequest, ve.Message)
	case errors.Is(err, database.ErrNotFound):
		HandleNotFound(w, r, app)
	default:
		app.Logger().Error("Write flow failed", "path", r.URL.Path, "error", err)
		renderError(w, r, app, http.StatusInternalServerError, fallback)
	}
}
