package ai

import (
	"fmt"
	"strings"

	"neurodvach/config"
	"neurodvach/models"
)

// Renderer builds the text prompt for a generation request.
type Renderer struct {
	// Window is the number of most recent posts included. Zero includes all of them.
	Window int
	// Delimiter separates posts in the model's answer.
	Delimiter string
}

func NewRenderer(window int) *Renderer {
	return &Renderer{Window: window, Delimiter: config.PostDelimiter}
}

// Render is a pure function of the request; credentials are ignored.
func (r *Renderer) Render(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Контекст:\nБорда: /%s/ - %s\nТред: %s\n\n", req.BoardSlug, req.BoardTitle, req.ThreadTitle)

	for _, p := range r.window(req.Posts) {
		fmt.Fprintf(&b, "[Пост #%d от %s]:\n%s\n---\n", p.ID, authorLabel(p.AuthorType), p.Content)
	}

	n := ClampInt(req.ReplyCount)
	fmt.Fprintf(&b, "\nТвоя задача: написать ровно %d %s в этот тред.\n", n, postsWord(n))
	b.WriteString("Каждый пост пишет отдельный анон, посты не связаны друг с другом. Не нумеруй посты и не добавляй к ним заголовки или подписи.\n")
	if n > 1 {
		fmt.Fprintf(&b, "Разделяй посты строкой %s. После последнего поста ничего не пиши.\n", r.Delimiter)
	} else {
		fmt.Fprintf(&b, "Не используй строку %s и ничего не пиши после поста.\n", r.Delimiter)
	}
	b.WriteString("Если пост отвечает на конкретное сообщение, начни его с >>номер (например >>12) и при желании процитируй фрагмент строкой, начинающейся с \">\".\n")

	return b.String()
}

// window returns the tail of posts allowed into the prompt, oldest first.
func (r *Renderer) window(posts []models.Post) []models.Post {
	if r.Window > 0 && len(posts) > r.Window {
		return posts[len(posts)-r.Window:]
	}
	return posts
}

func authorLabel(t models.AuthorType) string {
	if t == models.AuthorAI {
		return config.AIAuthorName
	}
	return config.UserAuthorName
}

// postsWord picks the Russian plural form of "пост" for n.
func postsWord(n int) string {
	mod10, mod100 := n%10, n%100
	switch {
	case mod10 == 1 && mod100 != 11:
		return "пост"
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return "поста"
	default:
		return "постов"
	}
}
