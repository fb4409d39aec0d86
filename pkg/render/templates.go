// Package render turns API items into markup and defines the surface the
// pagination controller draws on.
//
// Default templates exist for the three Voog item types. Callers replace
// them wholesale through ItemTemplate, or decorate them with an ItemWrapper.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/Sternrassler/voog-pager/pkg/options"
)

// DateFormatter turns an API timestamp into display text.
type DateFormatter func(value string) string

// FormatDate renders timestamps as dd.mm.yyyy in the timestamp's own offset.
// Values it cannot parse are returned unchanged.
func FormatDate(value string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02.01.2006")
		}
	}
	return value
}

// ItemTemplate renders a single item.
type ItemTemplate interface {
	RenderItem(item json.RawMessage, dates DateFormatter, index int) (template.HTML, error)
}

// ItemTemplateFunc adapts a function to ItemTemplate.
type ItemTemplateFunc func(item json.RawMessage, dates DateFormatter, index int) (template.HTML, error)

// RenderItem implements ItemTemplate.
func (f ItemTemplateFunc) RenderItem(item json.RawMessage, dates DateFormatter, index int) (template.HTML, error) {
	return f(item, dates, index)
}

// ItemWrapper decorates the markup of one rendered item.
type ItemWrapper func(item template.HTML, index int) template.HTML

// Ref is a nested {"id": ...} reference.
type Ref struct {
	ID options.ID `json:"id"`
}

// Author is an article author.
type Author struct {
	ID   options.ID `json:"id"`
	Name string     `json:"name"`
	URL  string     `json:"url"`
}

// Article is a Voog blog article with details included.
type Article struct {
	ID                  options.ID    `json:"id"`
	Title               string        `json:"title"`
	Excerpt             template.HTML `json:"excerpt"`
	PublicURL           string        `json:"public_url"`
	PublishedAt         string        `json:"published_at"`
	PublicCommentsCount int           `json:"public_comments_count"`
	Author              Author        `json:"author"`
	Page                Ref           `json:"page"`
}

// Element is a Voog catalogue element.
type Element struct {
	ID        options.ID `json:"id"`
	Title     string     `json:"title"`
	PublicURL string     `json:"public_url"`
	Page      Ref        `json:"page"`
}

// Comment is a public article comment.
type Comment struct {
	ID        options.ID    `json:"id"`
	Author    string        `json:"author"`
	Body      template.HTML `json:"body"`
	CreatedAt string        `json:"created_at"`
	Article   Ref           `json:"article"`
}

var articleTemplate = template.Must(template.New("article").Parse(
	`<article class="post" data-post-id="{{.ID}}" data-parent-id="{{.Page.ID}}">` +
		`<header class="post-header"><section class="post-meta">` +
		`<span class="post-author" data-author-url="{{.Author.URL}}" data-author-id="{{.Author.ID}}">{{.Author.Name}}</span>` +
		`<span class="separator"></span>` +
		`<time class="post-date" datetime="{{.PublishedAt}}">{{.Date}}</time>` +
		`<span class="separator"></span>` +
		`<a href="{{.PublicURL}}#comments" class="comments-count{{if not .PublicCommentsCount}} no-comments{{end}}"> {{.PublicCommentsCount}} </a>` +
		`<h1 class="post-title"><a href="{{.PublicURL}}">{{.Title}}</a></h1>` +
		`</section></header>` +
		`<section class="post-content"><div class="post-excerpt content-formatted">{{.Excerpt}}</div></section>` +
		`</article>`))

var elementTemplate = template.Must(template.New("element").Parse(
	`<article class="element" data-element-id="{{.ID}}" data-parent-id="{{.Page.ID}}">` +
		`<h1 class="element-title"><a href="{{.PublicURL}}">{{.Title}}</a></h1>` +
		`</article>`))

var commentTemplate = template.Must(template.New("comment").Parse(
	`<div class="comment edy-site-blog-comment" data-comment-id="{{.ID}}" data-parent-id="{{.Article.ID}}">` +
		`<div class="comment-inner">` +
		`<header class="comment-header">` +
		`<span class="comment-author">{{.Author}}</span>` +
		`<span class="separator"></span>` +
		`<time class="comment-date" datetime="{{.CreatedAt}}">{{.Date}}</time>` +
		`</header>` +
		`<section><span class="comment-body">{{.Body}}</span></section>` +
		`</div></div>`))

// ArticleTemplate is the default article template.
var ArticleTemplate ItemTemplate = ItemTemplateFunc(func(item json.RawMessage, dates DateFormatter, _ int) (template.HTML, error) {
	var a Article
	if err := json.Unmarshal(item, &a); err != nil {
		return "", fmt.Errorf("decode article: %w", err)
	}
	return execute(articleTemplate, struct {
		Article
		Date string
	}{a, dates(a.PublishedAt)})
})

// ElementTemplate is the default element template.
var ElementTemplate ItemTemplate = ItemTemplateFunc(func(item json.RawMessage, _ DateFormatter, _ int) (template.HTML, error) {
	var e Element
	if err := json.Unmarshal(item, &e); err != nil {
		return "", fmt.Errorf("decode element: %w", err)
	}
	return execute(elementTemplate, e)
})

// CommentTemplate is the default comment template.
var CommentTemplate ItemTemplate = ItemTemplateFunc(func(item json.RawMessage, dates DateFormatter, _ int) (template.HTML, error) {
	var c Comment
	if err := json.Unmarshal(item, &c); err != nil {
		return "", fmt.Errorf("decode comment: %w", err)
	}
	return execute(commentTemplate, struct {
		Comment
		Date string
	}{c, dates(c.CreatedAt)})
})

// TemplateFor returns the default template of an item type.
func TemplateFor(itemType options.ItemType) ItemTemplate {
	switch itemType {
	case options.ItemTypeElement:
		return ElementTemplate
	case options.ItemTypeComment:
		return CommentTemplate
	default:
		return ArticleTemplate
	}
}

// MessageKind selects the notification style.
type MessageKind string

const (
	MessageInfo  MessageKind = "info"
	MessageError MessageKind = "error"
)

// MessageTemplate renders a notification.
type MessageTemplate func(message template.HTML, kind MessageKind) template.HTML

var messageTemplate = template.Must(template.New("message").Parse(
	`<div class="notification notification-{{.Kind}}">{{.Message}}</div>`))

// Message is the default MessageTemplate. Unknown kinds render as info.
func Message(message template.HTML, kind MessageKind) template.HTML {
	if kind != MessageError {
		kind = MessageInfo
	}
	out, err := execute(messageTemplate, struct {
		Message template.HTML
		Kind    MessageKind
	}{message, kind})
	if err != nil {
		return message
	}
	return out
}

func execute(t *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", t.Name(), err)
	}
	return template.HTML(buf.String()), nil
}
