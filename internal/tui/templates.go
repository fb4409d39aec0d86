package tui

import (
	"encoding/json"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/Sternrassler/voog-pager/pkg/pagination"
	"github.com/Sternrassler/voog-pager/pkg/render"
)

// errorPrefix marks error notifications in the plain-text content.
const errorPrefix = "! "

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plain strips markup and collapses whitespace.
func plain(s string) string {
	return strings.Join(strings.Fields(tagPattern.ReplaceAllString(s, " ")), " ")
}

// Strategies renders items and notifications as single plain-text lines
// for the terminal. The values are not HTML despite the type.
func Strategies(itemType options.ItemType) pagination.Strategies {
	return pagination.Strategies{
		ItemTemplate:    textTemplate(itemType),
		MessageTemplate: textMessage,
	}
}

func textTemplate(itemType options.ItemType) render.ItemTemplate {
	return render.ItemTemplateFunc(func(item json.RawMessage, dates render.DateFormatter, _ int) (template.HTML, error) {
		switch itemType {
		case options.ItemTypeElement:
			var e render.Element
			if err := json.Unmarshal(item, &e); err != nil {
				return "", fmt.Errorf("decode element: %w", err)
			}
			return template.HTML(e.Title), nil

		case options.ItemTypeComment:
			var c render.Comment
			if err := json.Unmarshal(item, &c); err != nil {
				return "", fmt.Errorf("decode comment: %w", err)
			}
			return template.HTML(fmt.Sprintf("%s, %s: %s", c.Author, dates(c.CreatedAt), plain(string(c.Body)))), nil

		default:
			var a render.Article
			if err := json.Unmarshal(item, &a); err != nil {
				return "", fmt.Errorf("decode article: %w", err)
			}
			line := a.Title
			if a.PublishedAt != "" {
				line += " (" + dates(a.PublishedAt) + ")"
			}
			if a.Author.Name != "" {
				line += " by " + a.Author.Name
			}
			return template.HTML(line), nil
		}
	})
}

func textMessage(message template.HTML, kind render.MessageKind) template.HTML {
	text := plain(string(message))
	if kind == render.MessageError {
		text = errorPrefix + text
	}
	return template.HTML(text)
}
