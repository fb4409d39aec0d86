package pagination

import (
	"html/template"

	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/Sternrassler/voog-pager/pkg/render"
	"github.com/Sternrassler/voog-pager/pkg/urlcodec"
)

// MessageRenderer replaces the rendered items with a message.
type MessageRenderer func(message template.HTML)

// ErrorHandler handles a failed fetch. It receives the callback that puts a
// message in place of the items and the message template in effect.
type ErrorHandler func(renderMessage MessageRenderer, messageTemplate render.MessageTemplate, failure Failure)

// Strategies are the replaceable behaviours of a Controller. A nil field
// selects the default; a set field replaces it wholesale.
type Strategies struct {
	// RequestURL builds the API URL of a page. Default urlcodec.DefaultBuilder.
	RequestURL urlcodec.RequestURLBuilder

	// ItemTemplate renders one item. Default depends on the item type.
	ItemTemplate render.ItemTemplate

	// ItemWrapper wraps each rendered item. Default none.
	ItemWrapper render.ItemWrapper

	// DateFormatter formats item timestamps. Default render.FormatDate.
	DateFormatter render.DateFormatter

	// MessageTemplate renders notifications. Default render.Message.
	MessageTemplate render.MessageTemplate

	// ErrorHandler handles failed fetches. Default renders the configured
	// error notification.
	ErrorHandler ErrorHandler
}

func (s Strategies) withDefaults(o options.Options) Strategies {
	if s.RequestURL == nil {
		s.RequestURL = urlcodec.DefaultBuilder
	}
	if s.ItemTemplate == nil {
		s.ItemTemplate = render.TemplateFor(o.ItemType)
	}
	if s.DateFormatter == nil {
		s.DateFormatter = render.FormatDate
	}
	if s.MessageTemplate == nil {
		s.MessageTemplate = render.Message
	}
	if s.ErrorHandler == nil {
		notification := template.HTML(o.DefaultNotifications.Error)
		s.ErrorHandler = func(renderMessage MessageRenderer, messageTemplate render.MessageTemplate, _ Failure) {
			renderMessage(messageTemplate(notification, render.MessageError))
		}
	}
	return s
}
