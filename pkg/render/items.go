package render

import (
	"encoding/json"
	"html/template"

	"github.com/rs/zerolog"
)

// ItemRenderer maps raw items to markup through a template.
type ItemRenderer struct {
	template ItemTemplate
	wrapper  ItemWrapper
	dates    DateFormatter
	logger   zerolog.Logger
}

// NewItemRenderer creates a renderer. A nil dates formatter falls back to
// FormatDate; a nil wrapper leaves items unwrapped.
func NewItemRenderer(tmpl ItemTemplate, wrapper ItemWrapper, dates DateFormatter, logger zerolog.Logger) *ItemRenderer {
	if dates == nil {
		dates = FormatDate
	}
	return &ItemRenderer{
		template: tmpl,
		wrapper:  wrapper,
		dates:    dates,
		logger:   logger,
	}
}

// Render renders every item in order. Items whose template fails are
// logged and left out.
func (r *ItemRenderer) Render(items []json.RawMessage) []template.HTML {
	out := make([]template.HTML, 0, len(items))

	for i, item := range items {
		markup, err := r.template.RenderItem(item, r.dates, i)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Int("index", i).
				Msg("Item template failed, skipping item")
			continue
		}

		if r.wrapper != nil {
			markup = r.wrapper(markup, i)
		}
		out = append(out, markup)
	}

	return out
}
