package render

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/Sternrassler/voog-pager/pkg/navigation"
)

// Navigation is a rendered set of page links. Entries keep the structured
// form so hosts can wire clicks to the controller.
type Navigation struct {
	Entries []navigation.Entry
	HTML    template.HTML
}

type navItem struct {
	URL      string
	Content  template.HTML
	ModClass string
	State    string
}

var navTemplate = template.Must(template.New("nav").Parse(
	`<nav class="pageNav" role="navigation"><div class="pageNav_list">` +
		`{{range .}}<div class="pageNav_item">` +
		`{{if .URL}}<a href="{{.URL}}" class="pageNav_link {{.ModClass}} {{.State}}">{{.Content}}</a>` +
		`{{else}}<div class="pageNav_link {{.ModClass}} {{.State}}">{{.Content}}</div>{{end}}` +
		`</div>{{end}}` +
		`</div></nav>`))

// NavigationHTML renders entries as pageNav markup.
func NavigationHTML(entries []navigation.Entry) template.HTML {
	items := make([]navItem, 0, len(entries))

	for _, e := range entries {
		item := navItem{URL: e.Href}

		switch {
		case e.Disabled:
			item.State = "st-disabled"
		case e.Current:
			item.State = "st-active"
		}

		switch e.Kind {
		case navigation.KindPrev:
			item.Content = "&lt;"
		case navigation.KindNext:
			item.Content = "&gt;"
		case navigation.KindEllipsis:
			item.Content = "..."
			item.ModClass = "pageNav_link-ellipsis"
		default:
			item.Content = template.HTML(strconv.Itoa(e.Page))
		}

		items = append(items, item)
	}

	var buf bytes.Buffer
	if err := navTemplate.Execute(&buf, items); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

// NewNavigation renders entries into a Navigation.
func NewNavigation(entries []navigation.Entry) Navigation {
	return Navigation{
		Entries: entries,
		HTML:    NavigationHTML(entries),
	}
}
