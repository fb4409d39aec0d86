package main

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/Sternrassler/voog-pager/pkg/location"
	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/Sternrassler/voog-pager/pkg/pagination"
	"github.com/Sternrassler/voog-pager/pkg/render"
	"github.com/spf13/cobra"
)

func newPageCommand(cfg *appConfig) *cobra.Command {
	var goTo int

	cmd := &cobra.Command{
		Use:   "page [page-url]",
		Short: "Render one page of items as an HTML document",
		Long: `Render the page a page URL points at, as the widget would on load.

The page is read from the URL according to urlFormat, e.g. /blog?page=2 for
the query formats or /blog#page-2 for the hash format. Without a URL the
starting page is rendered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL := "/"
			if len(args) == 1 {
				pageURL = args[0]
			}
			return runPage(cmd.Context(), cfg, pageURL, goTo, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&goTo, "goto", 0, "page to navigate to after the starting page loaded")

	return cmd
}

func runPage(ctx context.Context, cfg *appConfig, pageURL string, goTo int, out io.Writer) error {
	opts, err := cfg.resolveOptions(nil)
	if err != nil {
		return err
	}

	voog, err := cfg.newClient(nil)
	if err != nil {
		return fmt.Errorf("failed to create Voog client: %w", err)
	}

	result, err := renderPage(ctx, voog, opts, pageURL, goTo)
	if err != nil {
		return err
	}
	if result.Failure != nil {
		return fmt.Errorf("page %d: %w", result.Failure.Page, result.Failure.Err)
	}

	_, err = io.WriteString(out, result.Document())
	return err
}

// renderedPage is the outcome of one headless render.
type renderedPage struct {
	HTML  template.HTML
	State pagination.State

	// Location is where the page URL ended up, it differs from the input
	// after a --goto navigation.
	Location string

	// Failure is set when the last fetch failed; HTML then holds the error
	// notification.
	Failure *pagination.Failure
}

// renderPage runs a controller against an in-memory location and view,
// loads the page pageURL points at and optionally navigates to goTo.
func renderPage(ctx context.Context, fetcher pagination.Fetcher, opts options.Options, pageURL string, goTo int) (*renderedPage, error) {
	view := render.NewBuffer()
	loc := location.NewMemory(pageURL)

	pager, err := pagination.New(view, loc, fetcher, opts, pagination.Strategies{})
	if err != nil {
		return nil, err
	}

	result := &renderedPage{}
	pager.On(pagination.EventFetchFail, func(e pagination.Event) {
		failure := e.Payload.(pagination.Failure)
		result.Failure = &failure
	})
	pager.On(pagination.EventAfterRender, func(pagination.Event) {
		result.Failure = nil
	})

	if err := pager.Init(ctx); err != nil {
		return nil, err
	}
	defer pager.Destroy()

	if goTo > 0 && goTo != pager.State().CurrentPage {
		pager.GoToPage(ctx, pagination.Page(goTo))
	}

	result.HTML = view.HTML()
	result.State = pager.State()
	result.Location = loc.URL()
	return result, nil
}

var documentTemplate = template.Must(template.New("document").Parse(
	`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{.Body}}
</body>
</html>
`))

// Document wraps the rendered pager in a minimal HTML page.
func (p *renderedPage) Document() string {
	title := "Page"
	if p.State.TotalPages > 0 {
		title = fmt.Sprintf("Page %d of %d", p.State.CurrentPage, p.State.TotalPages)
	}

	var sb strings.Builder
	if err := documentTemplate.Execute(&sb, struct {
		Title string
		Body  template.HTML
	}{title, p.HTML}); err != nil {
		return string(p.HTML)
	}
	return sb.String()
}
