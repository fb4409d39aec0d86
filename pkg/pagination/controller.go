package pagination

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/voog-pager/pkg/client"
	"github.com/Sternrassler/voog-pager/pkg/location"
	"github.com/Sternrassler/voog-pager/pkg/logging"
	"github.com/Sternrassler/voog-pager/pkg/navigation"
	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/Sternrassler/voog-pager/pkg/render"
	"github.com/Sternrassler/voog-pager/pkg/urlcodec"
	"github.com/rs/zerolog"
)

// ErrAlreadyInitialized is returned by Init on an initialised controller.
var ErrAlreadyInitialized = errors.New("pagination already initialized")

// instanceCounter hands out controller uids.
var instanceCounter atomic.Uint64

// Fetcher loads one page of items. *client.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, requestURL string, useCache bool) (*client.Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, requestURL string, useCache bool) (*client.Page, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, requestURL string, useCache bool) (*client.Page, error) {
	return f(ctx, requestURL, useCache)
}

// State is a snapshot of the page state.
type State struct {
	CurrentPage  int
	TotalPages   int
	IsFetching   bool
	IsFirstFetch bool
	Initialized  bool
}

// Controller is one pagination widget instance.
//
// GoToPage and friends block until their fetch has finished and report
// whether a fetch was issued. A call made while another fetch is in flight
// is dropped.
type Controller struct {
	uid        uint64
	view       render.View
	loc        location.Location
	fetcher    Fetcher
	opts       options.Options
	strategies Strategies
	items      *render.ItemRenderer
	pushState  bool
	events     *emitter
	logger     zerolog.Logger

	mu          sync.Mutex
	state       State
	active      bool
	cancelPopFn func()

	// renderMu serialises writes to the view.
	renderMu sync.Mutex
	detachNav func()
}

// New creates a controller. Options must already be resolved; they are
// validated again here.
func New(view render.View, loc location.Location, fetcher Fetcher, opts options.Options, strategies Strategies) (*Controller, error) {
	if view == nil {
		return nil, fmt.Errorf("view is required")
	}
	if loc == nil {
		return nil, fmt.Errorf("location is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	uid := instanceCounter.Add(1) - 1
	strategies = strategies.withDefaults(opts)

	logger := logging.NewInstanceLogger("pagination", uid).With().
		Str("item_type", string(opts.ItemType)).
		Logger()

	return &Controller{
		uid:        uid,
		view:       view,
		loc:        loc,
		fetcher:    fetcher,
		opts:       opts,
		strategies: strategies,
		items:      render.NewItemRenderer(strategies.ItemTemplate, strategies.ItemWrapper, strategies.DateFormatter, logger),
		pushState:  loc.SupportsPushState() && opts.UseHistoryPushState,
		events:     newEmitter(),
		logger:     logger,
		state:      initialState(opts),
	}, nil
}

func initialState(o options.Options) State {
	return State{
		CurrentPage:  o.StartingPage,
		IsFirstFetch: true,
	}
}

// UID is the instance identifier, unique within the process.
func (c *Controller) UID() uint64 {
	return c.uid
}

// Options returns the resolved options.
func (c *Controller) Options() options.Options {
	return c.opts
}

// State returns a snapshot of the page state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// On registers a listener and returns the function that removes it.
func (c *Controller) On(name EventName, fn Listener) (off func()) {
	return c.events.on(name, fn)
}

// Init starts listening for history pops and loads the starting page. The
// context also bounds fetches triggered by later history pops.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.active = true
	fetching := c.state.IsFetching
	c.state = initialState(c.opts)
	c.state.IsFetching = fetching
	c.mu.Unlock()

	if c.pushState {
		cancel := c.loc.OnPopState(func() {
			c.logger.Debug().Msg("History pop, reloading page from location")
			c.loadStartingPage(ctx)
		})
		c.mu.Lock()
		c.cancelPopFn = cancel
		c.mu.Unlock()
	}

	c.logger.Debug().
		Bool("push_state", c.pushState).
		Str("url_format", string(c.opts.URLFormat)).
		Msg("Pagination initializing")

	c.loadStartingPage(ctx)
	return nil
}

// GoToPage loads target and records it in the location.
func (c *Controller) GoToPage(ctx context.Context, target Target) bool {
	return c.fetchPage(ctx, target, true)
}

// GoToEntry loads the page a navigation entry points at.
func (c *Controller) GoToEntry(ctx context.Context, entry navigation.Entry) bool {
	if !entry.Navigable() {
		return false
	}
	return c.GoToPage(ctx, Page(entry.Page))
}

// GoToNextPage is a no-op on the last page.
func (c *Controller) GoToNextPage(ctx context.Context) bool {
	s := c.State()
	if s.CurrentPage >= s.TotalPages {
		return false
	}
	return c.GoToPage(ctx, Page(s.CurrentPage+1))
}

// GoToPrevPage is a no-op on the first page.
func (c *Controller) GoToPrevPage(ctx context.Context) bool {
	s := c.State()
	if s.CurrentPage <= 1 {
		return false
	}
	return c.GoToPage(ctx, Page(s.CurrentPage-1))
}

// GoToFirstPage loads page 1.
func (c *Controller) GoToFirstPage(ctx context.Context) bool {
	return c.GoToPage(ctx, Page(1))
}

// GoToLastPage is a no-op on the last page or when the total is unknown.
func (c *Controller) GoToLastPage(ctx context.Context) bool {
	s := c.State()
	if s.TotalPages < 1 || s.CurrentPage == s.TotalPages {
		return false
	}
	return c.GoToPage(ctx, Page(s.TotalPages))
}

// Refresh tears down the rendered output and fetches the current page
// again. The location is left as is. While a fetch is in flight nothing
// is torn down and false is returned.
func (c *Controller) Refresh(ctx context.Context) bool {
	return c.startFetch(ctx, Page(c.State().CurrentPage), false, func() {
		c.emit(EventRefresh, nil)
		c.teardown()
	})
}

// Destroy removes rendered items and navigation, the initialised marker
// and the history listener. Later page requests are dropped until Init is
// called again. Destroying twice is a no-op.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	cancel := c.cancelPopFn
	c.cancelPopFn = nil
	c.mu.Unlock()

	c.emit(EventBeforeDestroy, nil)
	if cancel != nil {
		cancel()
	}
	c.teardown()
	c.emit(EventAfterDestroy, nil)

	c.logger.Info().Msg("Pagination destroyed")
}

// loadStartingPage fetches the page the location points at without
// touching the location.
func (c *Controller) loadStartingPage(ctx context.Context) bool {
	search := c.loc.Search()
	page, ok := urlcodec.ParsePage(search, c.loc.Hash(), c.opts)
	switch {
	case ok && c.opts.URLFormat == options.URLFormatFullQuery:
		// Keep every query parameter of the page URL
		return c.fetchPage(ctx, Target{page: page, url: urlcodec.Endpoint(c.opts) + search}, false)
	case ok:
		return c.fetchPage(ctx, Page(page), false)
	default:
		return c.fetchPage(ctx, Page(c.opts.StartingPage), false)
	}
}

func (c *Controller) requestURL(page int) string {
	return c.strategies.RequestURL.BuildRequestURL(page, c.opts)
}

// fetchPage is the single entry point for every fetch.
func (c *Controller) fetchPage(ctx context.Context, target Target, updateURL bool) bool {
	return c.startFetch(ctx, target, updateURL, nil)
}

// startFetch runs one fetch under the single-flight guard. onStart runs
// once the fetch slot is taken and before the request is sent.
func (c *Controller) startFetch(ctx context.Context, target Target, updateURL bool, onStart func()) bool {
	requestURL := target.url
	if requestURL == "" {
		requestURL = c.requestURL(target.page)
	}
	page := target.page

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		droppedTotal.WithLabelValues("destroyed").Inc()
		c.logger.Debug().Int("page", page).Msg("Page request dropped, not initialized")
		return false
	}
	if c.state.IsFetching {
		c.mu.Unlock()
		droppedTotal.WithLabelValues("busy").Inc()
		c.logger.Debug().Int("page", page).Msg("Page request dropped, fetch in flight")
		return false
	}

	// Without history push, query formats navigate for real after the first
	// page. With page URLs disabled there is nothing to navigate to.
	if !c.state.IsFirstFetch && c.opts.URLFormat.IsQuery() && !c.pushState && updateURL && c.opts.EnablePageURLs {
		c.mu.Unlock()
		droppedTotal.WithLabelValues("reload").Inc()
		c.logger.Debug().Int("page", page).Msg("Falling back to full page load")
		c.updateBrowserURL(urlcodec.QueryOf(requestURL), page)
		return false
	}

	c.state.IsFetching = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.IsFetching = false
		c.mu.Unlock()
	}()

	if onStart != nil {
		onStart()
	}

	c.emit(EventFetchStart, FetchStart{RequestURL: requestURL, Page: page})

	result, err := c.fetcher.Fetch(ctx, requestURL, c.opts.CachePages)
	if err == nil && result.TotalPages > 0 && page > result.TotalPages {
		// Past the end: show the last page so content, state and
		// location agree
		clamped := result.TotalPages
		c.logger.Debug().
			Int("page", page).
			Int("total_pages", clamped).
			Msg("Page out of range, loading last page")
		fetchesTotal.WithLabelValues("done").Inc()
		c.emit(EventFetchDone, FetchDone{RequestURL: requestURL, Page: page, Result: result})

		page = clamped
		requestURL = c.requestURL(clamped)
		c.emit(EventFetchStart, FetchStart{RequestURL: requestURL, Page: page})
		result, err = c.fetcher.Fetch(ctx, requestURL, c.opts.CachePages)
	}
	if err != nil {
		fetchesTotal.WithLabelValues("fail").Inc()
		failure := newFailure(requestURL, page, err)

		c.logger.Warn().
			Err(err).
			Int("page", page).
			Str("url", requestURL).
			Str("error_class", string(failure.Class)).
			Msg("Page fetch failed")

		c.emit(EventFetchFail, failure)
		if c.isActive() {
			c.strategies.ErrorHandler(c.renderMessage, c.strategies.MessageTemplate, failure)
		}
		return true
	}

	fetchesTotal.WithLabelValues("done").Inc()
	c.emit(EventFetchDone, FetchDone{RequestURL: requestURL, Page: page, Result: result})

	if !c.isActive() {
		c.logger.Debug().Int("page", page).Msg("Destroyed during fetch, not rendering")
		return true
	}

	c.mu.Lock()
	c.state.CurrentPage = page
	c.mu.Unlock()

	c.renderController(result)

	if updateURL {
		c.updateBrowserURL(urlcodec.QueryOf(requestURL), page)
	}

	c.mu.Lock()
	c.state.IsFirstFetch = false
	current := c.state.CurrentPage
	total := c.state.TotalPages
	c.mu.Unlock()

	c.logger.Info().
		Int("page", current).
		Int("total_pages", total).
		Int("items", len(result.Items)).
		Bool("from_cache", result.FromCache).
		Msg("Page loaded")

	return true
}

func newFailure(requestURL string, page int, err error) Failure {
	f := Failure{
		RequestURL: requestURL,
		Page:       page,
		Class:      client.ClassOf(err),
		Err:        err,
	}
	var fetchErr *client.FetchError
	if errors.As(err, &fetchErr) {
		f.StatusCode = fetchErr.StatusCode
	}
	return f
}

// renderController renders items and navigation after a successful fetch.
func (c *Controller) renderController(result *client.Page) {
	c.mu.Lock()
	c.state.TotalPages = result.TotalPages
	if c.state.TotalPages > 0 && c.state.CurrentPage > c.state.TotalPages {
		c.state.CurrentPage = c.state.TotalPages
	}
	if c.state.CurrentPage < 1 {
		c.state.CurrentPage = 1
	}
	params := RenderParams{
		TotalPages:  c.state.TotalPages,
		CurrentPage: c.state.CurrentPage,
		Links:       result.Links,
	}
	renderItems := c.opts.RenderItemsOnFirstFetch ||
		!c.state.IsFirstFetch ||
		c.state.CurrentPage > c.opts.StartingPage
	firstRender := !c.state.Initialized
	c.state.Initialized = true
	c.mu.Unlock()

	c.emit(EventBeforeRender, params)

	c.renderMu.Lock()
	if renderItems {
		if len(result.Items) == 0 {
			c.view.ReplaceContent([]template.HTML{
				c.strategies.MessageTemplate(template.HTML(c.opts.DefaultNotifications.NoItems), render.MessageInfo),
			})
		} else {
			c.view.ReplaceContent(c.items.Render(result.Items))
		}
	}
	c.renderNavigation(params)
	if firstRender {
		c.view.SetMarker(c.opts.InitClass, true)
	}
	c.renderMu.Unlock()

	if firstRender {
		c.emit(EventInitialized, nil)
	}
	c.emit(EventAfterRender, params)
}

// renderNavigation replaces the previous navigation. Callers hold renderMu.
func (c *Controller) renderNavigation(params RenderParams) {
	entries := navigation.Build(navigation.Params{
		TotalPages:  params.TotalPages,
		CurrentPage: params.CurrentPage,
		TotalLength: c.opts.Navigation.TotalLength,
		EdgeLength:  c.opts.Navigation.EdgeLength,
		Links:       params.Links,
		HrefFor: func(page int) string {
			return urlcodec.QueryOf(c.requestURL(page))
		},
	})

	if c.detachNav != nil {
		c.detachNav()
	}
	c.detachNav = c.view.AttachNavigation(c.opts.Navigation.Container, render.NewNavigation(entries))
}

// renderMessage puts message in place of the items.
func (c *Controller) renderMessage(message template.HTML) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.view.ReplaceContent([]template.HTML{message})
}

// updateBrowserURL syncs the location with the page shown. The before
// event fires even when page URLs are disabled.
func (c *Controller) updateBrowserURL(query string, page int) {
	update := urlcodec.BrowserURL(query, page, c.opts)
	c.emit(EventBeforeURLUpdate, update)

	if !c.opts.EnablePageURLs {
		return
	}

	urlcodec.Apply(c.loc, update, c.pushState)
	c.logger.Debug().
		Int("page", page).
		Bool("push_state", c.pushState).
		Msg("Location updated")

	c.emit(EventAfterURLUpdate, update)
}

// teardown removes everything rendered and the initialised marker.
func (c *Controller) teardown() {
	c.renderMu.Lock()
	if c.detachNav != nil {
		c.detachNav()
		c.detachNav = nil
	}
	c.view.RemoveContent()
	c.view.SetMarker(c.opts.InitClass, false)
	c.renderMu.Unlock()

	c.mu.Lock()
	c.state.Initialized = false
	c.mu.Unlock()
}

func (c *Controller) isActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) emit(name EventName, payload any) {
	c.events.emit(Event{
		Name:       name,
		Namespace:  c.opts.EventNamespace,
		Controller: c,
		Payload:    payload,
	})
}
