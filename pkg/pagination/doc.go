// Package pagination drives a paginated listing of Voog items.
//
// A Controller owns the page state of one widget instance. It resolves the
// page to show from the location, fetches it through a Fetcher (at most one
// request in flight, extra requests are dropped), renders items and page
// navigation into a render.View and keeps the location in sync.
//
// Example usage:
//
//	opts, err := options.Resolve(settings, dataAttributes)
//	if err != nil {
//		return err
//	}
//
//	pager, err := pagination.New(view, loc, voogClient, opts, pagination.Strategies{})
//	if err != nil {
//		return err
//	}
//
//	off := pager.On(pagination.EventFetchFail, func(e pagination.Event) {
//		failure := e.Payload.(pagination.Failure)
//		log.Warn().Err(failure.Err).Msg("page failed")
//	})
//	defer off()
//
//	if err := pager.Init(ctx); err != nil {
//		return err
//	}
//	pager.GoToNextPage(ctx)
//
// Lifecycle events fire in this order for a successful page change:
// fetchStart, fetchDone, beforeRender, initialized (first render only),
// afterRender, beforeUrlUpdate, afterUrlUpdate.
//
// BatchFetcher is the bulk counterpart: it pulls every page of a listing
// with a worker pool, for exports rather than interactive use.
package pagination
