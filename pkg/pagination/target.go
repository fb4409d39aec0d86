package pagination

import (
	"strconv"

	"github.com/Sternrassler/voog-pager/pkg/urlcodec"
)

// Target is what GoToPage loads: a page number or an explicit request URL.
type Target struct {
	page int
	url  string
}

// Page targets page n. Numbers below 1 target page 1.
func Page(n int) Target {
	if n < 1 {
		n = 1
	}
	return Target{page: n}
}

// URL targets an explicit request URL. The page shown is read from its
// "page" parameter, or 1 when it has none.
func URL(requestURL string) Target {
	page, ok := urlcodec.PageFromURL(requestURL)
	if !ok {
		page = 1
	}
	return Target{page: page, url: requestURL}
}

// PageNumber is the page the target shows.
func (t Target) PageNumber() int {
	return t.page
}

// RequestURL is the explicit URL, empty for page targets.
func (t Target) RequestURL() string {
	return t.url
}

func (t Target) String() string {
	if t.url != "" {
		return t.url
	}
	return "page " + strconv.Itoa(t.page)
}
