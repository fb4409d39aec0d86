// Package linkheader parses RFC 5988 style Link headers into a relation index.
//
// The Voog API advertises neighbouring pages through a header such as
//
//	Link: </admin/api/articles?page=3>; rel="next", </admin/api/articles?page=1>; rel="prev"
//
// Parse turns that into a Links map keyed by relation name.
package linkheader

import (
	"strings"
)

// Link is a single entry of a Link header.
type Link struct {
	// Rel is the relation the link was indexed under.
	Rel string

	// Href is the URI reference between the angle brackets.
	Href string

	// Params holds every parameter of the entry, including rel.
	Params map[string]string
}

// Links indexes links by relation name.
type Links map[string]Link

// Href returns the target of rel, if present.
func (l Links) Href(rel string) (string, bool) {
	link, ok := l[rel]
	if !ok {
		return "", false
	}
	return link.Href, true
}

// Has reports whether a link with the given relation exists.
func (l Links) Has(rel string) bool {
	_, ok := l[rel]
	return ok
}

// Parse decodes a Link header value. An empty header yields an empty map.
// Entries without a rel parameter, or without a <uri> part, are dropped.
// A rel carrying several space separated relation types is indexed under each.
func Parse(header string) Links {
	links := make(Links, 4)
	if strings.TrimSpace(header) == "" {
		return links
	}

	for _, entry := range splitEntries(header) {
		href, params, ok := parseEntry(entry)
		if !ok {
			continue
		}

		rel, ok := params["rel"]
		if !ok || rel == "" {
			continue
		}

		for _, name := range strings.Fields(rel) {
			links[name] = Link{
				Rel:    name,
				Href:   href,
				Params: params,
			}
		}
	}

	return links
}

// splitEntries splits on commas that are outside of <...> and quoted strings.
func splitEntries(header string) []string {
	var (
		entries  []string
		start    int
		inURI    bool
		inQuotes bool
	)

	for i := 0; i < len(header); i++ {
		switch c := header[i]; {
		case c == '"' && !inURI:
			inQuotes = !inQuotes
		case c == '<' && !inQuotes:
			inURI = true
		case c == '>' && !inQuotes:
			inURI = false
		case c == ',' && !inURI && !inQuotes:
			entries = append(entries, header[start:i])
			start = i + 1
		}
	}

	return append(entries, header[start:])
}

// parseEntry parses `<uri>; k=v; k="v"`.
func parseEntry(entry string) (string, map[string]string, bool) {
	entry = strings.TrimSpace(entry)
	if !strings.HasPrefix(entry, "<") {
		return "", nil, false
	}

	end := strings.IndexByte(entry, '>')
	if end < 0 {
		return "", nil, false
	}

	href := strings.TrimSpace(entry[1:end])
	params := make(map[string]string)

	for _, part := range strings.Split(entry[end+1:], ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}

		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		params[name] = unquote(strings.TrimSpace(value))
	}

	return href, params, true
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}
