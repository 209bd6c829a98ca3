package ui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Modal names a modal dialog addressable from the URL.
type Modal string

const (
	ModalReport   Modal = "report"
	ModalSettings Modal = "settings"
)

var knownModals = []Modal{ModalReport, ModalSettings}

var ErrUnknownModal = errors.New("unknown modal")

// ModalSet is the set of open modals, kept in the order they were opened.
type ModalSet struct {
	order []Modal
}

// ParseModalSet reads the comma-separated value of the modal parameter.
// Unknown and duplicate names are dropped.
func ParseModalSet(v string) ModalSet {
	var s ModalSet
	for _, part := range strings.Split(v, ",") {
		m := Modal(strings.TrimSpace(part))
		if known(m) {
			s.Open(m)
		}
	}
	return s
}

func known(m Modal) bool {
	for _, k := range knownModals {
		if k == m {
			return true
		}
	}
	return false
}

func (s *ModalSet) Open(m Modal) {
	if s.Has(m) {
		return
	}
	s.order = append(s.order, m)
}

func (s *ModalSet) Close(m Modal) {
	for i, v := range s.order {
		if v == m {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			return
		}
	}
}

func (s ModalSet) Has(m Modal) bool {
	for _, v := range s.order {
		if v == m {
			return true
		}
	}
	return false
}

func (s ModalSet) Empty() bool { return len(s.order) == 0 }

func (s ModalSet) String() string {
	parts := make([]string, len(s.order))
	for i, m := range s.order {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}

// Route is the part of the page URL that carries view state.
type Route struct {
	ImageID string
	Modals  ModalSet
}

// ParseRoute accepts a full URL, a path with a query or a bare query string.
func ParseRoute(raw string) (Route, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "?") && strings.Contains(raw, "=") {
		raw = "?" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Route{}, fmt.Errorf("parse route: %w", err)
	}
	q := u.Query()
	return Route{
		ImageID: q.Get("image"),
		Modals:  ParseModalSet(q.Get("modal")),
	}, nil
}

// String renders the route as a site-relative link. Commas in the modal
// list are kept literal.
func (r Route) String() string {
	var params []string
	if r.ImageID != "" {
		params = append(params, "image="+url.QueryEscape(r.ImageID))
	}
	if !r.Modals.Empty() {
		params = append(params, "modal="+r.Modals.String())
	}
	if len(params) == 0 {
		return "/"
	}
	return "/?" + strings.Join(params, "&")
}

// ShareLink is the public link that pins imageID on site.
func ShareLink(site, imageID string) string {
	return strings.TrimRight(site, "/") + Route{ImageID: imageID}.String()
}
