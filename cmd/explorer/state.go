package main

import (
	"errors"

	"github.com/hazyhaar/votemap/pkg/atlas"
)

var (
	errNoSelection = errors.New("select a referendum first")
	errNothingYet  = errors.New("nothing to export yet")
	errBusy        = errors.New("busy, try again when the current job ends")
)

// buildRequest asks for one title to be built, bypassing the memoised
// result when refresh is set.
type buildRequest struct {
	title   string
	refresh bool
}

// selection tracks what the user picked and what is on screen. At most one
// job runs at a time; a request arriving meanwhile replaces any queued one.
type selection struct {
	selected string
	current  *atlas.Result
	busy     bool
	pending  *buildRequest
}

// request records r.title as the selection. It reports whether the build
// may start now; otherwise r is queued behind the running job.
func (s *selection) request(r buildRequest) bool {
	s.selected = r.title
	if s.busy {
		s.pending = &r
		return false
	}
	s.busy = true
	return true
}

// refresh returns the request rebuilding the selected title.
func (s *selection) refresh() (buildRequest, error) {
	if s.selected == "" {
		return buildRequest{}, errNoSelection
	}
	return buildRequest{title: s.selected, refresh: true}, nil
}

// built records the outcome of building title. The result is shown only if
// title is still the selection; a failure clears whatever was shown. The
// queued request, if any, is returned and marked as running.
func (s *selection) built(title string, r *atlas.Result, err error) (buildRequest, bool) {
	if err == nil && title == s.selected {
		s.current = r
	} else {
		s.current = nil
	}
	return s.release()
}

// exportable returns the result of the selected title and marks the
// export as running.
func (s *selection) exportable() (*atlas.Result, error) {
	if s.busy {
		return nil, errBusy
	}
	if s.current == nil || s.current.Title != s.selected {
		return nil, errNothingYet
	}
	s.busy = true
	return s.current, nil
}

// release ends the running job and starts the queued one, if any.
func (s *selection) release() (buildRequest, bool) {
	s.busy = false
	if s.pending == nil {
		return buildRequest{}, false
	}
	next := *s.pending
	s.pending = nil
	s.busy = true
	return next, true
}
