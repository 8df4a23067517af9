package events

import "time"

// EventHandler is the interface of the callback function for receiving
// events.
type EventHandler func(Event)

// Event is used to type restrict the Events
type Event interface {
	isEvent()
}

// Trace is useful to see some details of what's going on
type Trace struct {
	ID      string
	Message string
	event
}

// BuildStart indicates that a build pass over the content tree started.
type BuildStart struct {
	Root string
	event
}

// BuildEnd indicates that a build pass finished, with counts of the pages
// seen, actually written, and skipped.
type BuildEnd struct {
	Pages    int
	Rendered int
	Skipped  int
	Elapsed  time.Duration
	event
}

// PageRendered indicates that a page resolved and was handed to its
// renderer. DidRender is false when the output on disk already matched.
type PageRendered struct {
	Name      string
	Path      string
	DidRender bool
	event
}

// PageSkipped indicates that a page was left out of the build, with the
// reason it was dropped.
type PageSkipped struct {
	Name   string
	Reason string
	event
}

// PageError indicates that a page could not be read or written. Rendering
// itself never fails; these are filesystem failures.
type PageError struct {
	Name  string
	Error error
	event
}

// WatchTrigger indicates that a watched content file changed and a rebuild
// is about to run.
type WatchTrigger struct {
	Path string
	event
}

// ServeStart indicates that the preview server began listening.
type ServeStart struct {
	Address string
	URL     string
	event
}

// Event interface type fulfillment
type event struct{}

func (event) isEvent() {}
