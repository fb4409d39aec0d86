package pagination

import (
	"sync"

	"github.com/Sternrassler/voog-pager/pkg/client"
	"github.com/Sternrassler/voog-pager/pkg/linkheader"
	"github.com/Sternrassler/voog-pager/pkg/urlcodec"
)

// EventName names a lifecycle event.
type EventName string

const (
	EventBeforeURLUpdate EventName = "beforeUrlUpdate"
	EventAfterURLUpdate  EventName = "afterUrlUpdate"
	EventFetchStart      EventName = "fetchStart"
	EventFetchDone       EventName = "fetchDone"
	EventFetchFail       EventName = "fetchFail"
	EventBeforeRender    EventName = "beforeRender"
	EventAfterRender     EventName = "afterRender"
	EventInitialized     EventName = "initialized"
	EventBeforeDestroy   EventName = "beforeDestroy"
	EventAfterDestroy    EventName = "afterDestroy"
	EventRefresh         EventName = "refresh"
)

// Event is delivered to listeners.
//
// Payload types by event:
//
//	beforeUrlUpdate, afterUrlUpdate   URLUpdate
//	fetchStart                        FetchStart
//	fetchDone                         FetchDone
//	fetchFail                         Failure
//	beforeRender, afterRender         RenderParams
//	initialized, *Destroy, refresh    nil
type Event struct {
	Name       EventName
	Namespace  string
	Controller *Controller
	Payload    any
}

// Type is the namespaced event name, e.g. "fetchDone.vp".
func (e Event) Type() string {
	return string(e.Name) + e.Namespace
}

// URLUpdate describes a location change.
type URLUpdate = urlcodec.Update

// FetchStart is the payload of fetchStart.
type FetchStart struct {
	RequestURL string
	Page       int
}

// FetchDone is the payload of fetchDone.
type FetchDone struct {
	RequestURL string
	Page       int
	Result     *client.Page
}

// Failure describes a failed fetch. It is the payload of fetchFail and the
// context handed to the error handler.
type Failure struct {
	RequestURL string
	Page       int

	// StatusCode is 0 for network errors.
	StatusCode int
	Class      client.ErrorClass
	Err        error
}

// RenderParams is the payload of beforeRender and afterRender.
type RenderParams struct {
	TotalPages  int
	CurrentPage int
	Links       linkheader.Links
}

// Listener receives events. It runs on the goroutine that caused the event
// and may call back into the controller.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

type emitter struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[EventName][]subscription
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[EventName][]subscription)}
}

func (e *emitter) on(name EventName, fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.subs[name] = append(e.subs[name], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			subs := e.subs[name]
			for i, s := range subs {
				if s.id == id {
					e.subs[name] = append(subs[:i:i], subs[i+1:]...)
					return
				}
			}
		})
	}
}

// emit calls the listeners registered at the time of the call, in
// registration order. No lock is held while they run.
func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	subs := append([]subscription(nil), e.subs[ev.Name]...)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
