package azure

import (
	"strings"
	"sync"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"

	"github.com/rbright/basket/internal/session"
)

// relay maps native recognizer callbacks onto the attached listener. Every
// Start opens a new run; callbacks carry the run they were wired for and are
// dropped once a newer run has begun. A run reports its end or error once.
type relay struct {
	interim bool

	mu       sync.Mutex
	listener session.Listener
	activity func()
	run      uint64
	finished bool
}

func (r *relay) attach(l session.Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = l
}

func (r *relay) onActivity(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activity = fn
}

// begin starts a new run and returns its generation.
func (r *relay) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.run++
	r.finished = false
	return r.run
}

func (r *relay) current(run uint64) (session.Listener, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run != r.run || r.finished {
		return nil, nil
	}
	return r.listener, r.activity
}

// finish marks run as ended and returns the listener to notify, or nil when
// run is stale or already finished.
func (r *relay) finish(run uint64) session.Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run != r.run || r.finished {
		return nil
	}
	r.finished = true
	return r.listener
}

func (r *relay) recognizing(run uint64, text string) {
	listener, activity := r.current(run)
	if activity != nil {
		activity()
	}
	if listener == nil || !r.interim || strings.TrimSpace(text) == "" {
		return
	}
	listener.OnResults([]session.Segment{{Text: text}})
}

func (r *relay) recognized(run uint64, reason common.ResultReason, text string) {
	if reason != common.RecognizedSpeech {
		return
	}
	listener, activity := r.current(run)
	if activity != nil {
		activity()
	}
	if listener == nil {
		return
	}
	listener.OnResults([]session.Segment{{Text: text, Final: true}})
}

func (r *relay) canceled(run uint64, reason common.CancellationReason, details string) {
	listener := r.finish(run)
	if listener == nil {
		return
	}
	if reason == common.Error {
		listener.OnError(cancelReason(details))
		return
	}
	listener.OnEnd()
}

func (r *relay) ended(run uint64) {
	if listener := r.finish(run); listener != nil {
		listener.OnEnd()
	}
}

// cancelReason keeps the first line of the service's error details.
func cancelReason(details string) string {
	details = strings.TrimSpace(details)
	if i := strings.IndexByte(details, '\n'); i >= 0 {
		details = strings.TrimSpace(details[:i])
	}
	return details
}
