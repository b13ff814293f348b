package discovery

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/scholarscout/discovery-cli/internal/model"
)

// Event types streamed by the pipeline.
const (
	EventPlan      = "plan"
	EventSearch    = "search"
	EventFound     = "found"
	EventAnalyzing = "analyzing"
	EventExtracted = "extracted"
	EventError     = "error"
	EventComplete  = "complete"
)

// maxErrorChars caps per-URL error detail carried in error events.
const maxErrorChars = 100

// Event is one progress update, serialized as a single JSON line.
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Query   string      `json:"query,omitempty"`
	URL     string      `json:"url,omitempty"`
	Source  string      `json:"source,omitempty"`
	Card    *model.Card `json:"card,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

// Emitter delivers pipeline events to a consumer.
type Emitter interface {
	Emit(ev Event)
}

// jsonEmitter writes one JSON object per line, flushing after each event so
// consumers see progress immediately.
type jsonEmitter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewJSONEmitter creates an Emitter writing NDJSON to w.
func NewJSONEmitter(w io.Writer) Emitter {
	return &jsonEmitter{w: w}
}

func (e *jsonEmitter) Emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return
	}

	buf, err := json.Marshal(ev)
	if err != nil {
		e.err = eris.Wrap(err, "discovery: marshal event")
		return
	}
	buf = append(buf, '\n')
	if _, err := e.w.Write(buf); err != nil {
		// A dead consumer stops the stream; the pipeline itself keeps going.
		e.err = eris.Wrap(err, "discovery: write event")
		return
	}

	switch f := e.w.(type) {
	case interface{ Flush() error }:
		_ = f.Flush()
	case interface{ Flush() }:
		f.Flush()
	}
}

// truncateError caps an error string for event payloads.
func truncateError(s string) string {
	if len(s) > maxErrorChars {
		return s[:maxErrorChars]
	}
	return s
}
