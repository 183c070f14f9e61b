package port

import "time"

type ProgressPhase string

const (
	ProgressStart ProgressPhase = "start"
	ProgressDone  ProgressPhase = "done"
)

// ProgressEvent marks the start or end of one outbound API request.
type ProgressEvent struct {
	RequestID string        `json:"requestId"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Phase     ProgressPhase `json:"phase"`
	Status    int           `json:"status,omitempty"`
	Err       string        `json:"error,omitempty"`
	Active    int           `json:"active"`
	At        time.Time     `json:"at"`
}

// ProgressListener receives request progress; it must not block.
type ProgressListener interface {
	OnProgress(event ProgressEvent)
}

// ProgressListenerFunc adapts a function to ProgressListener.
type ProgressListenerFunc func(event ProgressEvent)

func (f ProgressListenerFunc) OnProgress(event ProgressEvent) {
	f(event)
}
