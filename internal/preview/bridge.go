package preview

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The preview surface is same-host by construction.
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveBridge accepts the document's websocket and relays mount/runtime
// reports upward. Messages from superseded generations are dropped.
func (r *Renderer) serveBridge(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn("bridge upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	for {
		var outcome Outcome
		if err := conn.ReadJSON(&outcome); err != nil {
			return
		}
		r.dispatch(outcome)
	}
}

// dispatch applies the stale-generation filter before surfacing an outcome.
func (r *Renderer) dispatch(outcome Outcome) bool {
	if outcome.Generation != r.Generation() {
		r.log.Debug("ignoring stale outcome", "generation", outcome.Generation, "current", r.Generation())
		return false
	}

	switch outcome.Type {
	case OutcomeMounted:
		r.log.Info("preview mounted", "generation", outcome.Generation)
	case OutcomeRuntimeError:
		r.log.Warn("preview runtime error", "generation", outcome.Generation, "message", outcome.Message)
	default:
		r.log.Debug("unknown bridge message", "type", outcome.Type)
		return false
	}

	r.onOutcome(outcome)
	return true
}
