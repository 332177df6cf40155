package preview

import (
	"fmt"
	"net/http"
	"sync"
)

// hub fans a "new generation is live" signal out to every connected preview
// surface. Per-subscriber channels are buffered by one: a slow consumer
// coalesces signals instead of blocking the swap path.
type hub struct {
	mu   sync.Mutex
	subs map[chan uint64]struct{}
}

func newHub() *hub {
	return &hub{
		subs: map[chan uint64]struct{}{},
	}
}

func (h *hub) subscribe() chan uint64 {
	ch := make(chan uint64, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan uint64) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *hub) notify(generation uint64) {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- generation:
		default:
		}
	}
	h.mu.Unlock()
}

// serveEvents is the SSE endpoint the preview document listens on. It emits
// "ready" on connect and "reload" with the new generation on every swap.
func (r *Renderer) serveEvents(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ready\ndata: %d\n\n", r.Generation())
	flusher.Flush()

	ch := r.reload.subscribe()
	defer r.reload.unsubscribe(ch)

	for {
		select {
		case <-req.Context().Done():
			return
		case generation := <-ch:
			fmt.Fprintf(w, "event: reload\ndata: %d\n\n", generation)
			flusher.Flush()
		}
	}
}
