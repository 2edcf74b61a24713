package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/alfredjeanlab/eventsvc/internal/model"
	"github.com/rs/zerolog"
)

const (
	// streamBacklogSize is the number of recent events kept in memory for
	// Last-Event-ID reconnection.
	streamBacklogSize = 256

	// streamKeepaliveInterval is how often keepalive comments are sent.
	streamKeepaliveInterval = 15 * time.Second

	// streamEventName is the SSE event name for every frame.
	streamEventName = "event_created"
)

// streamFrame is one created event as sent to stream clients.
type streamFrame struct {
	Seq  uint64
	Data []byte
}

// streamHub fans created events out to connected GET /api/events/stream
// clients and keeps a ring buffer for replay. One mutex orders sequence
// assignment, the ring and fan-out, so every client sees increasing Seq.
type streamHub struct {
	mu      sync.Mutex
	clients map[chan *streamFrame]struct{}
	lastSeq uint64

	ring    [streamBacklogSize]streamFrame
	ringPos int
	ringLen int
}

func newStreamHub() *streamHub {
	return &streamHub{clients: make(map[chan *streamFrame]struct{})}
}

// broadcast records evt in the backlog and offers it to every client. Slow
// clients miss frames rather than block the create path.
func (h *streamHub) broadcast(evt model.Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastSeq++
	f := &streamFrame{Seq: h.lastSeq, Data: data}
	h.ring[h.ringPos] = *f
	h.ringPos = (h.ringPos + 1) % streamBacklogSize
	if h.ringLen < streamBacklogSize {
		h.ringLen++
	}

	for ch := range h.clients {
		select {
		case ch <- f:
		default:
		}
	}
}

func (h *streamHub) subscribe() chan *streamFrame {
	ch := make(chan *streamFrame, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *streamHub) unsubscribe(ch chan *streamFrame) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// since returns buffered frames with Seq > last, oldest first.
func (h *streamHub) since(last uint64) []streamFrame {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []streamFrame
	start := h.ringPos - h.ringLen
	if start < 0 {
		start += streamBacklogSize
	}
	for i := range h.ringLen {
		f := h.ring[(start+i)%streamBacklogSize]
		if f.Seq > last {
			out = append(out, f)
		}
	}
	return out
}

// handleEventStream handles GET /api/events/stream (server-sent events).
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	ch := s.stream.subscribe()
	defer s.stream.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("event stream: flushing not supported")
		return
	}

	var replay []streamFrame
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if last, err := strconv.ParseUint(v, 10, 64); err == nil {
			replay = s.stream.since(last)
		}
	}

	pumpStream(r.Context(), w, rc.Flush, ch, replay, streamKeepaliveInterval)
}

// pumpStream writes replay, then live frames from ch until ctx is done.
// A frame broadcast between subscribe and replay arrives on both paths; frames
// at or below the highest sequence already written are skipped.
func pumpStream(ctx context.Context, w io.Writer, flush func() error, ch <-chan *streamFrame, replay []streamFrame, keepaliveEvery time.Duration) {
	var sent uint64
	for i := range replay {
		writeStreamFrame(w, &replay[i])
		sent = replay[i].Seq
	}
	if len(replay) > 0 {
		_ = flush()
	}

	keepalive := time.NewTicker(keepaliveEvery)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-ch:
			if f.Seq <= sent {
				continue
			}
			writeStreamFrame(w, f)
			sent = f.Seq
			_ = flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			_ = flush()
		}
	}
}

func writeStreamFrame(w io.Writer, f *streamFrame) {
	fmt.Fprintf(w, "id:%d\n", f.Seq)
	fmt.Fprintf(w, "event:%s\n", streamEventName)
	fmt.Fprintf(w, "data:%s\n\n", f.Data)
}
