package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/eventsvc/internal/model"
)

func TestStreamHub_BroadcastAndReceive(t *testing.T) {
	hub := newStreamHub()
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	hub.broadcast(model.Event{ID: "e-1", Message: "hello"})

	select {
	case f := <-ch:
		assert.Equal(t, uint64(1), f.Seq)
		var evt model.Event
		require.NoError(t, json.Unmarshal(f.Data, &evt))
		assert.Equal(t, "e-1", evt.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestStreamHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := newStreamHub()
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		for range 500 {
			hub.broadcast(model.Event{ID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
	assert.Len(t, ch, cap(ch))
}

func TestStreamHub_Since(t *testing.T) {
	hub := newStreamHub()
	for range streamBacklogSize + 10 {
		hub.broadcast(model.Event{ID: "x"})
	}

	assert.Len(t, hub.since(0), streamBacklogSize)

	frames := hub.since(streamBacklogSize + 7)
	require.Len(t, frames, 3)
	assert.Equal(t, uint64(streamBacklogSize+8), frames[0].Seq)
	assert.Equal(t, uint64(streamBacklogSize+10), frames[2].Seq)

	assert.Empty(t, newStreamHub().since(0))
}

type streamFrameParsed struct {
	ID    string
	Event string
	Data  string
}

// readFrames parses SSE frames from resp until the body closes.
func readFrames(resp *http.Response) <-chan streamFrameParsed {
	ch := make(chan streamFrameParsed, 32)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(resp.Body)
		var cur streamFrameParsed
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "id:"):
				cur.ID = strings.TrimPrefix(line, "id:")
			case strings.HasPrefix(line, "event:"):
				cur.Event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				cur.Data = strings.TrimPrefix(line, "data:")
			case line == "":
				if cur.Data != "" {
					ch <- cur
				}
				cur = streamFrameParsed{}
			}
		}
	}()
	return ch
}

func openStream(t *testing.T, ctx context.Context, url, lastID string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/events/stream", nil)
	require.NoError(t, err)
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return resp
}

func TestEventStream_DeliversCreatedEvents(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames := readFrames(openStream(t, ctx, srv.URL, ""))

	resp, err := http.Post(srv.URL+"/api/events", "application/json", strings.NewReader(`{"message":"streamed"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	select {
	case f := <-frames:
		assert.Equal(t, "1", f.ID)
		assert.Equal(t, streamEventName, f.Event)
		var evt model.Event
		require.NoError(t, json.Unmarshal([]byte(f.Data), &evt))
		assert.Equal(t, "streamed", evt.Message)
		assert.Equal(t, "test", evt.Environment)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream frame")
	}
}

func TestEventStream_ReplaysAfterLastEventID(t *testing.T) {
	ts := newTestServer(t)
	for _, m := range []string{"a", "b", "c"} {
		_, err := ts.createEvent(context.Background(), m)
		require.NoError(t, err)
	}
	srv := httptest.NewServer(ts.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	frames := readFrames(openStream(t, ctx, srv.URL, "1"))

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case f := <-frames:
			var evt model.Event
			require.NoError(t, json.Unmarshal([]byte(f.Data), &evt))
			got = append(got, evt.Message)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []string{"b", "c"}, got)
}

// lockedBuffer is a strings.Builder safe for one writer and one reader.
type lockedBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func runPump(t *testing.T, ch <-chan *streamFrame, replay []streamFrame, keepalive time.Duration, until string) string {
	t.Helper()
	var out lockedBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		pumpStream(ctx, &out, func() error { return nil }, ch, replay, keepalive)
	}()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), until) },
		2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
	return out.String()
}

func TestPumpStream_SkipsFramesAlreadyReplayed(t *testing.T) {
	f1 := streamFrame{Seq: 1, Data: []byte(`{"id":"a"}`)}
	f2 := streamFrame{Seq: 2, Data: []byte(`{"id":"b"}`)}
	f3 := streamFrame{Seq: 3, Data: []byte(`{"id":"c"}`)}

	// f2 was broadcast after subscribe but before the backlog was read, so
	// it is both replayed and queued.
	ch := make(chan *streamFrame, 4)
	ch <- &f2
	ch <- &f3

	out := runPump(t, ch, []streamFrame{f1, f2}, time.Hour, "id:3\n")

	assert.Equal(t, 1, strings.Count(out, "id:1\n"))
	assert.Equal(t, 1, strings.Count(out, "id:2\n"))
	assert.Equal(t, 1, strings.Count(out, "id:3\n"))
	assert.Less(t, strings.Index(out, "id:2\n"), strings.Index(out, "id:3\n"))
}

func TestPumpStream_Keepalive(t *testing.T) {
	out := runPump(t, make(chan *streamFrame), nil, 10*time.Millisecond, ":keepalive\n\n")
	assert.NotContains(t, out, "id:")
}

func TestStreamHub_ConcurrentBroadcastsArriveInOrder(t *testing.T) {
	hub := newStreamHub()
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 5 {
				hub.broadcast(model.Event{ID: "x"})
			}
		}()
	}
	wg.Wait()

	require.Len(t, ch, 40)
	var prev uint64
	for range 40 {
		f := <-ch
		assert.Greater(t, f.Seq, prev)
		prev = f.Seq
	}
}
