package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabricview/internal/config"
	"fabricview/internal/devices"
	"fabricview/internal/domain"
	"fabricview/internal/session"
)

type fakeViewer struct {
	mu       sync.Mutex
	frame    session.Frame
	graph    *domain.Graph
	source   string
	switched []string
	inputs   []session.Input
	bus      *session.EventBus
}

func newFakeViewer() *fakeViewer {
	return &fakeViewer{
		frame: session.Frame{Notice: session.NoDatasetNotice},
		bus:   session.NewEventBus(),
	}
}

func (f *fakeViewer) Switch(_ context.Context, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switched = append(f.switched, source)
	return nil
}

func (f *fakeViewer) Dispatch(in session.Input) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	return nil
}

func (f *fakeViewer) Snapshot(context.Context) (session.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame, nil
}

func (f *fakeViewer) Topology(context.Context) (*domain.Graph, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.graph, f.source, nil
}

func (f *fakeViewer) Bus() *session.EventBus { return f.bus }

func (f *fakeViewer) Switched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.switched...)
}

func (f *fakeViewer) Inputs() []session.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Input(nil), f.inputs...)
}

var testDatasets = []config.Dataset{
	{Label: "two-switch", Source: "samples/two-switch.json"},
	{Label: "fat-tree", Source: "samples/fat-tree.json"},
}

func newTestServer(t *testing.T, v *fakeViewer) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewViewHandler(v, testDatasets, devices.Builtin()).Register(mux)
	srv := httptest.NewServer(Chain(mux, Recover, CORS, Logger))
	t.Cleanup(srv.Close)
	return srv
}

func testGraph() *domain.Graph {
	g := domain.NewGraph()
	g.AddNode(*domain.NewNode("sw1", domain.NodeTypeSwitch, "spine"))
	g.AddNode(*domain.NewNode("n1", domain.NodeTypeHCA, "compute"))
	g.AddLink(*domain.NewLink("n1", "sw1"))
	return g
}

func TestListDatasets(t *testing.T) {
	v := newFakeViewer()
	v.frame.Dataset = "samples/fat-tree.json"
	srv := newTestServer(t, v)

	resp, err := http.Get(srv.URL + "/api/datasets")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body CatalogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testDatasets, body.Datasets)
	assert.Equal(t, "samples/fat-tree.json", body.Current)
}

func TestSelectDataset(t *testing.T) {
	v := newFakeViewer()
	srv := newTestServer(t, v)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"source":"samples/fat-tree.json"}`, http.StatusAccepted},
		{"empty source", `{"source":""}`, http.StatusAccepted},
		{"malformed", `{"source":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/datasets", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	assert.Equal(t, []string{"samples/fat-tree.json", ""}, v.Switched())
}

func TestGetFrame(t *testing.T) {
	v := newFakeViewer()
	srv := newTestServer(t, v)

	resp, err := http.Get(srv.URL + "/api/frame")
	require.NoError(t, err)
	defer resp.Body.Close()

	var frame session.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	assert.Equal(t, session.NoDatasetNotice, frame.Notice)
	assert.Empty(t, frame.Dataset)
}

func TestGetTopology(t *testing.T) {
	v := newFakeViewer()
	srv := newTestServer(t, v)

	t.Run("nothing loaded", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/topology")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "No dataset loaded", body.Error)
	})

	v.mu.Lock()
	v.graph = testGraph()
	v.source = "samples/two-switch.json"
	v.mu.Unlock()

	t.Run("json", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/topology")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "samples/two-switch.json", resp.Header.Get("X-Fabricview-Dataset"))

		var g domain.Graph
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
		assert.Len(t, g.Nodes, 2)
		assert.Len(t, g.Links, 1)
	})

	t.Run("yaml", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/topology?format=yaml")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "id: sw1")
	})

	t.Run("unsupported format", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/topology?format=xml")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLookupDevice(t *testing.T) {
	srv := newTestServer(t, newFakeViewer())

	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"known", "/api/devices/0x2c9/0x1003", http.StatusOK, "Mellanox MT27500 Family [ConnectX-3]"},
		{"no prefix", "/api/devices/2c9/1017", http.StatusOK, "Mellanox MT27800 Family [ConnectX-5]"},
		{"unknown device", "/api/devices/0x2c9/0xffff", http.StatusOK, "Unknown Mellanox"},
		{"unknown vendor", "/api/devices/0x1234/0x1", http.StatusOK, "Unknown"},
		{"bad vendor", "/api/devices/zz/0x1", http.StatusBadRequest, ""},
		{"bad device", "/api/devices/0x2c9/0x", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.status, resp.StatusCode)

			if tt.status != http.StatusOK {
				return
			}
			var body DeviceResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body.Name)
		})
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recover)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}), CORS)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/frame", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestGzip(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}), Gzip)

	t.Run("compressed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		body, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"ok"}`, string(body))
	})

	t.Run("event stream untouched", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		req.Header.Set("Accept", "text/event-stream")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})
}

func TestGzipPassThrough(t *testing.T) {
	status := func(code int) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
	}
	sse := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: hello\n\n")
	})

	tests := []struct {
		name     string
		method   string
		path     string
		handler  http.Handler
		wantCode int
		wantBody string
	}{
		{"not modified", http.MethodGet, "/app.js", status(http.StatusNotModified), http.StatusNotModified, ""},
		{"no content", http.MethodGet, "/api/health", status(http.StatusNoContent), http.StatusNoContent, ""},
		{"head", http.MethodHead, "/api/health", status(http.StatusOK), http.StatusOK, ""},
		{"events without accept header", http.MethodGet, "/events", sse, http.StatusOK, "data: hello\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Accept-Encoding", "gzip")
			rec := httptest.NewRecorder()
			Chain(tt.handler, Gzip).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Empty(t, rec.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestGzipFlush(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "first")
		w.(http.Flusher).Flush()
	}), Gzip)

	req := httptest.NewRequest(http.MethodGet, "/api/frame", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, rec.Flushed)
	zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "first", string(body))
}

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev wireEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebSocketGreeting(t *testing.T) {
	v := newFakeViewer()
	srv := newTestServer(t, v)
	conn := dialWS(t, srv)

	ev := readEvent(t, conn)
	assert.Equal(t, "frame", ev.Type)

	ev = readEvent(t, conn)
	assert.Equal(t, "notice", ev.Type)
	assert.JSONEq(t, `"Please select a fabric dataset."`, string(ev.Payload))
}

func TestWebSocketLoadedGreetingHasNoNotice(t *testing.T) {
	v := newFakeViewer()
	v.frame = session.Frame{Dataset: "samples/two-switch.json", Generation: 1}
	srv := newTestServer(t, v)
	conn := dialWS(t, srv)

	ev := readEvent(t, conn)
	require.Equal(t, "frame", ev.Type)

	v.bus.Publish(session.Event{Type: session.EventFrame, Payload: map[string]int{"generation": 2}})
	ev = readEvent(t, conn)
	assert.Equal(t, "frame", ev.Type)
	assert.JSONEq(t, `{"generation":2}`, string(ev.Payload))
}

func TestWebSocketMessages(t *testing.T) {
	v := newFakeViewer()
	srv := newTestServer(t, v)
	conn := dialWS(t, srv)
	readEvent(t, conn)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "pointerdown", Node: "n1", X: 10, Y: 20}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "click", Node: "n1"}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageDataset, Source: "samples/fat-tree.json"}))

	assert.Eventually(t, func() bool {
		return len(v.Inputs()) == 2 && len(v.Switched()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	inputs := v.Inputs()
	assert.Equal(t, session.Input{Type: session.InputPointerDown, Node: "n1", X: 10, Y: 20}, inputs[0])
	assert.Equal(t, session.InputClick, inputs[1].Type)
	assert.Equal(t, []string{"samples/fat-tree.json"}, v.Switched())

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "teleport"}))
	ev := readEvent(t, conn)
	assert.Equal(t, MessageError, ev.Type)
	assert.Contains(t, string(ev.Payload), "unknown message type")
}

func TestWebSocketUnsubscribesOnClose(t *testing.T) {
	v := newFakeViewer()
	srv := newTestServer(t, v)
	conn := dialWS(t, srv)
	readEvent(t, conn)

	assert.Equal(t, 1, v.bus.Len())
	conn.Close()

	assert.Eventually(t, func() bool {
		return v.bus.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
