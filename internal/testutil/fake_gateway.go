package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/plc-assistant/backend/internal/device"
)

// GatewayCall is one request received by a FakeGateway.
type GatewayCall struct {
	Path        string
	ContentType string
	Device      string
	Addr        string
	Length      int
	Devices     []string
	IP          string
	Port        int
}

// FakeGateway is an in-process PLC gateway serving /api/read and
// /api/read_batch from a fixed table of device values. It answers in the
// encoding the request was sent with (JSON or msgpack).
type FakeGateway struct {
	*httptest.Server

	mu          sync.Mutex
	values      map[string][]int
	calls       []GatewayCall
	failStatus  int
	omitSuccess bool
}

// NewFakeGateway starts a fake gateway; it is closed when the test ends.
// Keys of values are display labels such as "D100".
func NewFakeGateway(t *testing.T, values map[string][]int) *FakeGateway {
	t.Helper()
	g := &FakeGateway{values: make(map[string][]int, len(values))}
	for k, v := range values {
		g.values[strings.ToUpper(k)] = v
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/read", g.handleRead)
	mux.HandleFunc("/api/read_batch", g.handleBatch)
	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Close)
	return g
}

// FailWith makes every following request answer with status and no body.
// Zero restores normal replies.
func (g *FakeGateway) FailWith(status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failStatus = status
}

// OmitSuccess drops the success flag from successful replies.
func (g *FakeGateway) OmitSuccess(omit bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.omitSuccess = omit
}

// Calls returns the requests received so far.
func (g *FakeGateway) Calls() []GatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GatewayCall(nil), g.calls...)
}

type fakeReadRequest struct {
	Device string `json:"device" msgpack:"device"`
	Addr   string `json:"addr" msgpack:"addr"`
	Length int    `json:"length" msgpack:"length"`
	IP     string `json:"ip" msgpack:"ip"`
	Port   int    `json:"port" msgpack:"port"`
}

type fakeBatchRequest struct {
	Devices []string `json:"devices" msgpack:"devices"`
	IP      string   `json:"ip" msgpack:"ip"`
	Port    int      `json:"port" msgpack:"port"`
}

func (g *FakeGateway) handleRead(w http.ResponseWriter, r *http.Request) {
	var req fakeReadRequest
	if !g.decode(w, r, &req) {
		return
	}
	g.record(GatewayCall{
		Path: r.URL.Path, ContentType: r.Header.Get("Content-Type"),
		Device: req.Device, Addr: req.Addr, Length: req.Length, IP: req.IP, Port: req.Port,
	})
	if g.failing(w) {
		return
	}
	g.encode(w, r, g.lookup(req.Device+req.Addr, max(req.Length, 1)))
}

func (g *FakeGateway) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req fakeBatchRequest
	if !g.decode(w, r, &req) {
		return
	}
	g.record(GatewayCall{
		Path: r.URL.Path, ContentType: r.Header.Get("Content-Type"),
		Devices: req.Devices, IP: req.IP, Port: req.Port,
	})
	if g.failing(w) {
		return
	}
	results := make([]map[string]any, 0, len(req.Devices))
	for _, spec := range req.Devices {
		addr := device.Parse(spec)
		item := g.lookup(addr.Display(), addr.Length)
		item["device"] = spec
		results = append(results, item)
	}
	g.encode(w, r, map[string]any{"results": results})
}

func (g *FakeGateway) lookup(label string, length int) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	stored, ok := g.values[strings.ToUpper(label)]
	if !ok {
		return map[string]any{"values": []int{}, "success": false, "error": fmt.Sprintf("unknown device %s", label)}
	}
	values := make([]int, length)
	copy(values, stored)
	reply := map[string]any{"values": values}
	if !g.omitSuccess {
		reply["success"] = true
	}
	return reply
}

func (g *FakeGateway) record(call GatewayCall) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
}

func (g *FakeGateway) failing(w http.ResponseWriter) bool {
	g.mu.Lock()
	status := g.failStatus
	g.mu.Unlock()
	if status == 0 {
		return false
	}
	http.Error(w, "gateway unavailable", status)
	return true
}

func isMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "msgpack")
}

func (g *FakeGateway) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(r.Body)
	if err == nil {
		if isMsgpack(r) {
			err = msgpack.Unmarshal(data, v)
		} else {
			err = json.Unmarshal(data, v)
		}
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (g *FakeGateway) encode(w http.ResponseWriter, r *http.Request, v any) {
	if isMsgpack(r) {
		w.Header().Set("Content-Type", "application/msgpack")
		_ = msgpack.NewEncoder(w).Encode(v)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
