package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/sewerflow/sewerflow/pkg/feature"
	"github.com/sewerflow/sewerflow/pkg/manager"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	nodes := feature.NewMemorySource("vw_network_node", []feature.Feature{
		{ID: 1, Fields: map[string]any{"obj_id": "wn_1", "type": "wastewater_node"}, Geometry: "POINT(0 0)"},
		{ID: 2, Fields: map[string]any{"obj_id": "wn_2", "type": "wastewater_node"}, Geometry: "POINT(10 0)"},
		{ID: 3, Fields: map[string]any{"obj_id": "wn_3", "type": "wastewater_node"}, Geometry: "POINT(20 0)"},
	})
	reaches := feature.NewMemorySource("vw_network_segment", []feature.Feature{
		{ID: 101, Fields: map[string]any{
			"obj_id": "re_1", "type": "reach",
			"from_obj_id": "wn_1", "to_obj_id": "wn_2", "length_calc": 10.0,
		}, Geometry: "LINESTRING(0 0, 10 0)"},
		{ID: 102, Fields: map[string]any{
			"obj_id": "re_2", "type": "reach",
			"from_obj_id": "wn_2", "to_obj_id": "wn_3", "length_calc": 10.0,
		}, Geometry: "LINESTRING(10 0, 20 0)"},
	})

	quiet := log.New(&bytes.Buffer{})
	m := manager.New(manager.WithLogger(quiet))
	if err := m.SetNodeLayer(ctx, nodes); err != nil {
		t.Fatal(err)
	}
	if err := m.SetReachLayer(ctx, reaches); err != nil {
		t.Fatal(err)
	}
	return New(m, WithLogger(quiet))
}

func doJSON(t *testing.T, h http.Handler, method, target string, wantStatus int) map[string]any {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != wantStatus {
		t.Fatalf("%s %s = %d, want %d: %s", method, target, rec.Code, wantStatus, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	body := doJSON(t, s.Handler(), http.MethodGet, "/healthz", http.StatusOK)

	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if body["dirty"] != false {
		t.Errorf("dirty = %v, want false after eager build", body["dirty"])
	}
}

func TestNetworkExport(t *testing.T) {
	s := testServer(t)
	body := doJSON(t, s.Handler(), http.MethodGet, "/network", http.StatusOK)

	nodes, ok := body["nodes"].([]any)
	if !ok || len(nodes) != 3 {
		t.Errorf("nodes = %v", body["nodes"])
	}
	edges, ok := body["edges"].([]any)
	if !ok || len(edges) != 2 {
		t.Errorf("edges = %v", body["edges"])
	}
}

func TestPath(t *testing.T) {
	s := testServer(t)
	body := doJSON(t, s.Handler(), http.MethodGet, "/network/path?from=1&to=3", http.StatusOK)

	if body["found"] != true {
		t.Fatalf("body = %v", body)
	}
	if w, _ := body["weight"].(float64); w != 20 {
		t.Errorf("weight = %v, want 20", body["weight"])
	}
	nodes := body["nodes"].([]any)
	if len(nodes) != 3 {
		t.Errorf("nodes = %v", nodes)
	}
}

func TestPathNoRoute(t *testing.T) {
	s := testServer(t)
	body := doJSON(t, s.Handler(), http.MethodGet, "/network/path?from=3&to=1", http.StatusOK)

	// No path downstream-to-upstream: a valid empty answer, not an error.
	if body["found"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestPathErrors(t *testing.T) {
	s := testServer(t)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{name: "MissingParam", target: "/network/path?from=1", status: http.StatusBadRequest, code: "INVALID_INPUT"},
		{name: "BadParam", target: "/network/path?from=1&to=abc", status: http.StatusBadRequest, code: "INVALID_INPUT"},
		{name: "UnknownNode", target: "/network/path?from=1&to=999", status: http.StatusNotFound, code: "NODE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := doJSON(t, s.Handler(), http.MethodGet, tt.target, tt.status)
			if body["code"] != tt.code {
				t.Errorf("code = %v, want %s", body["code"], tt.code)
			}
		})
	}
}

func TestTree(t *testing.T) {
	s := testServer(t)

	body := doJSON(t, s.Handler(), http.MethodGet, "/network/tree?node=1", http.StatusOK)
	if nodes := body["nodes"].([]any); len(nodes) != 3 {
		t.Errorf("downstream nodes = %v", nodes)
	}

	body = doJSON(t, s.Handler(), http.MethodGet, "/network/tree?node=3&reverse=true", http.StatusOK)
	if nodes := body["nodes"].([]any); len(nodes) != 3 {
		t.Errorf("upstream nodes = %v", nodes)
	}
}

func TestGeometry(t *testing.T) {
	s := testServer(t)
	body := doJSON(t, s.Handler(), http.MethodGet, "/network/geometry?from=1&to=2", http.StatusOK)

	if body["wkt"] != "LINESTRING(0 0, 10 0)" {
		t.Errorf("wkt = %v", body["wkt"])
	}

	doJSON(t, s.Handler(), http.MethodGet, "/network/geometry?from=1&to=3", http.StatusNotFound)
}

func TestRefresh(t *testing.T) {
	s := testServer(t)

	before := doJSON(t, s.Handler(), http.MethodGet, "/healthz", http.StatusOK)["snapshot"]
	body := doJSON(t, s.Handler(), http.MethodPost, "/network/refresh", http.StatusOK)

	if body["snapshot"] == "" || body["snapshot"] == before {
		t.Errorf("snapshot = %v, want a new id", body["snapshot"])
	}
	report, ok := body["report"].(map[string]any)
	if !ok || report["nodes"].(float64) != 3 {
		t.Errorf("report = %v", body["report"])
	}
}

func TestQueryWithoutLayers(t *testing.T) {
	quiet := log.New(&bytes.Buffer{})
	s := New(manager.New(manager.WithLogger(quiet)), WithLogger(quiet))

	body := doJSON(t, s.Handler(), http.MethodGet, "/network/path?from=1&to=2", http.StatusConflict)
	if body["code"] != "LAYER_UNSET" {
		t.Errorf("code = %v", body["code"])
	}
}
