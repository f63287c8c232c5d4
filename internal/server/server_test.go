package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/familytree/pkg/cache"
	ftio "github.com/matzehuels/familytree/pkg/io"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/render/tree/sink"
)

const smithsYAML = `title: Smiths
tree:
  id: anna
  name: Anna Smith
  gender: female
  relations:
    - partner:
        id: ben
        name: Ben Smith
        gender: male
        alive: false
      married: true
      children:
        - id: cleo
          name: Cleo Smith
          gender: female
        - id: dan
          name: Dan Smith
          gender: male
`

func newTestServer(t *testing.T, withMetrics bool) (*httptest.Server, *Metrics) {
	t.Helper()
	return newTestServerWith(t, Config{}, withMetrics)
}

func newTestServerWith(t *testing.T, cfg Config, withMetrics bool) (*httptest.Server, *Metrics) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "smiths.yaml"), []byte(smithsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(cache.Instrument(fc), nil, nil)

	var opts []Option
	var m *Metrics
	if withMetrics {
		m = NewMetrics("familytree")
		m.Register()
		t.Cleanup(observability.Reset)
		opts = append(opts, WithMetrics(m))
	}
	cfg.TreesDir = dir
	srv := httptest.NewServer(New(cfg, runner, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, m
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, false)
	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got struct {
		Status  string `json:"status"`
		Version struct {
			Version string `json:"version"`
		} `json:"version"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ok" || got.Version.Version == "" {
		t.Errorf("healthz = %s", body)
	}
}

func TestListTrees(t *testing.T) {
	srv, _ := newTestServer(t, false)
	_, body := get(t, srv.URL+"/v1/trees")
	var got map[string][]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got["trees"]) != 1 || got["trees"][0] != "smiths" {
		t.Errorf("trees = %v", got["trees"])
	}
}

func TestTree(t *testing.T) {
	srv, _ := newTestServer(t, false)

	tests := []struct {
		name        string
		query       string
		status      int
		contentType string
		contains    string
	}{
		{"svg default", "", 200, "image/svg+xml", "<svg"},
		{"json layout", "?format=json", 200, "application/json", `"cards"`},
		{"png", "?format=png&scale=1", 200, "image/png", "\x89PNG"},
		{"dot", "?view=nodelink&format=dot", 200, "text/vnd.graphviz; charset=utf-8", "digraph G"},
		{"highlight", "?highlight=cleo", 200, "image/svg+xml", "<svg"},
		{"invalid format", "?format=gif", 400, "application/json", "INVALID_FORMAT"},
		{"invalid view", "?view=fan", 400, "application/json", "INVALID_STYLE"},
		{"unknown highlight", "?highlight=zed", 404, "application/json", "NOT_FOUND"},
		{"bad width", "?width=wide", 400, "application/json", "INVALID_INPUT"},
		{"huge scale", "?format=png&scale=3e7", 400, "application/json", "INVALID_INPUT"},
		{"nan scale", "?format=png&scale=NaN", 400, "application/json", "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv.URL+"/v1/trees/smiths"+tt.query)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if ct := resp.Header.Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !bytes.Contains(body, []byte(tt.contains)) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestTreeMultipleFormats(t *testing.T) {
	srv, _ := newTestServer(t, false)
	resp, body := get(t, srv.URL+"/v1/trees/smiths?format=svg,json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var got renderResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Artifacts) != 2 || got.Persons != 4 {
		t.Errorf("response = %d artifacts, %d persons", len(got.Artifacts), got.Persons)
	}
	if !bytes.Contains(got.Artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact is not an SVG")
	}
}

func TestTreeCache(t *testing.T) {
	srv, _ := newTestServer(t, false)
	first, _ := get(t, srv.URL+"/v1/trees/smiths")
	second, _ := get(t, srv.URL+"/v1/trees/smiths")
	if first.Header.Get("X-Cache") != "MISS" || second.Header.Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q then %q", first.Header.Get("X-Cache"), second.Header.Get("X-Cache"))
	}
}

func TestTreeNotFound(t *testing.T) {
	srv, _ := newTestServer(t, false)
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing", "/v1/trees/jones", 404},
		{"hidden", "/v1/trees/.smiths", 400},
		{"wrong extension", "/v1/trees/notes", 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
		})
	}
}

func TestTreeLayout(t *testing.T) {
	srv, _ := newTestServer(t, false)
	resp, body := get(t, srv.URL+"/v1/trees/smiths/layout")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var got sink.Document
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Bands[1]) != 2 {
		t.Errorf("bands = %v", got.Bands)
	}
}

func TestRender(t *testing.T) {
	srv, _ := newTestServer(t, false)
	doc, err := ftio.Unmarshal([]byte(smithsYAML), ftio.YAML)
	if err != nil {
		t.Fatal(err)
	}

	post := func(t *testing.T, body []byte) (*http.Response, []byte) {
		t.Helper()
		resp, err := http.Post(srv.URL+"/v1/render", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp, data
	}

	t.Run("inline document", func(t *testing.T) {
		body, _ := json.Marshal(pipeline.Options{Document: doc, Formats: []string{"svg"}, Interactive: true})
		resp, data := post(t, body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d: %s", resp.StatusCode, data)
		}
		if !strings.Contains(string(data), "<script") {
			t.Error("interactive SVG has no script")
		}
	})

	t.Run("source is ignored", func(t *testing.T) {
		body, _ := json.Marshal(pipeline.Options{Source: "/etc/passwd"})
		resp, data := post(t, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d: %s", resp.StatusCode, data)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, data := post(t, []byte("{"))
		if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(data), "INVALID_INPUT") {
			t.Errorf("status = %d: %s", resp.StatusCode, data)
		}
	})

	t.Run("strict with unpositioned person", func(t *testing.T) {
		broken, err := ftio.Unmarshal([]byte(smithsYAML+`        - id: eve
          name: Eve Smith
          generation: 3
`), ftio.YAML)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := json.Marshal(pipeline.Options{Document: broken, Strict: true})
		resp, data := post(t, body)
		if resp.StatusCode != http.StatusUnprocessableEntity || !strings.Contains(string(data), "UNPOSITIONED_NODE") {
			t.Errorf("status = %d: %s", resp.StatusCode, data)
		}
	})
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, true)
	get(t, srv.URL+"/v1/trees/smiths")
	get(t, srv.URL+"/v1/trees/smiths")

	resp, body := get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`familytree_http_requests_total{method="GET",route="/v1/trees/{name}",status="200"} 2`,
		`familytree_pipeline_stage_duration_seconds_count{stage="load"} 2`,
		`familytree_pipeline_stage_duration_seconds_count{stage="layout"} 1`,
		`familytree_cache_operations_total{key_type="artifact",result="hit"} 1`,
		`familytree_tree_persons_count 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServerWith(t, Config{AllowedOrigins: []string{"https://*.example.com"}}, false)

	tests := []struct {
		origin string
		want   string
	}{
		{"https://viewer.example.com", "https://viewer.example.com"},
		{"https://evil.test", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/trees", nil)
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Origin", tt.origin)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}
