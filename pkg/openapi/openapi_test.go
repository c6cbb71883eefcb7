package openapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/qagate/pkg/openapi"
)

func newSpec(t *testing.T) *openapi.Spec {
	t.Helper()

	cfg := openapi.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}
	return openapi.NewSpec(&cfg, "1.0.0")
}

func TestNewSpec(t *testing.T) {
	spec := newSpec(t)

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "QA Gate Analytics API" || spec.Info.Version != "1.0.0" {
		t.Errorf("info: got %+v", spec.Info)
	}
	if spec.Info.Description == "" {
		t.Error("description should default")
	}
	for _, name := range []string{"BadRequest", "NotFound", "PayloadTooLarge", "ServiceUnavailable"} {
		if _, ok := spec.Components.Responses[name]; !ok {
			t.Errorf("missing shared response %s", name)
		}
	}
}

func TestAddOperation(t *testing.T) {
	spec := newSpec(t)
	get := &openapi.Operation{Summary: "list"}
	post := &openapi.Operation{Summary: "ingest"}

	spec.AddOperation("GET", "/records", get)
	spec.AddOperation("post", "/records", post)
	spec.AddOperation("DELETE", "/records/{id}", &openapi.Operation{})

	item := spec.Paths["/records"]
	if item == nil {
		t.Fatal("path not added")
	}
	if item.Get != get || item.Post != post {
		t.Errorf("item: got %+v", item)
	}
	if _, ok := spec.Paths["/records/{id}"]; ok {
		t.Error("unsupported method should not add a path")
	}
}

func TestBuilders(t *testing.T) {
	if ref := openapi.SchemaRef("Record"); ref.Ref != "#/components/schemas/Record" {
		t.Errorf("schema ref: got %s", ref.Ref)
	}
	if ref := openapi.ResponseRef("NotFound"); ref.Ref != "#/components/responses/NotFound" {
		t.Errorf("response ref: got %s", ref.Ref)
	}

	p := openapi.PathParam("id", "uuid", "Record ID")
	if p.In != "path" || !p.Required || p.Schema.Format != "uuid" {
		t.Errorf("path param: got %+v", p)
	}

	q := openapi.EnumParam("bucket", "Bucket", "day", "week")
	if q.In != "query" || q.Required || len(q.Schema.Enum) != 2 {
		t.Errorf("enum param: got %+v", q)
	}

	bounded, err := json.Marshal(openapi.QueryParam("warning", "number", "").Between(0, 100).Schema)
	if err != nil {
		t.Fatal(err)
	}
	if string(bounded) != `{"type":"number","minimum":0,"maximum":100}` {
		t.Errorf("bounded: got %s", bounded)
	}
	if p := openapi.QueryParam("page", "integer", "").AtLeast(1); *p.Schema.Minimum != 1 || p.Schema.Maximum != nil {
		t.Errorf("at least: got %+v", p.Schema)
	}

	data, err := json.Marshal(openapi.Nullable("number", "double", ""))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":["number","null"],"format":"double"}` {
		t.Errorf("nullable: got %s", data)
	}
}

func TestServeSpec(t *testing.T) {
	spec := newSpec(t)
	spec.AddServer("/api")
	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	openapi.ServeSpec(data)(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	body, _ := io.ReadAll(res.Body)
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body unmarshal failed: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", parsed["openapi"])
	}
}

func TestConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_TITLE", "Line C Gate")

	cfg := openapi.Config{}
	if err := cfg.Finalize(&openapi.ConfigEnv{Title: "TEST_TITLE", Description: "TEST_DESC"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Title != "Line C Gate" {
		t.Errorf("title: got %s", cfg.Title)
	}

	cfg.Merge(&openapi.Config{Description: "overlay"})
	if cfg.Description != "overlay" || cfg.Title != "Line C Gate" {
		t.Errorf("merge: got %+v", cfg)
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"default", "", "/openapi.json", false},
		{"custom", "/docs/spec.json", "/docs/spec.json", false},
		{"relative", "openapi.json", "", true},
		{"wildcard", "/{doc}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := openapi.Config{Path: tt.path}
			err := cfg.Finalize(nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Path != tt.want {
				t.Errorf("path: got %s, want %s", cfg.Path, tt.want)
			}
		})
	}
}
