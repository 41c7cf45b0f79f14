package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed_PadsToTargetDims(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.5, 0.25}})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "nomic-embed-text", 4)
	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 4 {
		t.Fatalf("len = %d, want 4", len(vec))
	}
	if vec[0] != 0.5 || vec[1] != 0.25 || vec[2] != 0 || vec[3] != 0 {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbed_TruncatesOversized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{1, 2, 3, 4}})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "m", 2)
	vec, err := c.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[1] != 2 {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbed_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "m", 4)
	if _, err := c.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedBatch_Order(t *testing.T) {
	n := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n++
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{float64(n)}})
	}))
	defer srv.Close()

	c := NewEmbedClient(srv.URL, "m", 1)
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 3 || vecs[0][0] != 1 || vecs[2][0] != 3 {
		t.Errorf("vecs = %v", vecs)
	}
}
