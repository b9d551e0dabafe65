package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionsServer(t *testing.T, reply string, inspect func(body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if inspect != nil {
			inspect(body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": reply}},
			},
		})
	}))
}

func TestGenerateSendsSystemAndUser(t *testing.T) {
	var got map[string]any
	srv := completionsServer(t, "fine, thanks", func(body map[string]any) { got = body })
	defer srv.Close()

	c := NewOpenAIClient("key", "test-model", WithOpenAIBaseURL(srv.URL))
	reply, err := c.Generate(context.Background(), "be brief", "how are you")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "fine, thanks" {
		t.Errorf("reply = %q", reply)
	}

	if got["model"] != "test-model" {
		t.Errorf("model = %v", got["model"])
	}
	messages := got["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	first := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "be brief" {
		t.Errorf("system message = %v", first)
	}
}

func TestGenerateOmitsEmptySystem(t *testing.T) {
	var got map[string]any
	srv := completionsServer(t, "ok", func(body map[string]any) { got = body })
	defer srv.Close()

	c := NewOpenAIClient("", "m", WithOpenAIBaseURL(srv.URL))
	if _, err := c.Generate(context.Background(), "", "hi"); err != nil {
		t.Fatal(err)
	}
	if n := len(got["messages"].([]any)); n != 1 {
		t.Errorf("got %d messages, want 1", n)
	}
}

func TestAnalyzeInlinesDataURL(t *testing.T) {
	var got map[string]any
	srv := completionsServer(t, `{"amount": 125.5}`, func(body map[string]any) { got = body })
	defer srv.Close()

	c := NewOpenAIClient("key", "m", WithOpenAIBaseURL(srv.URL))
	reply, err := c.Analyze(context.Background(), "aGVsbG8=", "image/png", "read the receipt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "125.5") {
		t.Errorf("reply = %q", reply)
	}

	content := got["messages"].([]any)[0].(map[string]any)["content"].([]any)
	imagePart := content[1].(map[string]any)
	url := imagePart["image_url"].(map[string]any)["url"].(string)
	if url != "data:image/png;base64,aGVsbG8=" {
		t.Errorf("image url = %q", url)
	}
}

func TestCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "m", WithOpenAIBaseURL(srv.URL))
	if _, err := c.Generate(context.Background(), "", "hi"); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "m", WithOpenAIBaseURL(srv.URL))
	if _, err := c.Generate(context.Background(), "", "hi"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestAuthorizationHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("sk-test", "m", WithOpenAIBaseURL(srv.URL))
	if _, err := c.Generate(context.Background(), "", "hi"); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("auth header = %q", auth)
	}

	// Local OpenAI-compatible servers often need no key at all.
	c = NewOpenAIClient("", "m", WithOpenAIBaseURL(srv.URL))
	if _, err := c.Generate(context.Background(), "", "hi"); err != nil {
		t.Fatal(err)
	}
	if auth != "" {
		t.Errorf("auth header should be absent without a key, got %q", auth)
	}
}
