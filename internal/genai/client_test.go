package genai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestAnswer_Success(t *testing.T) {
	srv := chatServer(t, "  a concise answer \n")
	defer srv.Close()

	c := NewClient(srv.URL, "", "gpt-test", time.Second)
	answer, err := c.Answer(context.Background(), "some document", "summarize it")
	require.NoError(t, err)
	assert.Equal(t, "a concise answer", answer)
}

func TestAnswer_EmptyContent(t *testing.T) {
	srv := chatServer(t, "   ")
	defer srv.Close()

	c := NewClient(srv.URL, "", "gpt-test", time.Second)
	_, err := c.Answer(context.Background(), "doc", "instruction")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestAnswer_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "gpt-test", time.Second)
	_, err := c.Answer(context.Background(), "doc", "instruction")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestAnswer_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "gpt-test", time.Second)
	_, err := c.Answer(context.Background(), "doc", "instruction")
	assert.ErrorIs(t, err, ErrUnavailable)
}
