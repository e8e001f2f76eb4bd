package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duolog/model"
)

// Interface compliance (compile-time assertion)
var _ model.Invoker = (*Invoker)(nil)

func newTestInvoker(url string) *Invoker {
	return New(func(o *Options) { o.BaseURL = url })
}

func TestInvoke_Success(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "blue because of scattering"})
	}))
	defer srv.Close()

	ref := model.Reference{Display: "llama3.2:latest", Provider: model.ProviderOllama, ModelID: "llama3.2:latest"}
	out, err := newTestInvoker(srv.URL).Invoke(context.Background(), ref, "why is the sky blue?")

	require.NoError(t, err)
	assert.Equal(t, "blue because of scattering", out)
	assert.Equal(t, "llama3.2:latest", gotReq.Model)
	assert.Equal(t, "why is the sky blue?", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 0.7, gotReq.Options["temperature"])
}

func TestInvoke_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestInvoker(srv.URL).Invoke(context.Background(), model.Reference{ModelID: "missing"}, "p")
	assert.Equal(t, model.KindNotFound, model.KindOf(err))
}

func TestInvoke_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestInvoker(srv.URL).Invoke(context.Background(), model.Reference{ModelID: "m"}, "p")
	assert.Equal(t, model.KindRateLimited, model.KindOf(err))
}

func TestInvoke_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestInvoker(srv.URL).Invoke(context.Background(), model.Reference{ModelID: "m"}, "p")
	assert.Equal(t, model.KindTransient, model.KindOf(err))
}

func TestInvoke_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := newTestInvoker(srv.URL).Invoke(context.Background(), model.Reference{ModelID: "m"}, "p")
	assert.Equal(t, model.KindTransient, model.KindOf(err))
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "llama3.2:latest"},
				{"name": "qwen2.5:7b"},
			},
		})
	}))
	defer srv.Close()

	names, err := newTestInvoker(srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:latest", "qwen2.5:7b"}, names)
}

func TestListModels_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestInvoker(srv.URL).ListModels(context.Background())
	assert.Error(t, err)
}
