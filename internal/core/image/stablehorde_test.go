package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmarkh/converso/internal/apperr"
)

func testHordeClient(baseURL string) *HordeClient {
	c := NewHordeClient(baseURL, "0000000000")
	c.pollInterval = time.Millisecond
	c.maxPolls = 5
	return c
}

func TestHordeGenerate(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate/async":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "0000000000", r.Header.Get("apikey"))

			var req hordeSubmitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "a red fox", req.Prompt)

			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(hordeSubmitResponse{ID: "job-1"})
		case "/generate/status/job-1":
			// Not ready on the first poll, done on the second.
			if polls.Add(1) < 2 {
				json.NewEncoder(w).Encode(hordeStatusResponse{Done: false})
				return
			}
			resp := hordeStatusResponse{Done: true}
			resp.Generations = append(resp.Generations, struct {
				Img string `json:"img"`
			}{Img: "https://img.example/fox.png"})
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	url, err := testHordeClient(srv.URL).Generate(context.Background(), "a red fox")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/fox.png", url)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestHordeGenerate_SubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testHordeClient(srv.URL).Generate(context.Background(), "a red fox")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestHordeGenerate_NeverFinishes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/generate/async" {
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(hordeSubmitResponse{ID: "job-1"})
			return
		}
		json.NewEncoder(w).Encode(hordeStatusResponse{Done: false})
	}))
	defer srv.Close()

	_, err := testHordeClient(srv.URL).Generate(context.Background(), "a red fox")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestHordeGenerate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/generate/async" {
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(hordeSubmitResponse{ID: "job-1"})
			return
		}
		json.NewEncoder(w).Encode(hordeStatusResponse{Done: false})
	}))
	defer srv.Close()

	c := testHordeClient(srv.URL)
	c.pollInterval = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Generate(ctx, "a red fox")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Generate did not return after cancellation")
	}
}
