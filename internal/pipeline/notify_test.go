package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/scanner"
)

func TestSendCompletion(t *testing.T) {
	var got completionPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := &NotifyConfig{WebhookURL: srv.URL}
	err := n.SendCompletion(context.Background(), &RunResult{
		Target:  "li-normal",
		ScanID:  "abc",
		Status:  models.StatusComplete,
		State:   scanner.ScanState{Processed: 10, Available: 1, AvailableDomains: []string{"zz.li"}},
		Elapsed: 2 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "li-normal", got.Target)
	assert.Equal(t, "complete", got.Status)
	assert.Equal(t, []string{"zz.li"}, got.Available)
	assert.Equal(t, 2.0, got.ElapsedSeconds)
}

func TestSendCompletion_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := &NotifyConfig{WebhookURL: srv.URL}
	err := n.SendCompletion(context.Background(), &RunResult{})
	assert.ErrorContains(t, err, "non-2xx status 502")
}

func TestSendCompletion_Disabled(t *testing.T) {
	var n *NotifyConfig
	assert.NoError(t, n.SendCompletion(context.Background(), &RunResult{}))
	assert.NoError(t, (&NotifyConfig{}).SendCompletion(context.Background(), &RunResult{}))
}
