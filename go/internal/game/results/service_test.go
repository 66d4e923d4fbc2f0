package results

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/twinflash/go/internal/game/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	results   []outbox.StoredResult
	err       error
	lastLimit int32
}

func (f *fakeLister) ListRecentResults(_ context.Context, limit int32) ([]outbox.StoredResult, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if int(limit) < len(f.results) {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func newTestClient(t *testing.T, store ResultLister) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(NewHandler(NewService(store)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL)
}

func TestListRecentResults(t *testing.T) {
	stopped := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeLister{results: []outbox.StoredResult{
		{SessionID: uuid.New(), Mode: "uniform", StoppedAt: stopped, Points: 310, Winner: true, LatenciesMS: []float64{310}},
		{SessionID: uuid.New(), Mode: "cross", StoppedAt: stopped.Add(-time.Minute), Points: 600, LatenciesMS: []float64{}},
	}}
	client := newTestClient(t, store)

	got, err := client.ListRecentResults(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, store.results[0].SessionID, got[0].SessionID)
	assert.True(t, got[0].StoppedAt.Equal(stopped))
	assert.Equal(t, []float64{310}, got[0].LatenciesMS)
	assert.Equal(t, "cross", got[1].Mode)
	assert.Equal(t, int32(5), store.lastLimit)
}

func TestListRecentResults_Limits(t *testing.T) {
	tests := []struct {
		name  string
		limit int32
		want  int32
	}{
		{"default", 0, DefaultLimit},
		{"clamped", 500, MaxLimit},
		{"as asked", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeLister{}
			client := newTestClient(t, store)

			got, err := client.ListRecentResults(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Equal(t, tt.want, store.lastLimit)
		})
	}
}

func TestListRecentResults_Errors(t *testing.T) {
	tests := []struct {
		name  string
		store ResultLister
		limit int32
		code  connect.Code
	}{
		{"negative limit", &fakeLister{}, -1, connect.CodeInvalidArgument},
		{"no store", nil, 10, connect.CodeUnavailable},
		{"store failure", &fakeLister{err: errors.New("connection refused")}, 10, connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.store)
			_, err := client.ListRecentResults(context.Background(), tt.limit)
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&ListRecentResultsRequest{Limit: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"limit":3}`, string(data))

	var req ListRecentResultsRequest
	require.NoError(t, c.Unmarshal(nil, &req))
	assert.Zero(t, req.Limit)
}
