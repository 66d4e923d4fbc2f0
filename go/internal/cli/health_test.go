package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/twinflash/go/internal/game/gateway"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type fakeNATS bool

func (f fakeNATS) Connected() bool { return bool(f) }

func TestHealthChecker(t *testing.T) {
	stats := func() gateway.ConnectionStats {
		return gateway.ConnectionStats{TotalConnections: 3, RunningSessions: 1}
	}

	tests := []struct {
		name    string
		checker *healthChecker
		healthy bool
		errs    int
	}{
		{"standalone", &healthChecker{stats: stats}, true, 0},
		{"all up", &healthChecker{db: fakePinger{}, nats: fakeNATS(true), stats: stats}, true, 0},
		{"database down", &healthChecker{db: fakePinger{err: errors.New("refused")}, stats: stats}, false, 1},
		{"both down", &healthChecker{db: fakePinger{err: errors.New("refused")}, nats: fakeNATS(false)}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := tt.checker.Check(context.Background())
			assert.Equal(t, tt.healthy, status.Healthy)
			assert.Len(t, status.Errors, tt.errs)
		})
	}
}

func TestHealthChecker_HTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	h := &healthChecker{nats: fakeNATS(false)}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.NotNil(t, status.NATSConnected)
	assert.False(t, *status.NATSConnected)
	assert.Nil(t, status.DatabaseConnected)

	rec = httptest.NewRecorder()
	h = &healthChecker{stats: func() gateway.ConnectionStats { return gateway.ConnectionStats{TotalConnections: 2} }}
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connections":2`)
}
