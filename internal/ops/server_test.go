package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erinlkolp/erin-slack-notes-bot/pkg/logger"
)

type fakeConnector struct {
	db  *sql.DB
	err error
}

func (c *fakeConnector) Connect(ctx context.Context) (*sql.DB, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.db, nil
}

func newTestServer(t *testing.T, connector *fakeConnector, socketUp bool) *Server {
	t.Helper()
	log := logger.NewLogger("test")
	log.SetOutput(io.Discard)
	return NewServer(0, connector, func() bool { return socketUp }, log)
}

func getHealth(t *testing.T, s *Server) (int, HealthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.healthHandler(rec, req)

	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newTestServer(t, &fakeConnector{db: db}, true)

	code, body := getHealth(t, s)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	require.Len(t, body.Checks, 2)
	assert.Equal(t, "mysql", body.Checks[0].Name)
	assert.Equal(t, "healthy", body.Checks[0].Status)
	assert.Equal(t, "slack_socket", body.Checks[1].Name)
	assert.Equal(t, "healthy", body.Checks[1].Status)
	assert.NotEmpty(t, body.Timestamp)
	assert.NotEmpty(t, body.Uptime)
}

func TestHealthHandler_DatabaseDownIsDegraded(t *testing.T) {
	s := newTestServer(t, &fakeConnector{err: errors.New("dial tcp: connection refused")}, true)

	code, body := getHealth(t, s)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unhealthy", body.Checks[0].Status)
	assert.Contains(t, body.Checks[0].Error, "connection refused")
}

func TestHealthHandler_EverythingDownIsUnhealthy(t *testing.T) {
	s := newTestServer(t, &fakeConnector{err: errors.New("dial tcp: connection refused")}, false)

	code, body := getHealth(t, s)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "unhealthy", body.Checks[1].Status)
}
