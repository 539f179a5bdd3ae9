package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveWithRecovery mounts handler behind CorrelationID and Recovery and returns
// the captured JSON log lines alongside the recorder.
func serveWithRecovery(t *testing.T, handler gin.HandlerFunc, correlationID string) (*httptest.ResponseRecorder, []map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var logs bytes.Buffer
	router := gin.New()
	router.Use(CorrelationID(), Recovery(slog.New(slog.NewJSONHandler(&logs, nil))))
	router.POST("/api/v1/payments/webhook", handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", nil)
	if correlationID != "" {
		req.Header.Set(CorrelationIDHeader, correlationID)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var entries []map[string]interface{}
	dec := json.NewDecoder(&logs)
	for dec.More() {
		var entry map[string]interface{}
		require.NoError(t, dec.Decode(&entry))
		entries = append(entries, entry)
	}
	return rr, entries
}

func TestRecovery(t *testing.T) {
	t.Run("PanicBecomes500Envelope", func(t *testing.T) {
		rr, logs := serveWithRecovery(t, func(c *gin.Context) {
			panic("journal repository not configured")
		}, "evt-corr-1")

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
			CorrelationID string `json:"correlation_id"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "journal", "panic value must not reach the client")
		assert.Equal(t, "evt-corr-1", body.CorrelationID)

		require.Len(t, logs, 1)
		assert.Equal(t, "ERROR", logs[0]["level"])
		assert.Equal(t, "Panic recovered", logs[0]["msg"])
		assert.Equal(t, "journal repository not configured", logs[0]["error"])
		assert.Equal(t, "/api/v1/payments/webhook", logs[0]["path"])
		assert.Equal(t, "POST", logs[0]["method"])
		assert.Equal(t, "evt-corr-1", logs[0]["correlation_id"])
		assert.NotEmpty(t, logs[0]["stack"])
	})

	t.Run("PanicAfterResponseWritten", func(t *testing.T) {
		rr, logs := serveWithRecovery(t, func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			panic("after write")
		}, "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "partial", rr.Body.String())
		require.Len(t, logs, 1)
		assert.Equal(t, "Panic recovered", logs[0]["msg"])
	})

	t.Run("NoPanic", func(t *testing.T) {
		rr, logs := serveWithRecovery(t, func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		}, "")

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, logs)
	})
}
