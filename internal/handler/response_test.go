package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_EncodeFailureUsesInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rr := httptest.NewRecorder()

	writeJSON(rr, logger, http.StatusOK, map[string]float64{"bad": math.Inf(1)})

	assert.Equal(t, http.StatusOK, rr.Code)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), "log: %s", buf.String())
	assert.Equal(t, "failed to encode JSON response", line["msg"])
	assert.Equal(t, "ERROR", line["level"])
	assert.NotEmpty(t, line["error"])
}
