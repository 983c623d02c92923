package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumetext/convertd/internal/api/handler"
	"github.com/plumetext/convertd/internal/config"
	"github.com/plumetext/convertd/internal/extract"
	"github.com/plumetext/convertd/internal/job"
	"github.com/plumetext/convertd/shared/logger"
)

const testAPIKey = "test-service-key"

// setupService wires the real intake, dispatcher, runner, and notifier
// with document extraction only. Audio and web collaborators stay nil;
// the scenarios here never reach them.
func setupService(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewDefault()
	dispatcher := extract.NewDispatcher(extract.NewRegistry(), nil, nil, nil, nil, log)
	notifier := job.NewWebhookNotifier(config.WebhookConfig{RequestTimeout: 5 * time.Second}, log)
	runner := job.NewRunner(dispatcher, notifier, log)

	return SetupRouter(&handler.Dependencies{
		Logger:    log,
		Starter:   runner,
		UploadDir: t.TempDir(),
		APIKey:    testAPIKey,
	})
}

func convertRequest(t *testing.T, apiKey, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	return req
}

func TestHealthEndpoint(t *testing.T) {
	router := setupService(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestConvert_RejectsBadAPIKey(t *testing.T) {
	router := setupService(t)

	tests := []struct {
		name   string
		apiKey string
	}{
		{name: "wrong key", apiKey: "not-the-key"},
		{name: "missing key", apiKey: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := convertRequest(t, tt.apiKey, "a.txt", "hi", map[string]string{
				"webhookURL": "https://caller.example/hook",
				"uniqueID":   "id-1",
			})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Invalid or missing API key", body["error"])
		})
	}
}

func TestConvert_TxtUploadDeliversTextToWebhook(t *testing.T) {
	delivered := make(chan map[string]interface{}, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		delivered <- payload
	}))
	defer webhook.Close()

	router := setupService(t)

	req := convertRequest(t, testAPIKey, "greeting.txt", "hello webhook", map[string]string{
		"webhookURL": webhook.URL,
		"uniqueID":   "e2e-1",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.Equal(t, "Received file. Processing...", accepted["status"])

	select {
	case payload := <-delivered:
		assert.Equal(t, "e2e-1", payload["uniqueID"])
		assert.Equal(t, "txt", payload["filetype"])
		assert.Equal(t, "hello webhook", payload["text"])
		assert.NotContains(t, payload, "error")
		assert.GreaterOrEqual(t, payload["processingTime"], 0.0)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was never called")
	}
}

func TestConvert_UnsupportedUploadDeliversErrorToWebhook(t *testing.T) {
	delivered := make(chan map[string]interface{}, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		delivered <- payload
	}))
	defer webhook.Close()

	router := setupService(t)

	req := convertRequest(t, testAPIKey, "binary.exe", "MZ...", map[string]string{
		"webhookURL": webhook.URL,
		"uniqueID":   "e2e-2",
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case payload := <-delivered:
		assert.Equal(t, "e2e-2", payload["uniqueID"])
		assert.Equal(t, "exe", payload["filetype"])
		assert.Contains(t, payload["error"], "unsupported file format")
		assert.NotContains(t, payload, "text")
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was never called")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := setupService(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/convert", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
