package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crackhash/internal/hasher"
	"crackhash/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *Manager, string) {
	t.Helper()
	m := newTestManager(t, testOptions(t))
	dir := t.TempDir()
	router := gin.New()
	NewHandler(m, dir, nil).Register(router)
	return router, m, dir
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func submit(t *testing.T, router http.Handler, req models.CrackHashRequest) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/hash/crack", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.CrackHashResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RequestID)
	return resp.RequestID
}

func status(t *testing.T, router http.Handler, id string) models.StatusResponse {
	t.Helper()
	w := do(t, router, http.MethodGet, "/api/hash/status?requestId="+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleCrack_BruteForceLifecycle(t *testing.T) {
	router, m, _ := setupTestRouter(t)
	id := submit(t, router, models.CrackHashRequest{
		Hash:      hasher.Digest(hasher.MD5, []byte("ab1")),
		Algorithm: "md5",
		Mode:      models.ModeBrute,
		MaxLength: 3,
	})
	waitJob(t, m, id)

	resp := status(t, router, id)
	assert.Equal(t, StatusReady, resp.Status)
	assert.Equal(t, []string{"ab1"}, resp.Data)
	require.NotNil(t, resp.Progress)
	assert.Equal(t, uint64(36+36*36+36*36*36), resp.Progress.Total)
}

func TestHandleCrack_DictionaryInWordlistDir(t *testing.T) {
	router, m, dir := setupTestRouter(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.txt"), []byte("dragon\npassword\n"), 0o600))

	id := submit(t, router, models.CrackHashRequest{
		Hash:      hasher.Digest(hasher.SHA256, []byte("p@ssw0rd")),
		Algorithm: "sha256",
		Mode:      models.ModeDict,
		Wordlist:  "common.txt",
		Rules:     true,
	})
	waitJob(t, m, id)
	assert.Equal(t, []string{"p@ssw0rd"}, status(t, router, id).Data)
}

func TestHandleCrack_Rejects(t *testing.T) {
	router, _, dir := setupTestRouter(t)
	outside := filepath.Join(filepath.Dir(dir), "secret.txt")
	md5 := hasher.Digest(hasher.MD5, []byte("a"))

	tests := []struct {
		name string
		req  models.CrackHashRequest
		code string
	}{
		{"missing mode", models.CrackHashRequest{Hash: md5, Algorithm: "md5"}, "INVALID_REQUEST"},
		{"brute without length", models.CrackHashRequest{Hash: md5, Algorithm: "md5", Mode: "brute"}, "INVALID_REQUEST"},
		{"mask without mask", models.CrackHashRequest{Hash: md5, Algorithm: "md5", Mode: "mask"}, "INVALID_REQUEST"},
		{"not hex", models.CrackHashRequest{Hash: "zz", Algorithm: "md5", Mode: "mask", Mask: "?d"}, "INVALID_REQUEST"},
		{"wrong width", models.CrackHashRequest{Hash: "abcd", Algorithm: "md5", Mode: "mask", Mask: "?d"}, "INVALID_SPEC"},
		{"unknown algorithm", models.CrackHashRequest{Hash: md5, Algorithm: "crc32", Mode: "mask", Mask: "?d"}, "UNSUPPORTED_ALGORITHM"},
		{"traversal", models.CrackHashRequest{Hash: md5, Algorithm: "md5", Mode: "dict", Wordlist: "../secret.txt"}, "INVALID_SPEC"},
		{"absolute", models.CrackHashRequest{Hash: md5, Algorithm: "md5", Mode: "dict", Wordlist: outside}, "INVALID_SPEC"},
		{"missing wordlist", models.CrackHashRequest{Hash: md5, Algorithm: "md5", Mode: "dict", Wordlist: "nope.txt"}, "SOURCE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/hash/crack", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestHandleCancel(t *testing.T) {
	router, m, _ := setupTestRouter(t)
	id := submit(t, router, models.CrackHashRequest{
		Hash:      hasher.Digest(hasher.MD5, []byte("absent")),
		Algorithm: "md5",
		Mode:      models.ModeMask,
		Mask:      "?l?l?l?l?l?l?l?l",
	})
	assert.Equal(t, StatusInProgress, status(t, router, id).Status)

	w := do(t, router, http.MethodDelete, "/api/hash/crack/"+id, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := m.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status(t, router, id).Status)

	w = do(t, router, http.MethodDelete, "/api/hash/crack/"+id, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, router, http.MethodDelete, "/api/hash/crack/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleStatus_TimeoutCode(t *testing.T) {
	opts := testOptions(t)
	opts.Timeout = 20 * time.Millisecond
	m := newTestManager(t, opts)
	router := gin.New()
	NewHandler(m, t.TempDir(), nil).Register(router)

	id := submit(t, router, models.CrackHashRequest{
		Hash:      hasher.Digest(hasher.MD5, []byte("absent")),
		Algorithm: "md5",
		Mode:      models.ModeMask,
		Mask:      "?l?l?l?l?l?l?l?l",
	})
	waitJob(t, m, id)

	resp := status(t, router, id)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "TIMEOUT", resp.Code)
	assert.Empty(t, resp.Data)
}

func TestHandleStatus_Errors(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/hash/status", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/hash/status?requestId=unknown", nil).Code)
}

func TestHandleHealth(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	w := do(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
