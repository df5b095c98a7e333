package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/mnemo-dev/mnemo/internal/ai"
	"github.com/mnemo-dev/mnemo/internal/config"
	"github.com/mnemo-dev/mnemo/internal/handler"
	"github.com/mnemo-dev/mnemo/internal/middleware"
	"github.com/mnemo-dev/mnemo/internal/repo"
	"github.com/mnemo-dev/mnemo/internal/service"
	"github.com/mnemo-dev/mnemo/internal/vecstore"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repo.ApplyMigrations(db, "../../migrations"))

	store, err := vecstore.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	local, err := ai.NewProvider("local", map[string]interface{}{"embed_dim": 64})
	require.NoError(t, err)
	embedder := ai.NewEmbedder(64, local)

	jwtSecret := []byte("test-secret")
	chunking := config.ChunkingConfig{ChunkSize: 500, Overlap: 100, MaxChunks: 1000, MinTextChars: 20}
	retrieval := config.RetrievalConfig{DefaultTopK: 4, MaxTopK: 20, ContextChunks: 6, ContextMaxChars: 500}

	authService := service.NewAuthService(repo.NewUserRepo(db), jwtSecret, time.Hour)
	memoryService := service.NewMemoryService(embedder, store, repo.NewDocumentRepo(db), nil, chunking)
	chatService := service.NewChatService(memoryService, repo.NewConversationRepo(db), retrieval)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Memory:    handler.NewMemoryHandler(memoryService, 20*1024*1024),
		Chat:      handler.NewChatHandler(chatService),
		Health:    handler.NewHealthHandler(memoryService),
		JWTSecret: jwtSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func registerUser(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"email": email, "password": "secret-pass"})
	require.Equal(t, http.StatusOK, resp.Code)
	var result struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	token, _ := result.Data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func uploadFile(t *testing.T, router http.Handler, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/memory/ingest", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}
