package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"agentic-context/internal/config"
	"agentic-context/internal/vectorstore"
	"agentic-context/models"
	"agentic-context/services"
	"agentic-context/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// keywordEmbedder maps each known keyword to its own axis.
type keywordEmbedder struct{}

var keywords = []string{"sky", "blue", "grass", "green", "color"}

func keywordVector(text string) []float32 {
	vec := make([]float32, len(keywords)+1)
	lower := strings.ToLower(text)
	for i, k := range keywords {
		if strings.Contains(lower, k) {
			vec[i] = 1
		}
	}
	vec[len(keywords)] = 0.1
	return vec
}

func (keywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	return out, nil
}

func (keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return keywordVector(text), nil
}

// rewritingChat returns a bulleted rewrite of the chunks found in the prompt.
type rewritingChat struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *rewritingChat) Complete(_ context.Context, prompt string) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	parts := strings.Split(prompt, "---\n")
	body := strings.TrimSuffix(parts[1], "\n")
	var b strings.Builder
	for _, sentence := range strings.Split(body, ". ") {
		b.WriteString("- " + strings.TrimSuffix(sentence, ".") + "\n")
	}
	return b.String(), nil
}

type testServer struct {
	router    *gin.Engine
	uploadDir string
	store     vectorstore.Store
	chat      *rewritingChat
}

func newTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()

	cfg := &config.Config{
		APIKey:        apiKey,
		CORSOrigins:   []string{"*"},
		MaxFileSize:   1 << 20,
		UploadDir:     t.TempDir(),
		ChunkSize:     4000,
		TextEncodings: []string{"utf-8", "utf-16", "windows-1252"},
		MMRFetchK:     10,
		MMRLambda:     0.25,
	}

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)

	loader, err := services.NewDocumentLoader(cfg.TextEncodings)
	require.NoError(t, err)

	embedder := keywordEmbedder{}
	chat := &rewritingChat{}

	retrieval := services.NewRetrievalService(embedder, store, cfg.MMRFetchK, cfg.MMRLambda, nil)
	formatting := services.NewFormattingService(chat)
	svc := &Services{
		Ingestion:  services.NewIngestionService(cfg.UploadDir, loader, services.NewTextSplitter(cfg.ChunkSize, cfg.ChunkOverlap), embedder, store, nil),
		Retrieval:  retrieval,
		Formatting: formatting,
		Query:      services.NewQueryService(retrieval, formatting),
		Agents:     services.NewAgentService(store, nil),
	}

	return &testServer{
		router:    SetupRouter(cfg, svc, nil),
		uploadDir: cfg.UploadDir,
		store:     store,
		chat:      chat,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, filename, agentID string, content []byte, apiKey string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("agent_id", agentID))
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return req
}

func jsonRequest(t *testing.T, method, path string, payload any, apiKey string) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, "secret")

	w := srv.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.HealthResponse{Status: "healthy", Message: "RAG system is running"}, decode[models.HealthResponse](t, w))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUpload_InvalidAPIKeyWritesNothing(t *testing.T) {
	srv := newTestServer(t, "secret")

	for _, key := range []string{"", "wrong"} {
		w := srv.do(t, uploadRequest(t, "doc.txt", "t1", []byte("hello"), key))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthorized", decode[utils.ErrorResponse](t, w).ErrorCode)
	}

	entries, err := os.ReadDir(srv.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpload_UnsupportedTypeIsBadRequest(t *testing.T) {
	srv := newTestServer(t, "secret")

	w := srv.do(t, uploadRequest(t, "report.docx", "t1", []byte("PK\x03\x04"), "secret"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[utils.ErrorResponse](t, w).Message, "File type not allowed")

	entries, err := os.ReadDir(srv.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	results, err := srv.store.Search(context.Background(), "agent_t1", keywordVector("anything"), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpload_MissingFileOrAgent(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(t, uploadRequest(t, "doc.txt", "", []byte("hello"), ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader("agent_id=t1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = srv.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no_file", decode[utils.ErrorResponse](t, w).ErrorCode)
}

func TestUploadThenQuery_EndToEnd(t *testing.T) {
	srv := newTestServer(t, "secret")
	sentence := "The sky is blue. Grass is green."

	w := srv.do(t, uploadRequest(t, "doc.txt", "t1", []byte(sentence), "secret"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.UploadResponse{AgentID: "t1", Filename: "doc.txt", ChunkCount: 1}, decode[models.UploadResponse](t, w))

	_, err := os.Stat(srv.uploadDir + "/agent_t1-doc.txt")
	require.NoError(t, err)

	w = srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/query", models.QueryRequest{
		Query:   "What color is grass?",
		AgentID: "t1",
	}, "secret"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.QueryResponse](t, w)
	assert.Equal(t, []string{sentence}, resp.SourceChunks)
	assert.NotEqual(t, sentence, resp.Answer)
	assert.Contains(t, resp.Answer, "Grass is green")
	assert.Contains(t, resp.Answer, "The sky is blue")
}

func TestUploadPDFThenRetrieve(t *testing.T) {
	srv := newTestServer(t, "secret")
	pdf, err := os.ReadFile(filepath.Join("testdata", "two_pages.pdf"))
	require.NoError(t, err)

	w := srv.do(t, uploadRequest(t, "doc.pdf", "t2", pdf, "secret"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.UploadResponse{AgentID: "t2", Filename: "doc.pdf", ChunkCount: 1}, decode[models.UploadResponse](t, w))

	w = srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/retrieve", gin.H{"query": "sky", "agent_id": "t2"}, "secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"The sky is blue. Grass is green."}, decode[models.RetrieveResponse](t, w).Chunks)
}

func TestRetrieve(t *testing.T) {
	srv := newTestServer(t, "secret")

	w := srv.do(t, uploadRequest(t, "doc.txt", "t1", []byte("Grass is green."), "secret"))
	require.Equal(t, http.StatusOK, w.Code)

	topK := 50
	w = srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/retrieve", models.RetrieveRequest{
		Query:   "grass",
		AgentID: "t1",
		TopK:    &topK,
	}, "secret"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.RetrieveResponse](t, w)
	assert.Equal(t, []string{"Grass is green."}, resp.Chunks)
	assert.Equal(t, []models.ChunkMetadata{{AgentID: "t1", ChunkIndex: 0, StartIndex: 0}}, resp.Metadata)
}

func TestRetrieve_UnknownTenantIsEmpty(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/retrieve", gin.H{"query": "grass", "agent_id": "ghost"}, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"chunks":[],"metadata":[]}`, w.Body.String())
}

func TestRetrieve_BadRequests(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/retrieve", gin.H{"agent_id": "t1"}, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/retrieve", gin.H{"query": "q", "agent_id": "t1", "search_type": "hybrid"}, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", decode[utils.ErrorResponse](t, w).ErrorCode)
}

func TestFormat(t *testing.T) {
	srv := newTestServer(t, "")

	w := srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/format", models.FormatRequest{Chunks: []string{"Grass is green."}}, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "- Grass is green\n", decode[models.FormatResponse](t, w).FormattedContext)

	w = srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/format", models.FormatRequest{Chunks: []string{}}, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.FormatResponse](t, w).FormattedContext)
	assert.Equal(t, 1, srv.chat.calls)
}

func TestFormat_ProviderFailureIs500(t *testing.T) {
	srv := newTestServer(t, "")
	srv.chat.err = errors.New("deepseek unavailable")

	w := srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/format", models.FormatRequest{Chunks: []string{"x"}}, ""))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode[utils.ErrorResponse](t, w)
	assert.Equal(t, "internal_error", resp.ErrorCode)
	assert.Contains(t, resp.Message, "Error formatting chunks")
	assert.Contains(t, resp.Message, "deepseek unavailable")
}

func TestDeleteAgent(t *testing.T) {
	srv := newTestServer(t, "secret")

	w := srv.do(t, uploadRequest(t, "doc.txt", "t1", []byte("Grass is green."), "secret"))
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, jsonRequest(t, http.MethodDelete, "/api/v1/agents/t1", nil, "wrong"))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, jsonRequest(t, http.MethodDelete, "/api/v1/agents/t1", nil, "secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.DeleteAgentResponse{AgentID: "t1", Deleted: true}, decode[models.DeleteAgentResponse](t, w))

	w = srv.do(t, jsonRequest(t, http.MethodPost, "/api/v1/retrieve", gin.H{"query": "grass", "agent_id": "t1"}, "secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.RetrieveResponse](t, w).Chunks)
}
