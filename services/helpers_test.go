package services

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"testing"

	"agentic-context/internal/vectorstore"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fakeDims = 64

// fakeEmbedder hashes lower-cased words into a normalized bag-of-words vector.
type fakeEmbedder struct {
	mu        sync.Mutex
	docCalls  int
	failQuery error
	failDocs  error
}

func embedText(text string) []float32 {
	vec := make([]float32, fakeDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,?!")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%fakeDims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / math.Sqrt(norm))
	}
	return vec
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.docCalls++
	f.mu.Unlock()
	if f.failDocs != nil {
		return nil, f.failDocs
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.failQuery != nil {
		return nil, f.failQuery
	}
	return embedText(text), nil
}

// fakeChat records prompts and returns a fixed reply.
type fakeChat struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeChat) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// failingStore fails every operation.
type failingStore struct{ err error }

func (s failingStore) AddDocuments(context.Context, string, []vectorstore.Document) error {
	return s.err
}

func (s failingStore) Search(context.Context, string, []float32, int) ([]vectorstore.SearchResult, error) {
	return nil, s.err
}

func (s failingStore) DeleteCollection(context.Context, string) error { return s.err }
func (s failingStore) Backend() string                                { return "failing" }
func (s failingStore) Close() error                                   { return nil }

var errBoom = errors.New("boom")

func newTestStore(t *testing.T) *vectorstore.ChromemStore {
	t.Helper()
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	return store
}

func newTestLoader(t *testing.T) *DocumentLoader {
	t.Helper()
	loader, err := NewDocumentLoader([]string{"utf-8", "utf-16", "windows-1252"})
	require.NoError(t, err)
	return loader
}

func newTestIngestion(t *testing.T, embedder *fakeEmbedder, store vectorstore.Store) (*IngestionService, string) {
	t.Helper()
	dir := t.TempDir()
	return NewIngestionService(dir, newTestLoader(t), NewTextSplitter(4000, 0), embedder, store, nil), dir
}
