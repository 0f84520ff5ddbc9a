package ai

import (
	"context"
	"sync"
)

// LazyEmbedder builds the underlying embedder on first use and shares it
// across requests. A failed build is retried on the next call.
type LazyEmbedder struct {
	mu       sync.Mutex
	build    func(ctx context.Context) (Embedder, error)
	embedder Embedder
}

func NewLazyEmbedder(build func(ctx context.Context) (Embedder, error)) *LazyEmbedder {
	return &LazyEmbedder{build: build}
}

func (l *LazyEmbedder) get(ctx context.Context) (Embedder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.embedder != nil {
		return l.embedder, nil
	}
	e, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.embedder = e
	return e, nil
}

func (l *LazyEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedDocuments(ctx, texts)
}

func (l *LazyEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedQuery(ctx, text)
}

// Close releases the underlying client if one was built and it holds resources.
func (l *LazyEmbedder) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.embedder.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// LazyChatClient is the ChatClient counterpart of LazyEmbedder.
type LazyChatClient struct {
	mu     sync.Mutex
	build  func(ctx context.Context) (ChatClient, error)
	client ChatClient
}

func NewLazyChatClient(build func(ctx context.Context) (ChatClient, error)) *LazyChatClient {
	return &LazyChatClient{build: build}
}

func (l *LazyChatClient) Complete(ctx context.Context, systemPrompt string) (string, error) {
	l.mu.Lock()
	if l.client == nil {
		c, err := l.build(ctx)
		if err != nil {
			l.mu.Unlock()
			return "", err
		}
		l.client = c
	}
	client := l.client
	l.mu.Unlock()

	return client.Complete(ctx, systemPrompt)
}
