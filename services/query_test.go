package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{}
	store := newTestStore(t)
	ingest, _ := newTestIngestion(t, embedder, store)

	count, err := ingest.Ingest(ctx, []byte("The sky is blue. Grass is green."), "doc.txt", "t1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	chat := &fakeChat{reply: "- Sky: blue\n- Grass: green"}
	svc := NewQueryService(
		NewRetrievalService(embedder, store, 10, 0.25, nil),
		NewFormattingService(chat),
	)

	answer, err := svc.Answer(ctx, "What color is grass?", "t1")
	require.NoError(t, err)

	assert.Equal(t, []string{"The sky is blue. Grass is green."}, answer.SourceChunks)
	assert.Equal(t, "- Sky: blue\n- Grass: green", answer.Answer)
	require.Equal(t, 1, chat.calls())
	assert.Contains(t, chat.prompts[0], "The sky is blue. Grass is green.")
}

func TestAnswer_UnknownTenant(t *testing.T) {
	chat := &fakeChat{reply: "unused"}
	embedder := &fakeEmbedder{}
	svc := NewQueryService(
		NewRetrievalService(embedder, newTestStore(t), 10, 0.25, nil),
		NewFormattingService(chat),
	)

	answer, err := svc.Answer(context.Background(), "anything", "ghost")
	require.NoError(t, err)
	assert.Empty(t, answer.Answer)
	assert.Empty(t, answer.SourceChunks)
	assert.Zero(t, chat.calls())
}

func TestAnswer_PropagatesFirstError(t *testing.T) {
	chat := &fakeChat{reply: "unused"}
	svc := NewQueryService(
		NewRetrievalService(&fakeEmbedder{failQuery: errBoom}, newTestStore(t), 10, 0.25, nil),
		NewFormattingService(chat),
	)

	_, err := svc.Answer(context.Background(), "q", "t1")
	require.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Zero(t, chat.calls())
}

func TestAgentService_Delete(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{}
	store := newTestStore(t)
	ingest, _ := newTestIngestion(t, embedder, store)

	_, err := ingest.Ingest(ctx, []byte("temporary"), "tmp.txt", "t1")
	require.NoError(t, err)

	require.NoError(t, NewAgentService(store, nil).Delete(ctx, "t1"))

	res, err := NewRetrievalService(embedder, store, 10, 0.25, nil).Retrieve(ctx, "temporary", "t1", 5, SearchMMR)
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)

	err = NewAgentService(store, nil).Delete(ctx, "")
	assert.Equal(t, KindInvalidInput, KindOf(err))
}
