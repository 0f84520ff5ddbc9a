package services

import (
	"context"
	"strings"

	"agentic-context/internal/ai"
	"agentic-context/internal/logger"

	"go.uber.org/zap"
)

const formattingPromptHeader = `
You are a formatting and organization assistant.

Your job is to take the raw information retrieved by a RAG system (provided below) 
and process it to create a clear, well-structured, and logically ordered context.
This context will be used by another model to answer a user query, so you must not 
answer the query yourself.

Instructions:
- Organize the information into sections or bullet points
- Remove duplicates and irrelevant or conflicting data
- Preserve technical or factual accuracy
- Do not fabricate or infer missing information
- Make the result easy for another model to read and use as direct context
- Ensure all the important information from the retrieved chunks is present

Below is the raw retrieved data:
---
`

const formattingPromptFooter = `
---

Return only the cleaned and structured context below.

Context:`

// BuildFormattingPrompt embeds chunks, newline-joined and in order, in the
// fixed formatting instructions.
func BuildFormattingPrompt(chunks []string) string {
	return formattingPromptHeader + strings.Join(chunks, "\n") + formattingPromptFooter
}

// FormattingService cleans retrieved chunks into context for another model.
type FormattingService struct {
	chat ai.ChatClient
}

func NewFormattingService(chat ai.ChatClient) *FormattingService {
	return &FormattingService{chat: chat}
}

// Format returns the model's structured rewrite of chunks. No chunks means
// no context, and the model is not called.
func (s *FormattingService) Format(ctx context.Context, chunks []string) (string, error) {
	const op = "format"

	if len(chunks) == 0 {
		return "", nil
	}

	out, err := s.chat.Complete(ctx, BuildFormattingPrompt(chunks))
	if err != nil {
		logger.Error("formatting failed", zap.Int("chunks", len(chunks)), zap.Error(err))
		return "", upstream(op, err)
	}
	return out, nil
}
