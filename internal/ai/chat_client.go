package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"agentic-context/internal/config"
	"agentic-context/internal/telemetry"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ChatClient sends a single system prompt and returns the completion text.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt string) (string, error)
}

// DeepSeekClient talks to DeepSeek through its OpenAI-compatible API.
type DeepSeekClient struct {
	client      *openai.Client
	model       string
	temperature *float32
	metrics     *telemetry.Metrics
}

func NewDeepSeekClient(cfg *config.Config, metrics *telemetry.Metrics) (*DeepSeekClient, error) {
	if cfg.DeepSeekAPIKey == "" {
		return nil, errors.New("missing DEEPSEEK_API_KEY for chat completion")
	}

	clientCfg := openai.DefaultConfig(cfg.DeepSeekAPIKey)
	clientCfg.BaseURL = cfg.ChatBaseURL

	dc := &DeepSeekClient{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.ChatModel,
		metrics: metrics,
	}
	if cfg.ChatTemperature != nil {
		t := float32(*cfg.ChatTemperature)
		dc.temperature = &t
	}
	return dc, nil
}

// chatRequest builds the completion request. go-openai omits a zero
// Temperature, so an explicit 0 is sent as the smallest positive float.
func (dc *DeepSeekClient) chatRequest(systemPrompt string) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: dc.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
	}
	if dc.temperature != nil {
		req.Temperature = *dc.temperature
		if req.Temperature == 0 {
			req.Temperature = math.SmallestNonzeroFloat32
		}
	}
	return req
}

func (dc *DeepSeekClient) Complete(ctx context.Context, systemPrompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "deepseek.chat_completion")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", dc.model),
		attribute.Int("llm.prompt_chars", len(systemPrompt)),
	)

	start := time.Now()
	resp, err := dc.client.CreateChatCompletion(ctx, dc.chatRequest(systemPrompt))
	dc.metrics.RecordLLMCall(ctx, dc.model, time.Since(start).Seconds(), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("chat completion returned no choices")
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.completion_tokens", resp.Usage.CompletionTokens),
	)
	span.SetStatus(codes.Ok, "success")
	return resp.Choices[0].Message.Content, nil
}
