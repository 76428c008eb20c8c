package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"stamind.app/journal-service/internal/logging"
)

// GenerateRequest is one call to a generative text model.
type GenerateRequest struct {
	Model             string
	SystemInstruction string
	Prompt            string
	// ResponseSchema, when set, asks the provider for JSON conforming to it.
	ResponseSchema map[string]any
	SchemaName     string
}

// TextGenerator is the external generative model collaborator.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

var errEmptyModelResponse = errors.New("model returned an empty response")

type GeminiModel struct {
	client *genai.Client
	logger *zap.Logger
}

func NewGeminiModel(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiModel{client: client, logger: logging.OrNop(logger)}, nil
}

func (m *GeminiModel) Close() {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			m.logger.Warn("error closing GenAI client", zap.Error(err))
		} else {
			m.logger.Debug("GenAI client closed")
		}
	}
}

func (m *GeminiModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	model := m.client.GenerativeModel(req.Model)
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}
	if req.ResponseSchema != nil {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini GenerateContent failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errEmptyModelResponse
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			m.logger.Debug("gemini response part was not text", zap.String("type", fmt.Sprintf("%T", part)))
		}
	}
	if text.Len() == 0 {
		return "", errEmptyModelResponse
	}
	return text.String(), nil
}
