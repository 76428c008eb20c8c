package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAIModel serves GenerateRequest through the Responses API, using strict
// structured output whenever a schema is supplied.
type OpenAIModel struct {
	client *openai.Client
}

func NewOpenAIModel(apiKey string) *OpenAIModel {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIModel{client: &client}
}

func (m *OpenAIModel) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	params := responses.ResponseNewParams{
		Model:        req.Model,
		Instructions: openai.String(req.SystemInstruction),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(req.Prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if req.ResponseSchema != nil {
		name := req.SchemaName
		if name == "" {
			name = "Response"
		}
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        name,
					Schema:      req.ResponseSchema,
					Strict:      openai.Bool(true),
					Description: openai.String(name + " JSON"),
					Type:        "json_schema",
				},
			},
		}
	}

	resp, err := m.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses request failed: %w", err)
	}

	out := resp.OutputText()
	if strings.TrimSpace(out) == "" {
		return "", errEmptyModelResponse
	}
	return out, nil
}
