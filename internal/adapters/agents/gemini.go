package agents

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/havenlabs/haven-agent/internal/domain"
)

// GeminiConfig selects the backend. APIKey takes precedence; otherwise
// Project+Location run against Vertex AI.
type GeminiConfig struct {
	APIKey    string
	Project   string
	Location  string
	ModelName string
}

// GeminiResponder implements domain.ResponseGenerator on Gemini.
type GeminiResponder struct {
	client    *genai.Client
	modelName string
}

func NewGeminiResponder(ctx context.Context, cfg GeminiConfig) (*GeminiResponder, error) {
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	var clientCfg *genai.ClientConfig
	switch {
	case cfg.APIKey != "":
		clientCfg = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	case cfg.Project != "" && cfg.Location != "":
		clientCfg = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	default:
		return nil, fmt.Errorf("gemini responder needs an API key or a project and location")
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiResponder{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateResponse implements domain.ResponseGenerator using Gemini.
func (g *GeminiResponder) GenerateResponse(
	ctx context.Context,
	message string,
	rc domain.ResponseContext,
) (domain.ResponseEnvelope, error) {
	prompt := BuildResponsePrompt(message, rc)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt.User, genai.RoleUser),
	}

	temp := float32(0.7)
	topP := float32(0.9)
	topK := float32(50)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		TopK:              &topK,
		MaxOutputTokens:   int32(2000),
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return domain.ResponseEnvelope{}, fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return domain.ResponseEnvelope{}, fmt.Errorf("gemini returned empty text")
	}

	return domain.ResponseEnvelope{
		Text: text,
		Metadata: map[string]any{
			"model": g.modelName,
		},
	}, nil
}
