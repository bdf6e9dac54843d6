package classification

import (
	"context"
	"errors"
	"fmt"

	"leadcall_backend/platform/ai/moonshot"
	"leadcall_backend/platform/config"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// ErrUnknownProvider is returned by NewModel for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown classifier provider")

// NewModel builds the LLM selected by CLASSIFIER_PROVIDER.
func NewModel(ctx context.Context, cfg config.ClassifierConfig) (model.LLM, error) {
	switch cfg.GetClassifierProvider() {
	case "", "moonshot":
		if cfg.GetMoonshotAPIKey() == "" {
			return nil, fmt.Errorf("MOONSHOT_API_KEY is required for the moonshot classifier")
		}
		return moonshot.NewModel(moonshot.Config{
			APIKey: cfg.GetMoonshotAPIKey(),
			Model:  cfg.GetClassifierModel(),
		}), nil
	case "gemini":
		if cfg.GetGeminiAPIKey() == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini classifier")
		}
		modelName := cfg.GetClassifierModel()
		if modelName == "" {
			modelName = defaultGeminiModel
		}
		llm, err := gemini.NewModel(ctx, modelName, &genai.ClientConfig{
			APIKey:  cfg.GetGeminiAPIKey(),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.GetClassifierProvider())
	}
}
