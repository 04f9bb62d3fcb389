package factory

import (
	"fmt"

	"ai-editor-be/pkg/llm"
	"ai-editor-be/pkg/llm/ollama"
	"ai-editor-be/pkg/llm/openai"
)

const huggingFaceRouter = "https://router.huggingface.co/v1"

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	case "huggingface":
		if baseURL == "" {
			baseURL = huggingFaceRouter
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		return ollama.NewProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
