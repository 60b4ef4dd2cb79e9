package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

var DefaultOpenRouterModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
	"meta-llama/llama-3.1-8b-instruct:free",
}

// OpenRouterService translates batches through the OpenRouter chat API
// using the JSON-array protocol.
type OpenRouterService struct {
	apiKey  string
	baseURL string
	models  []string
	client  *http.Client
}

func NewOpenRouterService(apiKey string, baseURL string, models []string) *OpenRouterService {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if len(models) == 0 {
		models = DefaultOpenRouterModels
	}
	return &OpenRouterService{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

func (s *OpenRouterService) getRandomModel() string {
	if len(s.models) == 0 {
		return "google/gemini-2.0-flash-exp:free"
	}
	return s.models[rand.Intn(len(s.models))]
}

func (s *OpenRouterService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req BatchRequest) (*BatchResult, error) {
	result := &BatchResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	apiKey := s.apiKey
	if apiKey == "" && cfg.APIKey != "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		return result, fmt.Errorf("OpenRouter API key required")
	}

	model := cfg.Model
	if model == "" {
		model = s.getRandomModel()
	}

	protected, markers := protectBatch(req.Texts)
	payload, err := json.Marshal(protected)
	if err != nil {
		return result, fmt.Errorf("failed to marshal texts: %v", err)
	}

	openrouterReq := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": buildBatchSystemPrompt(req.SourceLang, req.TargetLang, len(req.Texts))},
			{"role": "user", "content": string(payload)},
		},
		"max_tokens": 8192,
	}

	jsonData, err := json.Marshal(openrouterReq)
	if err != nil {
		return result, fmt.Errorf("failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/chat/completions", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return result, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	httpReq.Header.Set("HTTP-Referer", "https://subtran.local")
	httpReq.Header.Set("X-Title", "SubTran")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return result, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return result, fmt.Errorf("API returned status %d: %v", resp.StatusCode, errResp)
	}

	var openrouterResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&openrouterResp); err != nil {
		return result, fmt.Errorf("failed to decode response: %v", err)
	}

	if len(openrouterResp.Choices) == 0 {
		return result, fmt.Errorf("empty response from API")
	}

	items, err := decodeBatch(openrouterResp.Choices[0].Message.Content, len(req.Texts))
	if err != nil {
		return result, fmt.Errorf("model %s: %v", model, err)
	}

	result.Translations = restoreBatch(items, markers)
	return result, nil
}

func (s *OpenRouterService) IsAvailable(ctx context.Context) error {
	if s.apiKey == "" {
		return fmt.Errorf("OpenRouter API key not configured")
	}
	return nil
}

func (s *OpenRouterService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar", "uk"}, nil
}

func (s *OpenRouterService) GetModels() []string {
	return s.models
}
