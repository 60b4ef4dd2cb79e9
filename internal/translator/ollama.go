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

var DefaultOllamaModels = []string{
	"llama3.2",
	"gemma2:2b",
	"qwen2.5:3b",
	"mistral:7b",
}

// OllamaTranslator translates batches through a self-hosted Ollama
// instance using the JSON-array protocol.
type OllamaTranslator struct {
	baseURL string
	models  []string
	client  *http.Client
}

func NewOllamaTranslator(baseURL string, models []string) *OllamaTranslator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if len(models) == 0 {
		models = DefaultOllamaModels
	}
	return &OllamaTranslator{
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OllamaTranslator) Name() string {
	return "ollama"
}

func (s *OllamaTranslator) getRandomModel() string {
	if len(s.models) == 0 {
		return "llama3.2"
	}
	return s.models[rand.Intn(len(s.models))]
}

func (s *OllamaTranslator) SetModels(models []string) {
	if len(models) > 0 {
		s.models = models
	}
}

func (s *OllamaTranslator) TranslateBatch(ctx context.Context, cfg ServiceConfig, req BatchRequest) (*BatchResult, error) {
	result := &BatchResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	model := cfg.Model
	if model == "" {
		model = s.getRandomModel()
	}

	protected, markers := protectBatch(req.Texts)
	payload, err := json.Marshal(protected)
	if err != nil {
		return result, fmt.Errorf("failed to marshal texts: %v", err)
	}

	prompt := buildBatchSystemPrompt(req.SourceLang, req.TargetLang, len(req.Texts)) +
		"\n\n" + string(payload)

	ollamaReq := map[string]interface{}{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	}

	jsonData, err := json.Marshal(ollamaReq)
	if err != nil {
		return result, fmt.Errorf("failed to marshal request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/api/generate", s.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return result, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return result, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return result, fmt.Errorf("failed to decode response: %v", err)
	}

	items, err := decodeBatch(ollamaResp.Response, len(req.Texts))
	if err != nil {
		return result, fmt.Errorf("model %s: %v", model, err)
	}

	result.Translations = restoreBatch(items, markers)
	return result, nil
}

func (s *OllamaTranslator) IsAvailable(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama not reachable at %s: %v", s.baseURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *OllamaTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar", "uk"}, nil
}
