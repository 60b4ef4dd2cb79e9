package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// MyMemoryService uses the free MyMemory HTTP API. The API takes one
// text per request, so a batch becomes a sequence of GET calls; items
// that fail are reported per slot so the rest of the batch survives.
type MyMemoryService struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemoryService(email string) *MyMemoryService {
	return &MyMemoryService{
		email:   email,
		baseURL: "https://api.mymemory.translated.net",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

func (s *MyMemoryService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req BatchRequest) (*BatchResult, error) {
	result := &BatchResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	sourceLang := req.SourceLang
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "en"
	}
	langPair := fmt.Sprintf("%s|%s", sourceLang, req.TargetLang)

	result.Translations = make([]string, len(req.Texts))
	result.Errors = make([]string, len(req.Texts))
	failed := 0

	for i, text := range req.Texts {
		translated, err := s.translateOne(ctx, text, langPair)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Errors[i] = err.Error()
			failed++
			continue
		}
		result.Translations[i] = translated
	}

	if failed == len(req.Texts) && failed > 0 {
		return result, fmt.Errorf("all %d items failed: %s", failed, result.Errors[0])
	}
	return result, nil
}

func (s *MyMemoryService) translateOne(ctx context.Context, text, langPair string) (string, error) {
	apiURL := fmt.Sprintf("%s/get?q=%s&langpair=%s",
		s.baseURL,
		url.QueryEscape(text),
		url.QueryEscape(langPair))

	if s.email != "" {
		apiURL += fmt.Sprintf("&de=%s", url.QueryEscape(s.email))
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var mymemResp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus  int    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&mymemResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}

	if mymemResp.ResponseStatus != 200 {
		return "", fmt.Errorf("API error: %s (%d)", mymemResp.ResponseDetails, mymemResp.ResponseStatus)
	}

	return mymemResp.ResponseData.TranslatedText, nil
}

func (s *MyMemoryService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *MyMemoryService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{
		"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh",
		"ar", "nl", "pl", "tr", "sv", "da", "no", "fi", "el", "he",
		"th", "vi", "id", "ms", "cs", "hu", "ro", "uk", "bg", "ca",
	}, nil
}
