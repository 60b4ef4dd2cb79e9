package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService translates through the Cloud Translation API. The API
// accepts a slice of inputs per call, so a whole batch goes over the
// wire as one request.
type GoogleService struct{}

func NewGoogleService() *GoogleService {
	return &GoogleService{}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req BatchRequest) (*BatchResult, error) {
	result := &BatchResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetLangTag, err := language.Parse(req.TargetLang)
	if err != nil {
		return result, fmt.Errorf("invalid target language: %v", err)
	}

	opts := []option.ClientOption{}
	if cfg.Credentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return result, fmt.Errorf("failed to create client: %v", err)
	}
	defer client.Close()

	var translations []translate.Translation
	if req.SourceLang == "" || req.SourceLang == "auto" {
		translations, err = client.Translate(ctx, req.Texts, targetLangTag, nil)
	} else {
		sourceLangTag, _ := language.Parse(req.SourceLang)
		translations, err = client.Translate(ctx, req.Texts, targetLangTag, &translate.Options{
			Source: sourceLangTag,
		})
	}

	if err != nil {
		return result, fmt.Errorf("translation failed: %v", err)
	}

	if len(translations) != len(req.Texts) {
		return result, fmt.Errorf("expected %d translations, got %d", len(req.Texts), len(translations))
	}

	result.Translations = make([]string, len(translations))
	for i, tr := range translations {
		result.Translations[i] = tr.Text
	}

	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *GoogleService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return nil, nil
}
