package translator

import (
	"context"
	"time"
)

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
}

// BatchRequest carries one batch of segment texts. All texts share the
// same language pair; order is significant only within the request.
type BatchRequest struct {
	Texts      []string `json:"texts"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

// BatchResult is the backend's answer for one BatchRequest. On success
// Translations is aligned index-for-index with the request texts.
// Errors, when non-nil, is aligned the same way; an empty string means
// that item succeeded. A backend that cannot report per-item failures
// either fills every slot or returns an error for the whole call.
type BatchResult struct {
	ServiceName  string        `json:"service_name"`
	Translations []string      `json:"translations"`
	Errors       []string      `json:"errors,omitempty"`
	Latency      time.Duration `json:"latency"`
}

// ItemError returns the error recorded for item i, or "".
func (r *BatchResult) ItemError(i int) string {
	if r == nil || i >= len(r.Errors) {
		return ""
	}
	return r.Errors[i]
}

// TranslationService is a translation backend capable of translating a
// batch of independent texts in one call. Implementations hold no
// per-request mutable state; the same request may be retried safely.
type TranslationService interface {
	Name() string
	TranslateBatch(ctx context.Context, cfg ServiceConfig, req BatchRequest) (*BatchResult, error)
	IsAvailable(ctx context.Context) error
	SupportedLanguages(ctx context.Context) ([]string, error)
}
