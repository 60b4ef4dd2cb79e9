/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/valpere/subtran/internal/config"
	"github.com/valpere/subtran/internal/dispatch"
	"github.com/valpere/subtran/internal/translator"
)

// serviceNames lists the recognizable backend names for help text and
// the services command.
var serviceNames = []string{"google", "mymemory", "ollama", "openrouter"}

// buildService constructs the selected translation backend from the
// loaded options.
func buildService(name string, opts *config.Options) (translator.TranslationService, error) {
	switch name {
	case "google":
		return translator.NewGoogleService(), nil
	case "mymemory":
		return translator.NewMyMemoryService(opts.Services.MyMemoryEmail), nil
	case "ollama":
		return translator.NewOllamaTranslator(opts.Services.OllamaURL, opts.Services.OllamaModels), nil
	case "openrouter":
		return translator.NewOpenRouterService(opts.Services.OpenRouterKey, "", opts.Services.OpenRouterModels), nil
	default:
		return nil, &config.ConfigError{Option: "service", Msg: fmt.Sprintf("unknown service %q", name)}
	}
}

func serviceConfig(opts *config.Options) translator.ServiceConfig {
	return translator.ServiceConfig{
		Credentials: opts.Services.Credentials,
		ProjectID:   opts.Services.ProjectID,
		APIKey:      opts.Services.OpenRouterKey,
	}
}

func dispatchConfig(opts *config.Options) dispatch.Config {
	return dispatch.Config{
		MaxBatchSize:   opts.MaxBatchSize,
		MaxBatchChars:  opts.MaxBatchChars,
		MaxConcurrency: opts.MaxConcurrency,
		MaxAttempts:    opts.RetryCount,
		RetryDelay:     opts.RetryDelay,
		RatePerSecond:  opts.RateLimit,
	}
}
