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
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valpere/subtran/internal/assembler"
	"github.com/valpere/subtran/internal/config"
	"github.com/valpere/subtran/internal/dispatch"
	"github.com/valpere/subtran/internal/format"
	"github.com/valpere/subtran/internal/pipeline"
	"github.com/valpere/subtran/internal/store"
)

var (
	trSourceLang    string
	trFormat        string
	trService       string
	trBatchSize     int
	trConcurrency   int
	trMaxRetries    int
	trRateLimit     float64
	trFailurePolicy string
	trFailOnPartial bool
	trDBPath        string
	trNoCache       bool

	trCredentials      string
	trProjectID        string
	trOllamaURL        string
	trOllamaModels     []string
	trOpenrouterKey    string
	trOpenrouterModels []string
	trMymemoryEmail    string
)

var translateCmd = &cobra.Command{
	Use:   "translate <source-file> <destination-file> <target-language>",
	Short: "Translate one document, preserving its structure",
	Long: `Translate a subtitle or XLIFF file into the target language.

The format is picked from the file extension (.srt/.vtt/.sub for
subtitles, .xlf/.xliff/.xml for XLIFF); override it with --format.
Timing lines, cue indices, XML tags and whitespace are emitted
byte-for-byte; only the translatable text changes.

Segments that still fail after retries are kept in the source language
(or visibly marked with --failure-policy mark-failed); the output file
is always complete and structurally valid. Use --fail-on-partial to get
exit code 2 when any segment failed.

Example:
  subtran translate episode01.srt episode01.uk.srt uk
  subtran translate app.xlf app.de.xlf de --service ollama`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceFile, destFile, targetLang := args[0], args[1], args[2]
		if sourceFile == destFile {
			return fmt.Errorf("source file and destination file cannot be the same")
		}

		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}

		if err := config.ValidateLanguage("target language", targetLang); err != nil {
			return err
		}
		if err := config.ValidateLanguage("source language", trSourceLang); err != nil {
			return err
		}

		var parser format.Parser
		if trFormat != "" {
			parser, err = format.ByName(trFormat)
		} else {
			parser, err = format.ForFile(sourceFile)
		}
		if err != nil {
			return err
		}

		policy, err := assembler.ParsePolicy(opts.FailurePolicy)
		if err != nil {
			return &config.ConfigError{Option: "failure_policy", Msg: err.Error()}
		}

		svc, err := buildService(opts.Service, opts)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(sourceFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var db *store.Store
		jobID := ""
		if !opts.NoCache && opts.DBPath != "" {
			db, err = store.New(opts.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			jobID, _ = db.CreateJob(ctx, sourceFile, destFile, parser.Name(), trSourceLang, targetLang)
		}

		disp := dispatch.New(svc, serviceConfig(opts), dispatchConfig(opts))
		if db != nil {
			disp.UseMemory(db)
		}

		pipe := pipeline.New(parser, disp, policy)
		out, report, err := pipe.Run(ctx, data, trSourceLang, targetLang)
		if err != nil {
			if db != nil && jobID != "" {
				_ = db.FinishJob(context.Background(), jobID, report.Segments, report.Translated, report.Failed, report.Cached, "failed")
			}
			return err
		}

		if err := os.MkdirAll(filepath.Dir(destFile), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(destFile, out, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}

		status := "done"
		if report.Failed > 0 {
			status = "partial"
		}
		if db != nil && jobID != "" {
			_ = db.FinishJob(ctx, jobID, report.Segments, report.Translated, report.Failed, report.Cached, status)
		}

		fmt.Fprintf(os.Stderr, "%s: %s\n", sourceFile, report)
		if report.FullSuccess() {
			fmt.Printf("Successfully translated %s to %s\n", sourceFile, targetLang)
		} else {
			fmt.Printf("Translated %s to %s with %d untranslated segments\n", sourceFile, targetLang, report.Failed)
			if trFailOnPartial {
				return errPartial
			}
		}
		return nil
	},
}

// loadOptions reads the layered configuration and applies any flag the
// user set on this invocation on top of it.
func loadOptions(cmd *cobra.Command) (*config.Options, error) {
	opts, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("service") {
		opts.Service = trService
	}
	if flags.Changed("batch-size") {
		opts.MaxBatchSize = trBatchSize
	}
	if flags.Changed("concurrency") {
		opts.MaxConcurrency = trConcurrency
	}
	if flags.Changed("max-retries") {
		opts.RetryCount = trMaxRetries
	}
	if flags.Changed("rate-limit") {
		opts.RateLimit = trRateLimit
	}
	if flags.Changed("failure-policy") {
		opts.FailurePolicy = trFailurePolicy
	}
	if flags.Changed("db") {
		opts.DBPath = trDBPath
	}
	if flags.Changed("no-cache") {
		opts.NoCache = trNoCache
	}
	if flags.Changed("credentials") {
		opts.Services.Credentials = trCredentials
	}
	if flags.Changed("project") {
		opts.Services.ProjectID = trProjectID
	}
	if flags.Changed("ollama-url") {
		opts.Services.OllamaURL = trOllamaURL
	}
	if flags.Changed("ollama-models") {
		opts.Services.OllamaModels = trOllamaModels
	}
	if flags.Changed("openrouter-key") {
		opts.Services.OpenRouterKey = trOpenrouterKey
	}
	if flags.Changed("openrouter-models") {
		opts.Services.OpenRouterModels = trOpenrouterModels
	}
	if flags.Changed("mymemory-email") {
		opts.Services.MyMemoryEmail = trMymemoryEmail
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func addTranslateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&trSourceLang, "source-lang", "s", "auto", "Source language code")
	cmd.Flags().StringVarP(&trFormat, "format", "f", "", "Input format: subtitle or xliff (default: by extension)")
	cmd.Flags().StringVar(&trService, "service", "google", "Translation backend: "+fmt.Sprint(serviceNames))
	cmd.Flags().IntVar(&trBatchSize, "batch-size", dispatch.DefaultMaxBatchSize, "Segments per backend call")
	cmd.Flags().IntVar(&trConcurrency, "concurrency", dispatch.DefaultMaxConcurrency, "Concurrent in-flight backend calls")
	cmd.Flags().IntVar(&trMaxRetries, "max-retries", dispatch.DefaultMaxAttempts, "Total attempts per batch including the first (1 = no retries)")
	cmd.Flags().Float64Var(&trRateLimit, "rate-limit", 0, "Backend calls per second (0 = unlimited)")
	cmd.Flags().StringVar(&trFailurePolicy, "failure-policy", "keep-source", "What failed segments become: keep-source or mark-failed")
	cmd.Flags().BoolVar(&trFailOnPartial, "fail-on-partial", false, "Exit with code 2 when any segment failed")
	cmd.Flags().StringVar(&trDBPath, "db", "./data/subtran.db", "Database path for translation memory")
	cmd.Flags().BoolVar(&trNoCache, "no-cache", false, "Disable translation memory cache")

	cmd.Flags().StringVarP(&trCredentials, "credentials", "c", "", "Path to Google Cloud credentials")
	cmd.Flags().StringVarP(&trProjectID, "project", "p", "", "Google Cloud Project ID")
	cmd.Flags().StringVar(&trOllamaURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	cmd.Flags().StringSliceVar(&trOllamaModels, "ollama-models", nil, "Ollama models to rotate (default list used if empty)")
	cmd.Flags().StringVar(&trOpenrouterKey, "openrouter-key", "", "OpenRouter API key")
	cmd.Flags().StringSliceVar(&trOpenrouterModels, "openrouter-models", nil, "OpenRouter models to rotate (default list used if empty)")
	cmd.Flags().StringVar(&trMymemoryEmail, "mymemory-email", "", "MyMemory email (for higher limits)")
}

func init() {
	rootCmd.AddCommand(translateCmd)
	addTranslateFlags(translateCmd)
}
