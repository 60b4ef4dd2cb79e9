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
	batchOutDir     string
	batchTargetLang string
)

var batchCmd = &cobra.Command{
	Use:   "batch -t <target-language> -o <output-dir> <files...>",
	Short: "Translate multiple documents independently",
	Long: `Translate several files in one invocation. Each file runs through its
own pipeline: a parse failure in one file is reported and the rest
continue. Output files keep their input names under the output
directory.

Example:
  subtran batch -t uk -o translated/ ep01.srt ep02.srt app.xlf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		if err := config.ValidateLanguage("target language", batchTargetLang); err != nil {
			return err
		}
		if err := config.ValidateLanguage("source language", trSourceLang); err != nil {
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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var db *store.Store
		if !opts.NoCache && opts.DBPath != "" {
			db, err = store.New(opts.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		disp := dispatch.New(svc, serviceConfig(opts), dispatchConfig(opts))
		if db != nil {
			disp.UseMemory(db)
		}

		if err := os.MkdirAll(batchOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		var totals pipeline.Report
		filesFailed := 0

		for _, sourceFile := range args {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			destFile := filepath.Join(batchOutDir, filepath.Base(sourceFile))
			report, err := translateFile(ctx, sourceFile, destFile, batchTargetLang, opts, disp, db, policy)

			totals.Segments += report.Segments
			totals.Translated += report.Translated
			totals.Failed += report.Failed
			totals.Cached += report.Cached

			if err != nil {
				filesFailed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", sourceFile, err)
				continue
			}
			fmt.Fprintf(os.Stderr, "%s: %s\n", sourceFile, report)
		}

		fmt.Printf("Processed %d files (%d failed): %s\n", len(args), filesFailed, totals)

		if filesFailed > 0 {
			return fmt.Errorf("%d of %d files failed", filesFailed, len(args))
		}
		if totals.Failed > 0 && trFailOnPartial {
			return errPartial
		}
		return nil
	},
}

// translateFile runs one independent pipeline pass and writes the
// destination file only on success.
func translateFile(ctx context.Context, sourceFile, destFile, targetLang string, opts *config.Options, disp *dispatch.Dispatcher, db *store.Store, policy assembler.Policy) (pipeline.Report, error) {
	var report pipeline.Report

	parser, err := format.ForFile(sourceFile)
	if err != nil {
		return report, err
	}

	data, err := os.ReadFile(sourceFile)
	if err != nil {
		return report, fmt.Errorf("failed to read input file: %w", err)
	}

	jobID := ""
	if db != nil {
		jobID, _ = db.CreateJob(ctx, sourceFile, destFile, parser.Name(), trSourceLang, targetLang)
	}

	pipe := pipeline.New(parser, disp, policy)
	out, report, err := pipe.Run(ctx, data, trSourceLang, targetLang)
	if err != nil {
		if db != nil && jobID != "" {
			_ = db.FinishJob(context.Background(), jobID, report.Segments, report.Translated, report.Failed, report.Cached, "failed")
		}
		return report, err
	}

	if err := os.WriteFile(destFile, out, 0644); err != nil {
		return report, fmt.Errorf("failed to write output file: %w", err)
	}

	status := "done"
	if report.Failed > 0 {
		status = "partial"
	}
	if db != nil && jobID != "" {
		_ = db.FinishJob(ctx, jobID, report.Segments, report.Translated, report.Failed, report.Cached, status)
	}
	return report, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchOutDir, "output-dir", "o", "translated", "Directory for translated files")
	batchCmd.Flags().StringVarP(&batchTargetLang, "target", "t", "", "Target language code (required)")
	batchCmd.MarkFlagRequired("target")
	addTranslateFlags(batchCmd)
}
