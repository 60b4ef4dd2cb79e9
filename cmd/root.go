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
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var cfgFile string

// errPartial marks a run that produced a complete output file but left
// some segments untranslated. Execute maps it to exit code 2.
var errPartial = errors.New("some segments failed to translate")

var rootCmd = &cobra.Command{
	Use:   "subtran",
	Short: "Structure-preserving subtitle and XLIFF translator",
	Long: `Translate subtitle files (SRT, WebVTT) and XLIFF localization files
while preserving every structural byte: cue timings and indices, XML tags
and attributes, blank lines and line endings. Only the translatable text
changes; the structural skeleton survives bit-for-bit.

Supported backends: Google Translate, MyMemory, Ollama, OpenRouter.

Use "subtran translate --help" for translation options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errPartial) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./subtran.yaml)")
}
