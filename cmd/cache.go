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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/subtran/internal/store"
)

var (
	cacheDBPath   string
	jobsListLimit int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation memory cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached segment translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(cacheDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		n, err := db.ClearMemory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear memory: %w", err)
		}
		fmt.Printf("Removed %d cached segments\n", n)
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent translation jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(cacheDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		jobs, err := db.ListJobs(context.Background(), jobsListLimit)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}

		if len(jobs) == 0 {
			fmt.Println("No jobs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tINPUT\tLANGS\tSEGMENTS\tFAILED\tCACHED\tSTATUS")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s->%s\t%d\t%d\t%d\t%s\n",
				j.CreatedAt.Format("2006-01-02 15:04"), j.InputFile,
				j.SourceLang, j.TargetLang,
				j.Segments, j.Failed, j.Cached, j.Status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(jobsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheDBPath, "db", "./data/subtran.db", "Database path for translation memory")
	jobsCmd.Flags().StringVar(&cacheDBPath, "db", "./data/subtran.db", "Database path for translation memory")
	jobsCmd.Flags().IntVarP(&jobsListLimit, "limit", "n", 20, "Number of jobs to show")
}
