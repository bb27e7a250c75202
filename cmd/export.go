/*
Copyright © 2025 eslsoft

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/wordpace/internal/infrastructure/config"
	"github.com/eslsoft/wordpace/internal/usecase/backup"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the database as an NDJSON backup",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		outputPath, _ := cmd.Flags().GetString("output")
		gzipEnabled, _ := cmd.Flags().GetBool("gzip")
		tables, _ := cmd.Flags().GetStringSlice("tables")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if outputPath == "" {
			outputPath = defaultExportFilename(gzipEnabled)
		}
		if !gzipEnabled && outputPath != "-" && strings.HasSuffix(strings.ToLower(outputPath), ".gz") {
			gzipEnabled = true
		}

		service, err := backup.NewService("postgres", cfg.DatabaseURL())
		if err != nil {
			return fmt.Errorf("build backup service: %w", err)
		}

		var (
			writer   = cmd.OutOrStdout()
			closeFns []func() error
		)

		if outputPath != "-" {
			if dir := filepath.Dir(outputPath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			file, openErr := os.Create(outputPath)
			if openErr != nil {
				return fmt.Errorf("create backup file: %w", openErr)
			}
			writer = file
			closeFns = append(closeFns, file.Close)
		}

		if gzipEnabled {
			gz := gzip.NewWriter(writer)
			writer = gz
			closeFns = append([]func() error{gz.Close}, closeFns...)
		}

		defer func() {
			for _, closer := range closeFns {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		if err := service.Export(cmd.Context(), writer, tables...); err != nil {
			return fmt.Errorf("export backup: %w", err)
		}

		if outputPath == "-" {
			cmd.PrintErrln("export written to stdout")
		} else {
			cmd.Printf("export written to %s\n", outputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "backup file path, use - for stdout")
	exportCmd.Flags().Bool("gzip", false, "compress the output with gzip")
	exportCmd.Flags().StringSlice("tables", nil, "export only the listed tables")
}

func defaultExportFilename(gzipEnabled bool) string {
	ts := time.Now().UTC().Format("20060102-150405")
	filename := fmt.Sprintf("wordpace-backup-%s.jsonl", ts)
	if gzipEnabled {
		filename += ".gz"
	}
	return filename
}
