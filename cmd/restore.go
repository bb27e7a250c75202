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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eslsoft/wordpace/internal/infrastructure/config"
	"github.com/eslsoft/wordpace/internal/usecase/backup"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore the database from an NDJSON backup",
	Long: `restore replaces the contents of the scheduler tables with the rows
from a backup produced by the export command. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		tables, _ := cmd.Flags().GetStringSlice("tables")
		inputPath := args[0]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		service, err := backup.NewService("postgres", cfg.DatabaseURL())
		if err != nil {
			return fmt.Errorf("build backup service: %w", err)
		}

		var (
			reader   io.Reader = cmd.InOrStdin()
			closeFns []func() error
		)

		if inputPath != "-" {
			file, openErr := os.Open(inputPath)
			if openErr != nil {
				return fmt.Errorf("open backup file: %w", openErr)
			}
			reader = file
			closeFns = append(closeFns, file.Close)
		}

		defer func() {
			for _, closer := range closeFns {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		reader, err = maybeGunzip(reader)
		if err != nil {
			return fmt.Errorf("read backup header: %w", err)
		}

		if err := service.Restore(cmd.Context(), reader, tables...); err != nil {
			return fmt.Errorf("restore backup: %w", err)
		}

		cmd.Println("restore complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringSlice("tables", nil, "restore only the listed tables")
}

// maybeGunzip sniffs the gzip magic bytes so both plain and compressed
// backups restore without a flag.
func maybeGunzip(r io.Reader) (io.Reader, error) {
	buffered := bufio.NewReader(r)
	header, err := buffered.Peek(2)
	if err != nil {
		if err == io.EOF {
			return buffered, nil
		}
		return nil, err
	}
	if header[0] == 0x1f && header[1] == 0x8b {
		return gzip.NewReader(buffered)
	}
	return buffered, nil
}
