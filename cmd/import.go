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
	"fmt"

	"github.com/spf13/cobra"

	adapterrepo "github.com/eslsoft/wordpace/internal/adapter/repository"
	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/infrastructure/config"
	infraDB "github.com/eslsoft/wordpace/internal/infrastructure/database"
	"github.com/eslsoft/wordpace/internal/infrastructure/excel"
)

// importCmd bulk-loads learning items from a spreadsheet
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import learning items from an Excel or CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sheet, _ := cmd.Flags().GetString("sheet")
		startRow, _ := cmd.Flags().GetInt("start-row")
		language, _ := cmd.Flags().GetString("language")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		pool, cleanup, err := infraDB.NewConnection(cfg)
		if err != nil {
			if cleanup != nil {
				cleanup()
			}
			return fmt.Errorf("db connect: %w", err)
		}
		defer cleanup()

		importCfg := excel.DefaultImportConfig()
		importCfg.FilePath = args[0]
		if sheet != "" {
			importCfg.SheetName = sheet
		}
		if startRow > 0 {
			importCfg.StartRow = startRow
		}
		if language != "" {
			lang := entity.ParseLanguage(language)
			if lang == entity.LanguageUnspecified {
				return fmt.Errorf("unsupported language %q", language)
			}
			importCfg.DefaultLanguage = lang
		}

		items := adapterrepo.NewItemRepository(pool)
		result, err := excel.ImportItems(cmd.Context(), items, importCfg)
		if err != nil {
			return fmt.Errorf("import items: %w", err)
		}

		cmd.Printf("processed %d rows: %d created, %d skipped\n",
			result.TotalProcessed, result.Created, result.Skipped)
		for _, rowErr := range result.Errors {
			cmd.PrintErrln(rowErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("sheet", "", "sheet name for Excel files (default Sheet1)")
	importCmd.Flags().Int("start-row", 0, "first data row, 1-based (default 2, skipping the header)")
	importCmd.Flags().String("language", "", "fallback language code for rows without one")
}
