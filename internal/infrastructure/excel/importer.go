// Package excel imports learning items in bulk from spreadsheet files
// prepared by the content team. Both .xlsx and .csv files are accepted.
package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/eslsoft/wordpace/internal/entity"
	"github.com/eslsoft/wordpace/internal/repository"
)

// Expected column layout, left to right:
// term, translation, language, difficulty,
// article/phonetic/compound/case complexity coefficients (optional).

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath        string
	SheetName       string
	StartRow        int // 1-based; rows before it are skipped
	DefaultLanguage entity.Language
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName:       "Sheet1",
		StartRow:        2, // skip the header row
		DefaultLanguage: entity.LanguageEnglish,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportItems imports learning items from an Excel or CSV file. Rows whose
// term already exists for the language are skipped; malformed rows are
// reported in the result without aborting the import.
func ImportItems(ctx context.Context, items repository.ItemRepository, config ImportConfig) (*ImportResult, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	rows, err := readRows(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	now := time.Now()
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		item, err := parseRow(row, config.DefaultLanguage)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		item.Normalize(now)

		existing, err := items.FindByTerm(ctx, item.Term, item.Language)
		if err != nil {
			return result, fmt.Errorf("row %d: lookup %q: %w", i+1, item.Term, err)
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		if _, err := items.Create(ctx, item); err != nil {
			if errors.Is(err, entity.ErrDuplicateItem) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("row %d: create %q: %w", i+1, item.Term, err)
		}
		result.Created++
	}
	return result, nil
}

func readRows(config ImportConfig) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(config.FilePath), ".csv") {
		return readCSV(config.FilePath)
	}
	return readExcel(config)
}

func readExcel(config ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", config.SheetName, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func parseRow(row []string, defaultLang entity.Language) (*entity.LearningItem, error) {
	term := cell(row, 0)
	translation := cell(row, 1)
	if term == "" || translation == "" {
		return nil, fmt.Errorf("%w: term and translation are required", entity.ErrInvalidItemTerm)
	}

	lang := entity.ParseLanguage(cell(row, 2))
	if lang == entity.LanguageUnspecified {
		lang = defaultLang
	}

	item := &entity.LearningItem{
		Term:        term,
		Translation: translation,
		Language:    lang,
		Difficulty:  entity.ParseDifficulty(cell(row, 3)),
	}

	var err error
	if item.Complexity.Article, err = coefficient(row, 4); err != nil {
		return nil, err
	}
	if item.Complexity.Phonetic, err = coefficient(row, 5); err != nil {
		return nil, err
	}
	if item.Complexity.Compound, err = coefficient(row, 6); err != nil {
		return nil, err
	}
	if item.Complexity.Case, err = coefficient(row, 7); err != nil {
		return nil, err
	}
	return item, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func coefficient(row []string, idx int) (float64, error) {
	raw := cell(row, idx)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid complexity coefficient %q", raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative complexity coefficient %q", raw)
	}
	return value, nil
}
