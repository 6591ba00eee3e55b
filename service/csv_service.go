package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/usdc_batchpay/model"
	"github.com/usdc_batchpay/utils"
)

const maxImportRows = 100

var (
	ErrEmptyImport       = errors.New("import produced no usable rows")
	ErrTooManyRecipients = fmt.Errorf("import exceeds %d recipients", maxImportRows)
)

// SchemaError names the CSV column that the target list type requires but
// the header does not provide.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return "missing required column: " + e.Column
}

// Logical CSV columns and the header aliases that resolve to them.
// Matching is a case-insensitive substring test against the header cell.
const (
	colName       = "name"
	colAddress    = "address"
	colPercentage = "percentage"
	colAmount     = "amount"
)

var csvAliases = []struct {
	column  string
	aliases []string
}{
	{colName, []string{"name"}},
	{colAddress, []string{"address", "wallet"}},
	{colPercentage, []string{"percentage", "percent", "%"}},
	{colAmount, []string{"amount", "usdc", "dollar"}},
}

// ImportCandidate is one parsed CSV row. Invalid addresses do not abort the
// import; the row is tagged so the UI can surface it for correction.
type ImportCandidate struct {
	Name       string              `json:"name"`
	Address    string              `json:"address"`
	Percentage decimal.NullDecimal `json:"percentage"`
	Amount     decimal.NullDecimal `json:"amount"`
	IsValid    bool                `json:"isValid"`
}

type ImportResult struct {
	Candidates   []ImportCandidate `json:"candidates"`
	ValidCount   int               `json:"validCount"`
	InvalidCount int               `json:"invalidCount"`
}

// ParseRecipientsCSV parses raw CSV text against the column schema of the
// target list type. The first line is the header; rows whose address cell is
// empty are skipped. Fields are split on bare commas with surrounding quotes
// stripped; quoted commas are not supported.
func ParseRecipientsCSV(raw, listType string) (*ImportResult, error) {
	if !model.ValidListType(listType) {
		return nil, ErrInvalidListType
	}

	lines := splitLines(raw)
	if len(lines) == 0 {
		return nil, ErrEmptyImport
	}

	columns, err := resolveColumns(splitCSVLine(lines[0]), listType)
	if err != nil {
		return nil, err
	}

	rows := lines[1:]
	if len(rows) > maxImportRows {
		return nil, ErrTooManyRecipients
	}

	result := &ImportResult{}
	for _, line := range rows {
		cells := splitCSVLine(line)
		address := cellAt(cells, columns[colAddress])
		if address == "" {
			continue
		}
		candidate := ImportCandidate{Address: address}
		if idx, ok := columns[colName]; ok {
			candidate.Name = cellAt(cells, idx)
		}
		if listType == model.ListTypePercentage {
			candidate.Percentage = parseNullDecimal(cellAt(cells, columns[colPercentage]))
		}
		if listType == model.ListTypeVariable {
			candidate.Amount = parseNullDecimal(cellAt(cells, columns[colAmount]))
		}
		candidate.IsValid = model.ValidAddress(address)
		if candidate.IsValid {
			result.ValidCount++
		} else {
			result.InvalidCount++
		}
		result.Candidates = append(result.Candidates, candidate)
	}

	if len(result.Candidates) == 0 {
		return nil, ErrEmptyImport
	}
	return result, nil
}

// ExportRecipientsCSV serializes recipients as a two-column Name,Address CSV.
// Percentage and amount values are never exported, whatever the list type.
func ExportRecipientsCSV(recipients []model.SavedRecipient) string {
	var b strings.Builder
	b.WriteString("Name,Address\n")
	for _, r := range recipients {
		b.WriteString(r.Name)
		b.WriteByte(',')
		b.WriteString(r.Address)
		b.WriteByte('\n')
	}
	return b.String()
}

// CSVTemplate returns an example CSV whose columns match the list type.
// Purely illustrative; the addresses are well-formed but belong to nobody.
func CSVTemplate(listType string) (string, error) {
	var b strings.Builder
	switch listType {
	case model.ListTypeFixed:
		b.WriteString("Name,Address\n")
		b.WriteString("Alice," + utils.ExampleAddress(1) + "\n")
		b.WriteString("Bob," + utils.ExampleAddress(2) + "\n")
	case model.ListTypePercentage:
		b.WriteString("Name,Address,Percentage\n")
		b.WriteString("Alice," + utils.ExampleAddress(1) + ",60\n")
		b.WriteString("Bob," + utils.ExampleAddress(2) + ",40\n")
	case model.ListTypeVariable:
		b.WriteString("Name,Address,Amount\n")
		b.WriteString("Alice," + utils.ExampleAddress(1) + ",25.50\n")
		b.WriteString("Bob," + utils.ExampleAddress(2) + ",10\n")
	default:
		return "", ErrInvalidListType
	}
	return b.String(), nil
}

// resolveColumns maps logical columns to header indexes. The address column
// is always mandatory; percentage and amount become mandatory when the
// target list type owns them.
func resolveColumns(header []string, listType string) (map[string]int, error) {
	columns := make(map[string]int, len(csvAliases))
	for i, cell := range header {
		lower := strings.ToLower(cell)
		for _, def := range csvAliases {
			if _, taken := columns[def.column]; taken {
				continue
			}
			for _, alias := range def.aliases {
				if strings.Contains(lower, alias) {
					columns[def.column] = i
					break
				}
			}
		}
	}

	if _, ok := columns[colAddress]; !ok {
		return nil, &SchemaError{Column: colAddress}
	}
	if listType == model.ListTypePercentage {
		if _, ok := columns[colPercentage]; !ok {
			return nil, &SchemaError{Column: colPercentage}
		}
	}
	if listType == model.ListTypeVariable {
		if _, ok := columns[colAmount]; !ok {
			return nil, &SchemaError{Column: colAmount}
		}
	}
	return columns, nil
}

func splitLines(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitCSVLine splits on bare commas and strips surrounding quotes and
// whitespace from each cell. Escaped/quoted commas are not supported.
func splitCSVLine(line string) []string {
	cells := strings.Split(line, ",")
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		cell = strings.Trim(cell, `"'`)
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

func parseNullDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
