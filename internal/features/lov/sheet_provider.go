package lov

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

// sheetProvider reads parallel key and label ranges from a spreadsheet file.
// Ranges use the "Sheet1!A2:A50" form; the orientation declares whether each
// range runs down a column (default) or across a row.
type sheetProvider struct {
	source *workflow.LovSheetSource
}

func (p *sheetProvider) Fetch(ctx context.Context) ([]Entry, error) {
	file, err := excelize.OpenFile(p.source.File)
	if err != nil {
		return nil, fmt.Errorf("lov sheet %s: %w", p.source.File, err)
	}
	defer file.Close()

	keys, err := readRange(file, p.source.KeyRange, p.source.Orientation)
	if err != nil {
		return nil, err
	}
	labels, err := readRange(file, p.source.LabelRange, p.source.Orientation)
	if err != nil {
		return nil, err
	}
	if len(keys) != len(labels) {
		return nil, fmt.Errorf("lov sheet ranges %q and %q differ in length (%d vs %d)",
			p.source.KeyRange, p.source.LabelRange, len(keys), len(labels))
	}

	entries := make([]Entry, 0, len(keys))
	for i := range keys {
		if keys[i] == "" {
			continue
		}
		entries = append(entries, Entry{Key: keys[i], Label: labels[i]})
	}
	return entries, nil
}

func readRange(file *excelize.File, rangeRef, orientation string) ([]string, error) {
	sheet, start, end, err := parseRange(rangeRef)
	if err != nil {
		return nil, err
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", rangeRef, err)
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", rangeRef, err)
	}

	var cells []string
	if orientation == "rows" {
		if startRow != endRow {
			return nil, fmt.Errorf("range %q spans multiple rows", rangeRef)
		}
		for col := startCol; col <= endCol; col++ {
			cells = append(cells, mustCellName(col, startRow))
		}
	} else {
		if startCol != endCol {
			return nil, fmt.Errorf("range %q spans multiple columns", rangeRef)
		}
		for row := startRow; row <= endRow; row++ {
			cells = append(cells, mustCellName(startCol, row))
		}
	}

	values := make([]string, 0, len(cells))
	for _, cell := range cells {
		value, err := file.GetCellValue(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("range %q cell %s: %w", rangeRef, cell, err)
		}
		values = append(values, strings.TrimSpace(value))
	}
	return values, nil
}

func parseRange(rangeRef string) (sheet, start, end string, err error) {
	bang := strings.LastIndex(rangeRef, "!")
	if bang < 1 {
		return "", "", "", fmt.Errorf("range %q is missing its sheet name", rangeRef)
	}
	sheet = strings.Trim(rangeRef[:bang], "'")

	cells := strings.SplitN(rangeRef[bang+1:], ":", 2)
	start = cells[0]
	end = start
	if len(cells) == 2 {
		end = cells[1]
	}
	return sheet, start, end, nil
}

func mustCellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
