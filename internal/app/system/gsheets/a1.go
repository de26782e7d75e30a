package gsheets

import (
	"fmt"
	"strconv"
	"strings"
)

// columnLetter converts a 1-based column number to its A1 letters
// (1 -> A, 26 -> Z, 27 -> AA).
func columnLetter(n int) string {
	if n < 1 {
		return ""
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// quoteSheet quotes a worksheet title for use in an A1 range.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// cellRange addresses the single cell at (row, column), both 1-based.
func cellRange(sheet string, row, column int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), columnLetter(column), row)
}

// rowRange addresses the block starting at column A of row.
func rowRange(sheet string, row int) string {
	return quoteSheet(sheet) + "!A" + strconv.Itoa(row)
}

// sheetRange addresses the whole worksheet.
func sheetRange(sheet string) string {
	return quoteSheet(sheet)
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		vals := make([]interface{}, len(r))
		for j, c := range r {
			vals[j] = c
		}
		out[i] = vals
	}
	return out
}

func fromValues(rows [][]interface{}) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		cells := make([]string, len(r))
		for j, c := range r {
			if c != nil {
				cells[j] = fmt.Sprint(c)
			}
		}
		out[i] = cells
	}
	return out
}
