package commands

import (
	"fmt"
	"strings"

	"github.com/dalemusser/assessor/internal/app/system/distributor"
	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/dalemusser/assessor/internal/domain/models"
	"github.com/spf13/pflag"
)

// displayField is the pseudo roster field holding the display name.
const displayField = "@name"

type fillSpec struct {
	column string
	field  string
}

func addFillFlag(fs *pflag.FlagSet) *[]string {
	return fs.StringArray("fill", nil,
		"COLUMN=FIELD: set every cell of COLUMN to the participant's roster FIELD ("+displayField+" for the display name); repeatable")
}

func parseFill(specs []string) ([]fillSpec, error) {
	out := make([]fillSpec, 0, len(specs))
	for _, s := range specs {
		col, field, ok := strings.Cut(s, "=")
		col, field = strings.TrimSpace(col), strings.TrimSpace(field)
		if !ok || col == "" || field == "" {
			return nil, fmt.Errorf("%w: --fill wants COLUMN=FIELD, got %q", ErrUsage, s)
		}
		out = append(out, fillSpec{column: col, field: field})
	}
	return out, nil
}

// fillTransform personalises the payload from roster fields. It returns nil
// when there is nothing to fill.
func fillTransform(specs []fillSpec) distributor.Transform {
	if len(specs) == 0 {
		return nil
	}
	return func(p models.Participant, t models.Table) (models.Table, error) {
		for _, s := range specs {
			c := t.ColumnIndex(s.column)
			if c < 0 {
				return t, fmt.Errorf("fill column %q not in table", s.column)
			}
			v := p.Field(s.field)
			if s.field == displayField {
				v, _ = roster.DisplayName(p)
			}
			for i, row := range t.Rows {
				for len(row) <= c {
					row = append(row, "")
				}
				row[c] = v
				t.Rows[i] = row
			}
		}
		return t, nil
	}
}
