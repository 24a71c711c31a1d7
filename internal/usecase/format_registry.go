package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/team-sheet-sync/internal/domain/matchformat"
)

const fallbackLineupColumn = "B"

// Layout is a resolved lineup layout. Format is nil when the hard-coded
// fallback was used.
type Layout struct {
	Format  *matchformat.Format
	Name    string
	Columns []matchformat.PeriodColumn
}

func (l Layout) FormatID() *int64 {
	if l.Format == nil || l.Format.ID == 0 {
		return nil
	}
	id := l.Format.ID
	return &id
}

func (l Layout) Periods() int {
	maxPeriod := 0
	for _, c := range l.Columns {
		if c.Period > maxPeriod {
			maxPeriod = c.Period
		}
	}
	return maxPeriod
}

// FormatRegistry resolves a worksheet's template type to a layout. Formats are
// matched in the order given.
type FormatRegistry struct {
	formats []matchformat.Format
}

func NewFormatRegistry(formats []matchformat.Format) *FormatRegistry {
	return &FormatRegistry{formats: append([]matchformat.Format(nil), formats...)}
}

func LoadFormatRegistry(ctx context.Context, repo matchformat.Repository) (*FormatRegistry, error) {
	formats, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list match formats: %w", err)
	}
	return NewFormatRegistry(formats), nil
}

// Resolve never fails. It tries, in order: the first format whose non-empty
// spreadsheet key occurs in templateType, the "Standard 15s" format, and a
// single period read from column B.
func (r *FormatRegistry) Resolve(templateType string) Layout {
	template := strings.TrimSpace(templateType)
	if template != "" {
		for i := range r.formats {
			key := strings.TrimSpace(r.formats[i].SpreadsheetKey)
			if key == "" || !strings.Contains(template, key) {
				continue
			}
			if layout, ok := layoutFromFormat(&r.formats[i]); ok {
				return layout
			}
		}
	}

	for i := range r.formats {
		if r.formats[i].Name != matchformat.DefaultName {
			continue
		}
		if layout, ok := layoutFromFormat(&r.formats[i]); ok {
			return layout
		}
	}

	return Layout{
		Name:    matchformat.DefaultName,
		Columns: []matchformat.PeriodColumn{{Period: 1, Column: fallbackLineupColumn}},
	}
}

func layoutFromFormat(f *matchformat.Format) (Layout, bool) {
	columns := make([]matchformat.PeriodColumn, 0, len(f.Columns))
	for _, c := range f.Columns {
		if c.Period < 1 || ColumnLetterToIndex(c.Column) < 0 {
			continue
		}
		columns = append(columns, c)
	}
	if len(columns) == 0 {
		return Layout{}, false
	}
	return Layout{Format: f, Name: f.Name, Columns: columns}, true
}
