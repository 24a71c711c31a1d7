package matchformat

// DefaultName is the conventional single-column format used when a
// worksheet's template type matches nothing else.
const DefaultName = "Standard 15s"

// PeriodColumn places one period's lineup in a worksheet column.
type PeriodColumn struct {
	Period int
	Column string
}

// Format is a named lineup layout.
type Format struct {
	ID             int64
	Name           string
	Periods        int
	PeriodDuration int
	PlayersOnPitch int
	SpreadsheetKey string
	Columns        []PeriodColumn
}
