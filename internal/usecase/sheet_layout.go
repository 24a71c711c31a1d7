package usecase

import (
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Selection worksheet layout, zero-based.
const (
	fixtureNameRow     = 0
	fixtureHomeAwayRow = 1
	fixtureStatusRow   = 2
	fixtureDateRow     = 3
	fixtureFirstColumn = 14 // "O"
	playerFirstRow     = 4  // spreadsheet row 5
	playerNameColumn   = 2  // "C"
)

// Match worksheet layout, zero-based.
const (
	lineupWindow       = "A1:AZ60"
	templateTypeRow    = 0
	templateTypeColumn = 1 // "B1"
	metadataColumn     = 1
	kickoffRow         = 1 // B2
	meetTimeRow        = 2 // B3
	locationRow        = 3 // B4
	sheetTitleRow      = 4 // B5
	starterFirstRow    = 4
	starterLastRow     = 18
	finisherFirstRow   = 19
	finisherLastRow    = 33
)

// Grid is a worksheet read as rows of plain strings. Rows may be ragged.
type Grid [][]string

// Cell returns the raw value, or "" when the cell is absent.
func (g Grid) Cell(row, col int) string {
	if row < 0 || col < 0 || row >= len(g) {
		return ""
	}
	r := g[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

func (g Grid) Row(row int) []string {
	if row < 0 || row >= len(g) {
		return nil
	}
	return g[row]
}

func (g Grid) Empty() bool {
	for _, row := range g {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return false
			}
		}
	}
	return true
}

// ColumnLetterToIndex converts "A" to 0, "Z" to 25, "AA" to 26. Characters
// outside A-Z are ignored; an empty or invalid letter yields -1.
func ColumnLetterToIndex(letter string) int {
	num := 0
	for _, c := range strings.ToUpper(strings.TrimSpace(letter)) {
		if c < 'A' || c > 'Z' {
			continue
		}
		num = num*26 + int(c-'A') + 1
	}
	return num - 1
}

// ColumnIndexToLetter is the inverse of ColumnLetterToIndex.
func ColumnIndexToLetter(index int) string {
	if index < 0 {
		return ""
	}
	var out []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		out = append([]byte{byte('A' + (n-1)%26)}, out...)
	}
	return string(out)
}

// ParseSheetDate accepts DD/MM/YYYY and YYYY-MM-DD. Anything else is nil.
func ParseSheetDate(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	if strings.Contains(value, "/") {
		parts := strings.Split(value, "/")
		if len(parts) != 3 {
			return nil
		}
		day, errDay := strconv.Atoi(strings.TrimSpace(parts[0]))
		month, errMonth := strconv.Atoi(strings.TrimSpace(parts[1]))
		year, errYear := strconv.Atoi(strings.TrimSpace(parts[2]))
		if errDay != nil || errMonth != nil || errYear != nil {
			return nil
		}
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if d.Day() != day || int(d.Month()) != month || d.Year() != year {
			return nil
		}
		return &d
	}

	if strings.Contains(value, "-") {
		d, err := time.Parse("2006-1-2", value)
		if err != nil {
			return nil
		}
		return &d
	}

	return nil
}

var homeAwaySuffixes = []string{"(H)", "(A)", "(H/A)"}

// DeriveOpponentName strips, in order, a leading "N:" match number, a trailing
// (H)/(A)/(H/A) marker and a leading "vs ".
func DeriveOpponentName(fixtureName string) string {
	name := strings.TrimSpace(fixtureName)
	if _, after, ok := strings.Cut(name, ":"); ok {
		name = strings.TrimSpace(after)
	}

	upper := strings.ToUpper(name)
	for _, suffix := range homeAwaySuffixes {
		if strings.HasSuffix(upper, suffix) {
			if idx := strings.LastIndex(name, "("); idx >= 0 {
				name = strings.TrimSpace(name[:idx])
			}
			break
		}
	}

	if len(name) >= 3 && strings.EqualFold(name[:3], "vs ") {
		name = strings.TrimSpace(name[3:])
	}
	return name
}

func IsCancelledStatus(status string) bool {
	return strings.Contains(strings.ToLower(status), "cancelled")
}

// FindWorksheetForMatch returns the first title that contains the match name
// or is contained by it, compared case-insensitively.
func FindWorksheetForMatch(matchName string, titles []string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(matchName))
	if name == "" {
		return "", false
	}
	for _, title := range titles {
		candidate := strings.ToLower(strings.TrimSpace(title))
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, name) || strings.Contains(name, candidate) {
			return title, true
		}
	}
	return "", false
}

// WorksheetRange renders an A1 range with the worksheet title quoted, e.g.
// 'Match 1 - Thirds'!A1:AZ60. Embedded quotes are doubled.
func WorksheetRange(title, addr string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_ = buf.WriteByte('\'')
	_, _ = buf.WriteString(strings.ReplaceAll(title, "'", "''"))
	_ = buf.WriteByte('\'')
	if addr != "" {
		_ = buf.WriteByte('!')
		_, _ = buf.WriteString(addr)
	}
	return buf.String()
}

// FindWorksheetByTitle prefers an exact title and falls back to a trimmed,
// case-insensitive comparison.
func FindWorksheetByTitle(want string, titles []string) (string, bool) {
	for _, title := range titles {
		if title == want {
			return title, true
		}
	}
	want = strings.TrimSpace(want)
	for _, title := range titles {
		if strings.EqualFold(strings.TrimSpace(title), want) {
			return title, true
		}
	}
	return "", false
}
