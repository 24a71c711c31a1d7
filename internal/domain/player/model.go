package player

import "time"

// Player is a global identity keyed by display name.
type Player struct {
	ID        int64
	Name      string
	Position  string
	IsForward bool
	IsBack    bool
	SpondID   string
	SheetRow  *int
	LeftDate  *time.Time
}

// Alias redirects an alternate or historical spelling to a canonical player.
type Alias struct {
	ID       int64
	Name     string
	PlayerID int64
}
