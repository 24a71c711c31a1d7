package selection

type Role string

const (
	RoleStarter  Role = "Starter"
	RoleFinisher Role = "Finisher"
)

const (
	StarterSlots          = 15
	FinisherFirstPosition = 16
)

// Selection assigns a player to a numbered slot in one period of a match.
type Selection struct {
	MatchID  int64
	PlayerID int64
	Period   int
	Position int
	Role     Role
}

func RoleForPosition(position int) Role {
	if position >= FinisherFirstPosition {
		return RoleFinisher
	}
	return RoleStarter
}
