package entity

const (
	StatusWaiting    = "wait"
	StatusInProgress = "progress"
)

// Game is the session shared by two players. Moves are opaque strings and
// only the latest one per player is kept.
type Game struct {
	ID        string `json:"gameId"`
	State     string `json:"state"`
	Player1   string `json:"player1"`
	Player2   string `json:"player2"`
	LastMove1 string `json:"lastMove1"`
	LastMove2 string `json:"lastMove2"`
}

func NewGame(id, player1 string) *Game {
	return &Game{
		ID:      id,
		State:   StatusWaiting,
		Player1: player1,
	}
}

// NewPairedGame creates a game that starts with both seats taken.
func NewPairedGame(id, player1, player2 string) *Game {
	return &Game{
		ID:      id,
		State:   StatusInProgress,
		Player1: player1,
		Player2: player2,
	}
}

func (that *Game) IsWaiting() bool {
	return that.State == StatusWaiting
}

func (that *Game) IsInProgress() bool {
	return that.State == StatusInProgress
}

// Join seats the second player and starts the game.
func (that *Game) Join(player string) {
	that.Player2 = player
	that.State = StatusInProgress
}

func (that *Game) HasPlayer(player string) bool {
	if player == "" {
		return false
	}

	return that.Player1 == player || that.Player2 == player
}

// SetMove overwrites the slot owned by player. Non-participants are ignored;
// callers check HasPlayer first.
func (that *Game) SetMove(player, move string) {
	switch player {
	case "":
	case that.Player1:
		that.LastMove1 = move
	case that.Player2:
		that.LastMove2 = move
	}
}

// OpponentMove returns the last move stored by the other seat.
func (that *Game) OpponentMove(player string) string {
	if player == that.Player1 {
		return that.LastMove2
	}

	return that.LastMove1
}

// Opponent returns the other participant, empty while the game is waiting.
func (that *Game) Opponent(player string) string {
	if player == that.Player1 {
		return that.Player2
	}

	return that.Player1
}
