package matchmaking

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/turnrelay/internal/apperror"
	"github.com/rocketscienceinc/turnrelay/internal/entity"
)

const playerIDPrefix = "user_"

// PairResult tells what a Pair call did to the store.
type PairResult int

const (
	// PairExisting means the player already owned a game and got it back unchanged.
	PairExisting PairResult = iota
	// PairQueued means the player was put at the tail of the waiting queue.
	PairQueued
	// PairMatched means the player was matched with the head of the waiting queue.
	PairMatched
)

// Stats is a point-in-time view of the store size.
type Stats struct {
	Waiting int
	Active  int
}

// Store owns the waiting queue, the active games and the registered ids.
// Every exported method is one critical section over all of them and never
// performs I/O while holding the lock. Games are handed out as copies.
type Store struct {
	mu sync.Mutex

	waiting    []string
	games      map[string]*entity.Game
	byPlayer   map[string]string
	registered map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		games:      make(map[string]*entity.Game),
		byPlayer:   make(map[string]string),
		registered: make(map[string]struct{}),
	}
}

// Register mints a new player id. The id is informational: gameplay calls
// are keyed on the caller-supplied identity, not on this value.
func (that *Store) Register() entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	for {
		id := playerIDPrefix + uuid.NewString()[:8]
		if _, taken := that.registered[id]; taken {
			continue
		}

		that.registered[id] = struct{}{}

		return entity.Player{ID: id}
	}
}

// Pair returns the game owned by player, matches it with the longest
// waiting player, or queues it in a new waiting game, in that order.
func (that *Store) Pair(player string) (entity.Game, PairResult) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if game, ok := that.gameOf(player); ok {
		return *game, PairExisting
	}

	if len(that.waiting) > 0 {
		head := that.waiting[0]
		that.waiting = that.waiting[1:]

		if game, ok := that.gameOf(head); ok && game.IsWaiting() {
			game.Join(player)
			that.byPlayer[player] = game.ID

			return *game, PairMatched
		}

		// The head lost its waiting game without leaving the queue; pair the
		// two players directly instead of failing the request.
		game := entity.NewPairedGame(uuid.NewString(), head, player)
		that.insert(game)

		return *game, PairMatched
	}

	game := entity.NewGame(uuid.NewString(), player)
	that.insert(game)
	that.waiting = append(that.waiting, player)

	return *game, PairQueued
}

// SubmitMove overwrites the caller's move slot.
func (that *Store) SubmitMove(player, gameID, move string) (entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.participantGame(player, gameID)
	if err != nil {
		return entity.Game{}, err
	}

	game.SetMove(player, move)

	return *game, nil
}

// FetchOpponentMove returns the other seat's last move, empty if none yet.
// A missing game yields ErrGameNotFound whether it never existed or was quit.
func (that *Store) FetchOpponentMove(player, gameID string) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.participantGame(player, gameID)
	if err != nil {
		return "", err
	}

	return game.OpponentMove(player), nil
}

// Quit deletes the whole game for both participants and drops the caller
// from the waiting queue.
func (that *Store) Quit(player, gameID string) (entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.participantGame(player, gameID)
	if err != nil {
		return entity.Game{}, err
	}

	delete(that.games, game.ID)

	for _, seat := range []string{game.Player1, game.Player2} {
		if seat != "" && that.byPlayer[seat] == game.ID {
			delete(that.byPlayer, seat)
		}
	}

	that.dequeue(player)

	return *game, nil
}

func (that *Store) Stats() Stats {
	that.mu.Lock()
	defer that.mu.Unlock()

	return Stats{
		Waiting: len(that.waiting),
		Active:  len(that.games),
	}
}

func (that *Store) gameOf(player string) (*entity.Game, bool) {
	gameID, ok := that.byPlayer[player]
	if !ok {
		return nil, false
	}

	game, ok := that.games[gameID]

	return game, ok
}

func (that *Store) participantGame(player, gameID string) (*entity.Game, error) {
	game, ok := that.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameNotFound, gameID)
	}

	if !game.HasPlayer(player) {
		return nil, fmt.Errorf("%w: player %s, game id %s", apperror.ErrNotParticipant, player, gameID)
	}

	return game, nil
}

func (that *Store) insert(game *entity.Game) {
	that.games[game.ID] = game
	that.byPlayer[game.Player1] = game.ID

	if game.Player2 != "" {
		that.byPlayer[game.Player2] = game.ID
	}
}

func (that *Store) dequeue(player string) {
	kept := that.waiting[:0]
	for _, waiting := range that.waiting {
		if waiting != player {
			kept = append(kept, waiting)
		}
	}

	that.waiting = kept
}
