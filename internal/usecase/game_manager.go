package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/turnrelay/internal/entity"
	"github.com/rocketscienceinc/turnrelay/internal/matchmaking"
	"github.com/rocketscienceinc/turnrelay/internal/metrics"
)

const defaultPublishTimeout = 2 * time.Second

type gameStore interface {
	Register() entity.Player
	Pair(player string) (entity.Game, matchmaking.PairResult)
	SubmitMove(player, gameID, move string) (entity.Game, error)
	FetchOpponentMove(player, gameID string) (string, error)
	Quit(player, gameID string) (entity.Game, error)
	Stats() matchmaking.Stats
}

// EventPublisher delivers lifecycle events to an external sink.
type EventPublisher interface {
	Name() string
	Publish(ctx context.Context, event *entity.Event) error
}

// GameManager runs one store operation per call and, once the store lock is
// released, records metrics and publishes the matching lifecycle event.
type GameManager struct {
	logger    *slog.Logger
	store     gameStore
	publisher EventPublisher

	publishTimeout time.Duration
}

func NewGameManager(logger *slog.Logger, store gameStore, publisher EventPublisher, publishTimeout time.Duration) *GameManager {
	if publisher == nil {
		publisher = NopPublisher{}
	}

	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}

	return &GameManager{
		logger:         logger,
		store:          store,
		publisher:      publisher,
		publishTimeout: publishTimeout,
	}
}

func (that *GameManager) Register(ctx context.Context) entity.Player {
	player := that.store.Register()

	that.logger.Info("player registered", "player_id", player.ID)
	that.publish(ctx, entity.NewEvent(entity.EventRegistered, player.ID, nil))

	return player
}

func (that *GameManager) PairMe(ctx context.Context, player string) entity.Game {
	game, result := that.store.Pair(player)

	switch result {
	case matchmaking.PairQueued:
		that.logger.Info("player is waiting for an opponent", "player", player, "game_id", game.ID)
		that.observe()
		that.publish(ctx, entity.NewEvent(entity.EventWaiting, player, &game))
	case matchmaking.PairMatched:
		that.logger.Info("players paired", "player", player, "opponent", game.Opponent(player), "game_id", game.ID)
		that.observe()
		that.publish(ctx, entity.NewEvent(entity.EventPaired, player, &game))
	}

	return game
}

func (that *GameManager) SubmitMove(ctx context.Context, player, gameID, move string) error {
	game, err := that.store.SubmitMove(player, gameID, move)
	if err != nil {
		return fmt.Errorf("failed to submit move: %w", err)
	}

	that.publish(ctx, entity.NewEvent(entity.EventMove, player, &game))

	return nil
}

func (that *GameManager) TheirMove(_ context.Context, player, gameID string) (string, error) {
	move, err := that.store.FetchOpponentMove(player, gameID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch opponent move: %w", err)
	}

	return move, nil
}

func (that *GameManager) Quit(ctx context.Context, player, gameID string) error {
	game, err := that.store.Quit(player, gameID)
	if err != nil {
		return fmt.Errorf("failed to quit game: %w", err)
	}

	that.logger.Info("game terminated", "player", player, "game_id", game.ID)
	that.observe()
	that.publish(ctx, entity.NewEvent(entity.EventQuit, player, &game))

	return nil
}

func (that *GameManager) observe() {
	stats := that.store.Stats()

	metrics.WaitingPlayers.Set(float64(stats.Waiting))
	metrics.ActiveGames.Set(float64(stats.Active))
}

// publish runs on the request path after the store lock is released. An
// unreachable sink delays the reply by at most publishTimeout per event and
// never fails the call.
func (that *GameManager) publish(ctx context.Context, event *entity.Event) {
	ctx, cancel := context.WithTimeout(ctx, that.publishTimeout)
	defer cancel()

	if err := that.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishFailures.WithLabelValues(that.publisher.Name()).Inc()
		that.logger.Warn("failed to publish event", "type", event.Type, "game_id", event.GameID, "error", err)
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Name() string {
	return "none"
}

func (NopPublisher) Publish(context.Context, *entity.Event) error {
	return nil
}
