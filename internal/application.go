package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/turnrelay/internal/config"
	"github.com/rocketscienceinc/turnrelay/internal/matchmaking"
	natsevents "github.com/rocketscienceinc/turnrelay/internal/transport/nats"
	redisevents "github.com/rocketscienceinc/turnrelay/internal/transport/redis"
	"github.com/rocketscienceinc/turnrelay/internal/transport/tcp"
	"github.com/rocketscienceinc/turnrelay/internal/usecase"
	"github.com/rocketscienceinc/turnrelay/transport/rest"
)

var ErrUnknownEventsDriver = errors.New("unknown events driver")

type eventSink interface {
	usecase.EventPublisher
	Close() error
}

type nopSink struct {
	usecase.NopPublisher
}

func (nopSink) Close() error {
	return nil
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	sink, err := newEventSink(ctx, conf.Events)
	if err != nil {
		return fmt.Errorf("could not set up event sink: %w", err)
	}

	defer func() {
		if err = sink.Close(); err != nil {
			log.Error("could not close event sink", "error", err)
		}
	}()

	store := matchmaking.NewStore()
	gameManager := usecase.NewGameManager(logger.With("component", "game_manager"), store, sink, conf.Events.PublishTimeout)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run relay server
	relayErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "addr", conf.GetRelayAddr(), "events", sink.Name())
		relayServer := tcp.New(logger.With("component", "relay"), gameManager)
		if relayErr := relayServer.Start(ctx, conf.GetRelayAddr()); relayErr != nil {
			log.Error("Relay server error", "error", relayErr)
			relayErrCh <- relayErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-relayErrCh:
		return fmt.Errorf("relay server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func newEventSink(ctx context.Context, conf config.Events) (eventSink, error) {
	switch conf.Driver {
	case "", config.EventsDriverNone:
		return nopSink{}, nil
	case config.EventsDriverRedis:
		sink, err := redisevents.New(ctx, conf.Redis.GetRedisAddr(), conf.Channel)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis: %w", err)
		}
		return sink, nil
	case config.EventsDriverNATS:
		sink, err := natsevents.New(conf.NATS.URL, conf.Channel)
		if err != nil {
			return nil, fmt.Errorf("could not connect to nats: %w", err)
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventsDriver, conf.Driver)
	}
}
