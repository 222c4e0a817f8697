package tcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rocketscienceinc/turnrelay/internal/entity"
	"github.com/rocketscienceinc/turnrelay/internal/metrics"
)

const unmatchedPathLabel = "other"

type gameManager interface {
	Register(ctx context.Context) entity.Player
	PairMe(ctx context.Context, player string) entity.Game
	SubmitMove(ctx context.Context, player, gameID, move string) error
	TheirMove(ctx context.Context, player, gameID string) (string, error)
	Quit(ctx context.Context, player, gameID string) error
}

type handlerFunc func(ctx context.Context, req *Request) *Response

// Router dispatches a parsed request on its exact path.
type Router struct {
	logger  *slog.Logger
	manager gameManager

	handlers map[string]handlerFunc
}

func NewRouter(logger *slog.Logger, manager gameManager) *Router {
	router := &Router{
		logger:  logger,
		manager: manager,

		handlers: make(map[string]handlerFunc),
	}

	router.handlers["/register"] = router.handleRegister
	router.handlers["/pairme"] = router.handlePairMe
	router.handlers["/mymove"] = router.handleMyMove
	router.handlers["/theirmove"] = router.handleTheirMove
	router.handlers["/quit"] = router.handleQuit

	return router
}

// Dispatch always produces a response: unknown paths get 404 and a panicking
// handler gets 500, leaving the connection usable.
func (that *Router) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	start := time.Now()

	handler, ok := that.handlers[req.Path]
	label := req.Path
	if !ok {
		label = unmatchedPathLabel
	}

	defer func() {
		if rec := recover(); rec != nil {
			that.logger.Error("handler panicked", "method", "Dispatch", "path", req.Path, "panic", fmt.Sprint(rec))
			resp = &Response{Status: http.StatusInternalServerError, Body: internalErrorBody}
		}

		metrics.Requests.WithLabelValues(label, strconv.Itoa(resp.Status)).Inc()
		metrics.RequestDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	if !ok {
		return Message(http.StatusNotFound, "Invalid endpoint.")
	}

	return handler(ctx, req)
}
