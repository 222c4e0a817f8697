package tcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rocketscienceinc/turnrelay/internal/apperror"
)

func (that *Router) handleRegister(ctx context.Context, _ *Request) *Response {
	return JSON(http.StatusOK, that.manager.Register(ctx))
}

func (that *Router) handlePairMe(ctx context.Context, req *Request) *Response {
	params, err := requireParams(req, "player")
	if err != nil {
		return that.failure(req, err)
	}

	return JSON(http.StatusOK, that.manager.PairMe(ctx, params[0]))
}

func (that *Router) handleMyMove(ctx context.Context, req *Request) *Response {
	params, err := requireParams(req, "player", "id", "move")
	if err != nil {
		return that.failure(req, err)
	}

	if err = that.manager.SubmitMove(ctx, params[0], params[1], params[2]); err != nil {
		return that.failure(req, err)
	}

	return Message(http.StatusOK, "Move accepted.")
}

func (that *Router) handleTheirMove(ctx context.Context, req *Request) *Response {
	params, err := requireParams(req, "player", "id")
	if err != nil {
		return that.failure(req, err)
	}

	move, err := that.manager.TheirMove(ctx, params[0], params[1])
	if errors.Is(err, apperror.ErrGameNotFound) {
		// The record is gone either way; pollers read that as the peer quitting.
		return JSON(http.StatusGone, messageBody{Message: "Game has ended.", GameEnded: true})
	}

	if err != nil {
		return that.failure(req, err)
	}

	return JSON(http.StatusOK, moveBody{Move: move})
}

func (that *Router) handleQuit(ctx context.Context, req *Request) *Response {
	params, err := requireParams(req, "player", "id")
	if err != nil {
		return that.failure(req, err)
	}

	if err = that.manager.Quit(ctx, params[0], params[1]); err != nil {
		return that.failure(req, err)
	}

	return Message(http.StatusOK, "Game has been terminated.")
}

// failure maps a use case error onto the response taxonomy.
func (that *Router) failure(req *Request, err error) *Response {
	switch {
	case errors.Is(err, apperror.ErrMissingParam):
		return Message(http.StatusBadRequest, "Missing required parameters.")
	case errors.Is(err, apperror.ErrGameNotFound):
		return Message(http.StatusNotFound, "Game not found.")
	case errors.Is(err, apperror.ErrNotParticipant):
		return Message(http.StatusForbidden, "Player is not part of this game.")
	default:
		that.logger.Error("request failed", "method", "failure", "path", req.Path, "error", err)
		return &Response{Status: http.StatusInternalServerError, Body: internalErrorBody}
	}
}

// requireParams returns the values of names in order. Blank counts as missing.
func requireParams(req *Request, names ...string) ([]string, error) {
	values := make([]string, 0, len(names))

	for _, name := range names {
		value := req.Param(name)
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%w: %s", apperror.ErrMissingParam, name)
		}

		values = append(values, value)
	}

	return values, nil
}
