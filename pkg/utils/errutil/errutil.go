package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/reactask/pkg/utils/logging"
)

// Handle logs the error with a message and reports it to Sentry when a client is configured.
// Returns err unchanged so callers can keep propagating it.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	report(ctx, err, msg)
	return err
}

func report(ctx context.Context, err error, msg string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		var ge *goerr.Error
		if errors.As(err, &ge) {
			scope.SetContext("values", ge.Values())
		}
		hub.CaptureException(err)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleHTTP logs err and writes {"error": publicMsg} with statusCode.
// The internal error text never reaches the client. 5xx errors are also reported to Sentry.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int, publicMsg string) {
	if err != nil {
		logger := logging.From(ctx)

		var ge *goerr.Error
		if errors.As(err, &ge) {
			logger.Warn("HTTP error",
				"status", statusCode,
				"error", err.Error(),
				"values", ge.Values(),
			)
		} else {
			logger.Warn("HTTP error",
				"status", statusCode,
				"error", err.Error(),
			)
		}

		if statusCode >= http.StatusInternalServerError {
			report(ctx, err, publicMsg)
		}
	}

	WriteJSON(ctx, w, statusCode, errorResponse{Error: publicMsg})
}

// WriteJSON writes v as a JSON response body with statusCode
func WriteJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.From(ctx).Error("failed to marshal response", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("failed to write response", "error", err.Error())
	}
}
