package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/dayplan/internal/auth"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

const serverErrorMessage = "Server Error"

var errBadBody = echo.NewHTTPError(http.StatusBadRequest, "invalid body")

// errorHandler renders every error returned by a handler or middleware.
func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err)
		if status == http.StatusInternalServerError && logger != nil {
			logger.WithFields(log.Fields{
				"method": c.Request().Method,
				"route":  c.Path(),
				"error":  err.Error(),
			}).Error("request failed")
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil && logger != nil {
			logger.WithError(werr).Warn("writing error response")
		}
	}
}

func errorResponse(err error) (int, any) {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		msg := ve.Err.Error()
		return http.StatusUnprocessableEntity, validationResponse{
			Message: msg,
			Errors:  map[string][]string{ve.Field: {msg}},
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, messageResponse{Message: msg}
	}

	switch {
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized, messageResponse{Message: "Unauthenticated."}
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, messageResponse{Message: "This action is unauthorized."}
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, messageResponse{Message: "Task not found."}
	case errors.Is(err, auth.ErrRevocationDisabled):
		return http.StatusNotImplemented, messageResponse{Message: "Logout is not available."}
	case errors.Is(err, auth.ErrNotRevocable):
		return http.StatusBadRequest, messageResponse{Message: "This token cannot be revoked."}
	}
	return http.StatusInternalServerError, messageResponse{Message: serverErrorMessage}
}

// hideForeign turns a denial on a single task into not-found so callers
// cannot probe for other users' task ids.
func hideForeign(enabled bool, err error) error {
	if enabled && errors.Is(err, types.ErrForbidden) {
		return types.ErrNotFound
	}
	return err
}
