package transport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/shared/auth"
	"lmsWs/internal/shared/httputil"
)

var errorMapper = httputil.NewErrorMapper().
	WithMapping(port.ErrMissingID, http.StatusBadRequest, "").
	WithMapping(port.ErrMissingController, http.StatusBadRequest, "").
	WithMapping(port.ErrEmptyKeyword, http.StatusBadRequest, "").
	WithMapping(port.ErrUnsupported, http.StatusBadRequest, "").
	WithMapping(port.ErrUnauthorized, http.StatusUnauthorized, "unauthorized").
	WithMapping(auth.ErrMissingToken, http.StatusUnauthorized, "missing token").
	WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "invalid token").
	WithDefault(http.StatusBadGateway, "upstream request failed")

type errorBody struct {
	OK     bool              `json:"ok"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondResult writes a successful Result envelope or the mapped failure.
func respondResult[T any](c echo.Context, status int, result domain.Result[T]) error {
	if !result.OK {
		return respondError(c, result.Err)
	}
	return c.JSON(status, result)
}

func respondError(c echo.Context, err error) error {
	var (
		verr      *domain.ValidationError
		serverErr *port.ServerError
	)
	if errors.As(err, &verr) {
		return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: verr.Error(), Fields: verr.Fields})
	}
	if errors.As(err, &serverErr) {
		return c.JSON(serverErr.HTTPStatus(), errorBody{Error: serverErr.Message, Fields: serverErr.Fields})
	}

	info := errorMapper.Map(err)
	if info.Status >= http.StatusInternalServerError {
		slog.Error("http request failed", slog.String("path", c.Path()), slog.Int("status", info.Status), slog.Any("error", err))
	}
	return c.JSON(info.Status, errorBody{Error: info.Message})
}
