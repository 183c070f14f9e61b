package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"lmsWs/internal/modules/catalog/application/usecase"
	"lmsWs/internal/modules/catalog/domain"
)

// AuthHandler exposes the login/register/me gate over HTTP.
type AuthHandler struct {
	session *usecase.SessionUseCase
}

func NewAuthHandler(session *usecase.SessionUseCase) *AuthHandler {
	return &AuthHandler{session: session}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var form domain.LoginForm
	if err := decodeJSON(c, &form); err != nil {
		return respondError(c, err)
	}
	return respondResult(c, http.StatusOK, h.session.Login(c.Request().Context(), form))
}

func (h *AuthHandler) Register(c echo.Context) error {
	var form domain.RegisterForm
	if err := decodeJSON(c, &form); err != nil {
		return respondError(c, err)
	}
	return respondResult(c, http.StatusCreated, h.session.Register(c.Request().Context(), form))
}

func (h *AuthHandler) Me(c echo.Context) error {
	return respondResult(c, http.StatusOK, h.session.Me(c.Request().Context(), requestToken(c)))
}

func decodeJSON(c echo.Context, target any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		verr := domain.NewValidationError()
		verr.Add("body", "invalid json")
		return verr
	}
	return nil
}
