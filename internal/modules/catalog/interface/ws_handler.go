package transport

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"lmsWs/internal/modules/catalog/application/usecase"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/modules/catalog/infrastructure"
	"lmsWs/internal/shared/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebsocketOptions configures list sessions opened over /ws/:entity.
type WebsocketOptions struct {
	AllowAnonymous bool
	AllowedActions []string
	SendBuffer     int
	PageSize       int
	Debounce       time.Duration
	SearchDebounce time.Duration
}

type keyAware interface {
	Configured() bool
}

// NewWebsocketHandler exposes /ws/:entity and /ws/:entity/:token. Each connection owns its
// list controllers; they are closed with the connection.
func NewWebsocketHandler(
	hub *infrastructure.Hub,
	catalog *usecase.CatalogUseCase,
	lists *usecase.ListRegistry,
	validator auth.TokenValidator,
	opts WebsocketOptions,
) echo.HandlerFunc {
	if len(opts.AllowedActions) == 0 {
		opts.AllowedActions = []string{domain.ActionCreated, domain.ActionUpdated, domain.ActionDeleted}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = domain.DefaultPageSize
	}

	return func(c echo.Context) error {
		entityParam := c.Param("entity")
		logger := c.Logger()
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		peerIP := c.RealIP()

		config, err := catalog.Resolve(entityParam)
		if err != nil {
			slog.Warn("ws handler entity not integrated", slog.String("entity", entityParam), slog.Any("error", err))
			logger.Warnf("ws rejected: entity not integrated entity=%s ip=%s reqID=%s", entityParam, peerIP, requestID)
			return echo.NewHTTPError(http.StatusNotFound, "entity "+strings.TrimSpace(entityParam)+" is not integrated")
		}

		token := auth.TokenFromRequest(c.Request(), c.Param("token"), "token")
		claims, err := authorize(validator, token, opts.AllowAnonymous)
		if err != nil {
			status := http.StatusUnauthorized
			message := "invalid token"
			if errors.Is(err, auth.ErrMissingToken) {
				status = http.StatusBadRequest
				message = "missing token"
			}
			slog.Warn("ws handler auth failed", slog.String("entity", config.Name), slog.Int("tokenLen", len(token)), slog.Any("error", err))
			logger.Warnf("ws rejected: %s entity=%s ip=%s reqID=%s", message, config.Name, peerIP, requestID)
			return echo.NewHTTPError(status, message)
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws handler upgrade failed", slog.String("entity", config.Name), slog.Any("error", err))
			logger.Errorf("ws upgrade failed entity=%s ip=%s reqID=%s: %v", config.Name, peerIP, requestID, err)
			return err
		}

		connectionID := uuid.NewString()
		userID := "anonymous"
		sessionID := connectionID
		var roles []string
		if claims != nil {
			userID = strings.TrimSpace(claims.Subject)
			if sid := strings.TrimSpace(claims.SessionID); sid != "" {
				sessionID = sid
			}
			roles = claims.Roles
		}

		processor := infrastructure.NewCommandProcessor(hub, nil)
		session := &listSession{
			connectionID: connectionID,
			entity:       config,
			token:        token,
			catalog:      catalog,
			lists:        lists,
			opts:         opts,
		}
		session.register(processor)

		client := infrastructure.NewClient(hub, conn, userID, sessionID, config.Name, token, opts.SendBuffer, processor)
		session.client = client
		topics := domain.EntityTopics(config.Name, opts.AllowedActions)
		hub.AttachClient(client, topics)
		client.AddCloseHook(func(*infrastructure.Client) {
			closed := lists.CloseSession(connectionID)
			slog.Info("ws list session closed", slog.String("entity", config.Name), slog.String("connectionId", connectionID), slog.Int("lists", closed))
		})

		go client.WritePump()
		go client.ReadPump()

		connected := &domain.Message{
			Topic:  domain.TopicSystemConnected,
			Entity: domain.SystemEntity,
			Action: domain.ActionConnected,
			Metadata: domain.Metadata{
				"userId":       userID,
				"sessionId":    sessionID,
				"connectionId": connectionID,
			},
			Data: map[string]any{
				"entity":        config.Name,
				"allowedTopics": topics,
				"roles":         roles,
				"readOnly":      config.ReadOnly,
				"pageSize":      opts.PageSize,
			},
			Timestamp: time.Now().UTC(),
		}
		client.SendDomainMessage(connected)

		logger.Infof("ws connected entity=%s user=%s session=%s roles=%v ip=%s reqID=%s",
			config.Name, userID, sessionID, roles, peerIP, requestID)
		return nil
	}
}

// authorize validates token when a key is configured. Without a token the connection is
// anonymous if allowed; without a key the token is forwarded to the API unchecked.
func authorize(validator auth.TokenValidator, token string, allowAnonymous bool) (*auth.Claims, error) {
	if strings.TrimSpace(token) == "" {
		if allowAnonymous {
			return nil, nil
		}
		return nil, auth.ErrMissingToken
	}
	if validator == nil {
		return nil, nil
	}
	if aware, ok := validator.(keyAware); ok && !aware.Configured() {
		return nil, nil
	}
	return validator.Validate(token)
}
