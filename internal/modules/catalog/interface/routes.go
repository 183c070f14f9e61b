package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/unrolled/secure"
)

// RouteOptions carries the handlers and limits mounted by RegisterRoutes.
type RouteOptions struct {
	Websocket         echo.HandlerFunc
	Entities          *EntityHandler
	Auth              *AuthHandler
	AuthRequests      int
	AuthWindow        time.Duration
	HealthCheck       func() map[string]any
	SecureDevelopment bool
}

// RegisterRoutes mounts the websocket, REST proxy and auth endpoints on e.
func RegisterRoutes(e *echo.Echo, opts RouteOptions) {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      opts.SecureDevelopment,
	})
	e.Use(echo.WrapMiddleware(secureMiddleware.Handler))

	e.GET("/healthz", func(c echo.Context) error {
		body := map[string]any{"status": "ok"}
		if opts.HealthCheck != nil {
			for key, value := range opts.HealthCheck() {
				body[key] = value
			}
		}
		return c.JSON(http.StatusOK, body)
	})

	if opts.Websocket != nil {
		e.GET("/ws/:entity/:token", opts.Websocket)
		e.GET("/ws/:entity", opts.Websocket)
	}

	if opts.Entities != nil {
		api := e.Group("/api")
		api.GET("/:entity", opts.Entities.List)
		api.GET("/:entity/search", opts.Entities.Search)
		api.GET("/:entity/:id", opts.Entities.Detail)
		api.POST("/:entity", opts.Entities.Create)
		api.PUT("/:entity/:id", opts.Entities.Update)
		api.DELETE("/:entity/:id", opts.Entities.Delete)
	}

	if opts.Auth != nil {
		requests := opts.AuthRequests
		if requests <= 0 {
			requests = 20
		}
		window := opts.AuthWindow
		if window <= 0 {
			window = time.Minute
		}
		limiter := httprate.Limit(requests, window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"ok":false,"error":"too many requests"}`))
			}),
		)
		group := e.Group("/auth", echo.WrapMiddleware(limiter))
		group.POST("/login", opts.Auth.Login)
		group.POST("/register", opts.Auth.Register)
		group.GET("/me", opts.Auth.Me)
	}
}
