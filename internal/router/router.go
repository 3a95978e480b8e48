package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-assess-api/internal/config"
	"github.com/noah-isme/gema-assess-api/internal/handler"
	"github.com/noah-isme/gema-assess-api/internal/middleware"
	"github.com/noah-isme/gema-assess-api/internal/observability"
)

// FunctionsPrefix mirrors the managed platform's edge-function paths so
// existing clients can switch hosts without changing URLs.
const FunctionsPrefix = "/functions/v1"

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradingHandler    *handler.GradingHandler
	PlagiarismHandler *handler.PlagiarismHandler
	SentimentHandler  *handler.SentimentHandler
	JWTMiddleware     fiber.Handler
	RateLimit         fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Analysis routes
// are served both at the root and under FunctionsPrefix.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	rateLimit := deps.RateLimit
	if rateLimit == nil {
		rateLimit = middleware.RateLimit("analysis", cfg.RateLimit, normalizeWindow(cfg.RateLimitWindow))
	}

	// The guard is mounted once on "/" so prefixed requests pass through it a
	// single time; it only acts on analysis paths.
	paths := analysisPaths(deps)
	analysis := app.Group("", onlyPaths(paths, jwtMiddleware), onlyPaths(paths, rateLimit))
	functions := analysis.Group(FunctionsPrefix)

	for _, group := range []fiber.Router{analysis, functions} {
		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(group)
		}
		if deps.PlagiarismHandler != nil {
			deps.PlagiarismHandler.Register(group)
		}
		if deps.SentimentHandler != nil {
			deps.SentimentHandler.Register(group)
		}
	}
}

func analysisPaths(deps Dependencies) map[string]bool {
	var routes []string
	if deps.GradingHandler != nil {
		routes = append(routes, handler.GradingPath)
	}
	if deps.PlagiarismHandler != nil {
		routes = append(routes, handler.PlagiarismPath)
	}
	if deps.SentimentHandler != nil {
		routes = append(routes, handler.SentimentPath)
	}

	paths := make(map[string]bool, len(routes)*2)
	for _, route := range routes {
		paths[route] = true
		paths[FunctionsPrefix+route] = true
	}
	return paths
}

// onlyPaths runs next for the listed paths and passes every other request on.
func onlyPaths(paths map[string]bool, next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := strings.ToLower(c.Path())
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}
		if !paths[path] {
			return c.Next()
		}
		return next(c)
	}
}

func normalizeWindow(window time.Duration) time.Duration {
	if window <= 0 {
		return time.Minute
	}
	return window
}
