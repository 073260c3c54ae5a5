package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/rawhttp/internal/config"
	"github.com/Brownie44l1/rawhttp/internal/request"
	"github.com/Brownie44l1/rawhttp/internal/response"
	"github.com/Brownie44l1/rawhttp/internal/router"
	"github.com/Brownie44l1/rawhttp/internal/server"
)

func main() {
	configPath := flag.String("config", "server.yaml", "path to the YAML config file")
	addr := flag.String("addr", "", "listen address, overrides the config file")
	flag.Parse()

	boot := zerolog.New(os.Stderr)

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	// the logger itself lets everything through; the global level filters
	log, err := server.NewLogger(os.Stderr, "trace", cfg.Log.Format)
	if err != nil {
		boot.Fatal().Err(err).Msg("create logger")
	}
	setLevel(log, cfg.Log.Level)
	for _, w := range warnings {
		log.Warn().Str("config", *configPath).Msg(w)
	}

	metrics := server.NewMetrics()

	r := router.New()
	r.GET("/", handleHome)
	r.GET("/health", handleHealth(metrics))
	r.POST("/echo", handleEcho)
	r.GET("/search", handleSearch)
	r.GET("/users/:id", handleGetUser)

	mws := []server.Middleware{server.RequestIDMiddleware()}
	if cfg.RateLimit.Requests > 0 {
		mws = append(mws, server.RateLimitMiddleware(server.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)))
	}
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors := server.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.CORS.AllowedOrigins
		mws = append(mws, server.CORSMiddleware(cors))
	}

	srv := server.New(cfg.ServerConfig(), server.Chain(r, mws...),
		server.WithLogger(log),
		server.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// only the log level is applied live; the rest needs a restart
	err = config.Watch(ctx, *configPath, func(next config.Config, warnings []string) {
		for _, w := range warnings {
			log.Warn().Str("config", *configPath).Msg(w)
		}
		setLevel(log, next.Log.Level)
		log.Info().Str("level", zerolog.GlobalLevel().String()).Msg("config reloaded")
	}, func(err error) {
		log.Error().Err(err).Msg("config reload failed")
	})
	if err != nil {
		log.Warn().Err(err).Msg("config hot reload disabled")
	}

	if err := srv.Listen(); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}

	stats := srv.Stats()
	log.Info().
		Int64("requests", stats.RequestsTotal).
		Int64("connections", stats.ConnectionsTotal).
		Int64("parse_errors", stats.ParseErrors).
		Int64("errors_5xx", stats.Errors5xx).
		Dur("avg_latency", stats.AverageLatency).
		Msg("server stopped")
}

func setLevel(log zerolog.Logger, level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func handleHome(req *request.Request, _ router.Params) *response.Response {
	return response.HTML(response.StatusOK, `<!DOCTYPE html>
<html>
<head><title>rawhttp</title></head>
<body>
	<h1>rawhttp</h1>
	<ul>
		<li><a href="/health">Health</a></li>
		<li><a href="/search?q=go&tag=net&tag=http">Search</a></li>
		<li><a href="/users/123">User Profile</a></li>
	</ul>
</body>
</html>`)
}

func handleHealth(metrics *server.Metrics) router.HandlerFunc {
	return func(req *request.Request, _ router.Params) *response.Response {
		body, err := json.Marshal(struct {
			Status    string                 `json:"status"`
			Timestamp string                 `json:"timestamp"`
			Stats     server.MetricsSnapshot `json:"stats"`
		}{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Stats:     metrics.Snapshot(),
		})
		if err != nil {
			return response.Error(response.StatusInternalServerError, "")
		}
		return response.JSON(response.StatusOK, body)
	}
}

func handleEcho(req *request.Request, _ router.Params) *response.Response {
	ct := req.Header("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return response.Bytes(response.StatusOK, ct, req.Body)
}

func handleSearch(req *request.Request, _ router.Params) *response.Response {
	query, err := req.DecodedQuery()
	if err != nil {
		return response.Error(response.StatusBadRequest, "invalid query encoding")
	}

	result := map[string][]string{}
	if query != nil {
		for _, key := range query.Keys() {
			v, _ := query.Get(key)
			result[key] = v.All()
		}
	}

	body, err := json.Marshal(result)
	if err != nil {
		return response.Error(response.StatusInternalServerError, "")
	}
	return response.JSON(response.StatusOK, body)
}

func handleGetUser(req *request.Request, params router.Params) *response.Response {
	body, err := json.Marshal(map[string]string{
		"id":   params.Get("id"),
		"name": "John Doe",
	})
	if err != nil {
		return response.Error(response.StatusInternalServerError, "")
	}
	return response.JSON(response.StatusOK, body)
}
