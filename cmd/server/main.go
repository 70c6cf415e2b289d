// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/quartet-cards/quartet/internal/bot"
	"github.com/quartet-cards/quartet/internal/cache"
	"github.com/quartet-cards/quartet/internal/config"
	"github.com/quartet-cards/quartet/internal/database"
	"github.com/quartet-cards/quartet/internal/handlers"
	"github.com/quartet-cards/quartet/internal/middleware"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	if !cfg.SkipDB {
		database.ConnectDB()
	}
	if !cfg.SkipRedis {
		if err := cache.ConnectRedis(); err != nil {
			logger.WithError(err).Warn("Redis unavailable, match action history disabled")
		}
	}

	ms := handlers.NewMatchServer(logger)
	if cfg.RuleSetPath != "" {
		rules, err := bot.LoadRuleSet(cfg.RuleSetPath)
		if err != nil {
			logger.WithError(err).Fatal("failed to load rule set")
		}
		ms.Decisions = bot.New(rules, logger)
	}

	mux := http.NewServeMux()

	mux.Handle("/match/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.CreateMatchHandler(ms),
	)))
	mux.Handle("/match/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.MatchWSHandler(logger, ms),
	)))

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
