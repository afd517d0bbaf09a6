package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/erinlkolp/erin-slack-notes-bot/internal/bot"
	"github.com/erinlkolp/erin-slack-notes-bot/internal/config"
	"github.com/erinlkolp/erin-slack-notes-bot/internal/ops"
	"github.com/erinlkolp/erin-slack-notes-bot/internal/repository"
	"github.com/erinlkolp/erin-slack-notes-bot/internal/service"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/logger"
	"github.com/erinlkolp/erin-slack-notes-bot/pkg/metrics"
)

func main() {
	// Load environment variables from .env before anything reads them
	envMissing := godotenv.Load() != nil

	log := logger.NewLogger("notesbot")
	log.Info("🤖 Slack bot is starting...")
	if envMissing {
		log.Warn("No .env file found, using environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("❌ Environment configuration is invalid")
		os.Exit(1)
	}
	log.Info("✅ All required environment variables are set")

	serviceMetrics := metrics.NewMetrics("notesbot")

	api := slack.New(
		cfg.SlackBotToken,
		slack.OptionAppLevelToken(cfg.SlackAppToken),
	)

	// Confirm the tokens identify a workspace app before going further
	authCtx, cancelAuth := context.WithTimeout(context.Background(), 10*time.Second)
	identity, err := api.AuthTestContext(authCtx)
	cancelAuth()
	if err != nil {
		log.WithError(err).Error("❌ Slack authentication failed, check that SLACK_BOT_TOKEN starts with 'xoxb-'")
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{
		"user": identity.User,
		"team": identity.Team,
	}).Info("🔑 Authenticated with Slack")

	connector := repository.NewMySQLConnector(cfg.DSN())
	noteRepo := repository.NewNoteRepository(connector, log, serviceMetrics)

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 15*time.Second)
	err = noteRepo.EnsureSchema(schemaCtx)
	cancelSchema()
	if err != nil {
		log.WithError(err).Error("❌ Database is unreachable")
		os.Exit(1)
	}
	log.Info("🗄️ Notes table ready")

	socketClient := socketmode.New(api)

	gateway := bot.NewGateway(api)
	noteService := service.NewNoteService(noteRepo, gateway, log)
	handlers := bot.NewHandlers(gateway, noteService, identity.UserID, log)
	router := bot.NewRouter(socketClient.Events, socketClient, handlers, log, serviceMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opsServer := ops.NewServer(cfg.MetricsPort, connector, router.Connected, log)
	go func() {
		if err := opsServer.Start(); err != nil {
			log.WithError(err).Warn("Operational endpoints unavailable")
		}
	}()

	go router.Run(ctx)

	log.Info("🚀 Starting Slack bot in Socket Mode...")
	err = socketClient.RunContext(ctx)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	if serr := opsServer.Shutdown(shutdownCtx); serr != nil {
		log.WithError(serr).Warn("Ops server shutdown failed")
	}
	cancelShutdown()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Socket Mode loop failed")
		os.Exit(1)
	}

	log.Info("👋 Slack bot stopped.")
}
