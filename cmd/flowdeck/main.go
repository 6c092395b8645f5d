// Command flowdeck serves the workflow builder backend: an in-memory
// workflow graph, the execution engine, and the HTTP surface the canvas
// talks to.
//
// Configuration comes from the environment (a .env file is loaded when
// present): PORT for the listen port, FLOWDECK_LOG_LEVEL or LOG_LEVEL for
// log verbosity, and OPENAI_API_KEY / GROQ_API_KEY as fallback credentials
// for the generation clients.
package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/flowdeck/flowdeck/engine"
	slogobs "github.com/flowdeck/flowdeck/providers/observability/slog"
	"github.com/flowdeck/flowdeck/server"
	"github.com/flowdeck/flowdeck/workflow"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogobs.GetLogLevelFromEnv(),
	}))
	slog.SetDefault(logger)

	observer := slogobs.New(logger)

	store := workflow.NewStore()
	runner := engine.New(store).
		WithObservability(observer).
		WithNotifier(engine.NotifierFunc(func(notification engine.Notification) {
			logger.Info("run finished",
				"kind", string(notification.Kind),
				"message", notification.Message,
				"run_id", notification.RunID)
		}))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	observer.Info(context.Background(), "flowdeck listening")
	if err := server.New(store, runner).Listen(":" + port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
