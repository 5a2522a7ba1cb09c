package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/loamworks/sounder/hook"
	"github.com/loamworks/sounder/log"
)

// shutdownGrace bounds graceful server shutdown on SIGINT/SIGTERM.
const shutdownGrace = 10 * time.Second

// HookCommand returns the hook command, which serves the inbound webhook
// surface: subscription validation echo and call-arrival answering.
func HookCommand() *cli.Command {
	return &cli.Command{
		Name:  "hook",
		Usage: "Serve the inbound webhook endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to sounder.yaml config file",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Listen address",
				Value: ":8080",
			},
			&cli.StringFlag{
				Name:  "callback-base",
				Usage: "Externally reachable base URL of this hook",
			},
			&cli.StringFlag{
				Name:  "answer-url",
				Usage: "Call-answering API endpoint (empty disables answering)",
			},
		},
		Action: hookAction,
	}
}

func hookAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	listen := c.String("listen")
	if cfg.Hook.Listen != "" && !c.IsSet("listen") {
		listen = cfg.Hook.Listen
	}
	callbackBase := c.String("callback-base")
	if callbackBase == "" {
		callbackBase = cfg.Hook.CallbackBase
	}
	answerURL := c.String("answer-url")
	if answerURL == "" {
		answerURL = cfg.Hook.AnswerURL
	}

	if callbackBase == "" {
		return cli.Exit("hook requires --callback-base (or hook.callback_base in config)", exitConfigError)
	}

	var answerer hook.Answerer
	if answerURL != "" {
		client, err := hook.NewAnswerClient(hook.AnswerClientConfig{
			URL:     answerURL,
			Headers: cfg.Hook.Headers,
		})
		if err != nil {
			return cli.Exit(err.Error(), exitConfigError)
		}
		answerer = client
	}

	logger := log.NewLogger("hook")
	server := hook.NewServer(hook.Config{
		CallbackBase: callbackBase,
		Answerer:     answerer,
	}, logger)

	httpServer := &http.Server{
		Addr:              listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hook listening", map[string]any{"addr": listen, "callback": server.CallbackURL()})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return cli.Exit(err.Error(), 1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	return nil
}
