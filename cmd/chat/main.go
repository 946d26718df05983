package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/npezzotti/go-chatclient/internal/api"
	"github.com/npezzotti/go-chatclient/internal/config"
	"github.com/npezzotti/go-chatclient/internal/session"
	"github.com/npezzotti/go-chatclient/internal/stats"
	"github.com/npezzotti/go-chatclient/internal/transport"
)

func main() {
	// .env is optional; real environments set the variables directly
	godotenv.Load()

	logger := log.New(os.Stderr, "[chat] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config:", err)
	}

	var sp stats.StatsProvider = stats.NoopStats{}
	if cfg.DebugAddr != "" {
		mux := http.NewServeMux()
		statsUpdater := stats.NewStatsUpdater(mux)
		statsUpdater.Run()
		defer statsUpdater.Stop()

		go func() {
			srv := &http.Server{
				Addr:    cfg.DebugAddr,
				Handler: handlers.LoggingHandler(os.Stderr, mux),
			}
			if err := srv.ListenAndServe(); err != nil {
				logger.Println("debug server:", err)
			}
		}()

		sp = statsUpdater
	}

	apiClient := api.NewClient(cfg.ServerURL, cfg.Token, cfg.RequestTimeout, logger)

	var sess *session.Session
	conn := transport.NewConn(cfg.WebsocketURL, logger, sp, func(st transport.State) {
		sess.ConnectionStateChanged(st)
	})
	sess = session.NewSession(conn, apiClient, logger, sp, cfg.Token)

	repl := newRepl(sess, logger)
	repl.registerListeners()

	if err := sess.Start(); err != nil {
		logger.Fatal("start session:", err)
	}
	defer sess.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		repl.run(os.Stdin)
		close(done)
	}()

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case <-done:
	}
}
