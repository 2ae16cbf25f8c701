package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cardroom/poker-client/internal/config"
	"github.com/cardroom/poker-client/internal/connection"
	"github.com/cardroom/poker-client/internal/game"
	"github.com/cardroom/poker-client/internal/reconnect"
	"github.com/cardroom/poker-client/internal/session"
	"github.com/cardroom/poker-client/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/client.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting poker client",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"server_url", cfg.Server.URL,
		"session_store", cfg.Session.StorePath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open the session store
	store := session.NewFileStore(cfg.Session.StorePath)
	sessions := session.NewManager(store, cfg.Session.Duration, logger.With("component", "session"))

	if sess := sessions.Get(); sess != nil {
		logger.Info("resuming existing session",
			"player_id", sess.PlayerID,
			"remaining", sessions.Remaining(),
		)
	}

	// Local view of the table
	table := game.NewStore(cfg.Player.PreferredSeat, logger.With("component", "game"))

	// Create the connection manager
	mgrCfg := connection.DefaultManagerConfig()
	mgrCfg.URL = cfg.Server.URL
	mgrCfg.ConnectTimeout = cfg.Connection.ConnectTimeout
	mgrCfg.HeartbeatInterval = cfg.Connection.HeartbeatInterval
	mgrCfg.WriteTimeout = cfg.Connection.WriteTimeout
	mgrCfg.BufferSize = cfg.Connection.BufferSize
	mgrCfg.AutoReconnect = cfg.Connection.AutoReconnectEnabled()
	mgrCfg.PlayerName = cfg.Player.Name
	mgrCfg.Reconnect = reconnect.Config{
		MaxAttempts:   *cfg.Reconnect.MaxAttempts,
		InitialDelay:  cfg.Reconnect.InitialDelay,
		MaxDelay:      cfg.Reconnect.MaxDelay,
		BackoffFactor: cfg.Reconnect.BackoffFactor,
		Jitter:        cfg.Reconnect.JitterEnabled(),
	}

	mgr := connection.NewManager(
		mgrCfg,
		sessions,
		connection.SnapshotRoster{Preferred: cfg.Player.PreferredSeat},
		logger.With("component", "connection"),
	)

	logger.Info("connecting", "url", cfg.Server.URL)
	mgr.Connect(ctx)

	// Consume connection events until shutdown
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			mgr.Disconnect()
			return

		case e := <-mgr.Events():
			handleEvent(e, table, sessions, logger)
		}
	}
}

// handleEvent applies one connection event to the local table view and
// logs the transitions a player would care about.
func handleEvent(e connection.Event, table *game.Store, sessions *session.Manager, logger *slog.Logger) {
	switch e.Kind {
	case connection.EventStatus:
		logger.Info("connection status", "status", e.Status)

	case connection.EventLatency:
		logger.Debug("heartbeat round trip", "latency", e.Latency)

	case connection.EventSnapshot:
		table.Apply(e.Snapshot)
		if sess := sessions.Get(); sess != nil {
			table.SetPlayerID(sess.PlayerID)
		}
		logger.Info("table updated",
			"round", e.Snapshot.Round,
			"pot", e.Snapshot.Pot,
			"my_turn", table.IsMyTurn(),
			"actions", table.AvailableActions(),
		)

	case connection.EventError:
		table.SetError(e.Err)
		logger.Warn("server error", "code", e.Err.Code, "message", e.Err.Message)

	case connection.EventReconnect:
		logger.Info("reconnect progress",
			"kind", e.Reconnect.Kind,
			"attempt", e.Reconnect.Attempt,
			"wait", e.Reconnect.Wait,
		)
	}
}
