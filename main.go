// Command slack-irc-bridge relays conversation between an IRC network and a
// Slack workspace. It:
//   - Loads configuration and initializes structured logging.
//   - Connects one IRC identity and one Slack RTM session.
//   - Wires both event streams into the bridge relay, which translates text,
//     maps channels, routes direct messages, and surfaces protocol events.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, and
//     /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/slack-irc-bridge/bridge"
	"github.com/onnwee/slack-irc-bridge/config"
	"github.com/onnwee/slack-irc-bridge/ircx"
	"github.com/onnwee/slack-irc-bridge/server"
	"github.com/onnwee/slack-irc-bridge/slackx"
	"github.com/onnwee/slack-irc-bridge/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	initLogging()

	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", slog.String("path", *configPath), slog.Any("err", err))
		os.Exit(1)
	}

	mapping, err := bridge.NewChannelMapping(cfg.ChannelMapping)
	if err != nil {
		slog.Error("channel mapping invalid", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("channel mapping loaded", slog.Int("channels", mapping.Len()))

	// Metrics / telemetry init
	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing("slack-irc-bridge", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The relay is constructed against both adapters; the adapters deliver
	// their events into it. Events arriving before Start are impossible
	// since the connections are not opened yet.
	var relay *bridge.Relay

	slackClient := slackx.New(cfg.SlackToken, cfg.SlackUser, func(ev bridge.ChatEvent) {
		relay.HandleChatEvent(ev)
	})
	ircClient := ircx.New(ircx.Options{
		Server:         cfg.Server,
		Port:           cfg.Port,
		TLS:            cfg.TLS,
		ServerPassword: cfg.ServerPassword,
		Nickname:       cfg.Nickname,
		Username:       cfg.Username,
	}, func(ev bridge.IRCEvent) {
		relay.HandleIRCEvent(ev)
	})

	relay = bridge.NewRelay(ircClient, slackClient, mapping, bridge.Options{
		Nickname: cfg.Nickname,
		Flags: bridge.NoticeFlags{
			Join:       cfg.IRCStatusNotices.Join,
			Leave:      cfg.IRCStatusNotices.Leave,
			ChangeNick: cfg.IRCStatusNotices.ChangeNick,
			Modes:      cfg.IRCStatusNotices.Modes,
		},
		RecipientTTL:     cfg.RememberRecipientsFor,
		AutoSendCommands: cfg.AutoSendCommands,
		AllowRawCommands: cfg.AllowRawCommands,
		IconURLFormat:    cfg.IconURLFormat,
	})

	slackClient.Start(ctx)
	if err := ircClient.Start(ctx); err != nil {
		slog.Error("irc start failed", slog.Any("err", err))
		os.Exit(1)
	}

	// HTTP server (health/readiness/status/metrics)
	go func() {
		probe := server.Probe{
			Started:    time.Now(),
			IRCReady:   relay.IRCReady,
			SlackReady: relay.SlackReady,
			Channels:   mapping.Len(),
		}
		if err := server.Start(ctx, cfg.HTTPAddr, probe); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	telemetry.SetIRCConnected(false)
	telemetry.SetSlackConnected(false)
	slog.Info("shutting down")
}

// initLogging configures slog from LOG_LEVEL and LOG_FORMAT (text | json).
// Defaults: level=info, format=text.
func initLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()))
}
