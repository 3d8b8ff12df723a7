package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanducng/emojiwatch/internal/classify"
	"github.com/vanducng/emojiwatch/internal/config"
	"github.com/vanducng/emojiwatch/internal/emoji"
	"github.com/vanducng/emojiwatch/internal/onebot"
	"github.com/vanducng/emojiwatch/internal/react"
	"github.com/vanducng/emojiwatch/internal/telemetry"
	"github.com/vanducng/emojiwatch/internal/watch"
)

// runWatch is the main loop: connect to the OneBot endpoint, pump events into
// the reactor and the monitor, and redial on disconnect until interrupted.
func runWatch() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	pool := emoji.NewPool(cfg.Reaction.EmojiRangeStart, cfg.Reaction.EmojiRangeEnd)
	mapping := emoji.ParseMapping(cfg.Reaction.EmotionsMapping)
	selector := emoji.NewSelector(cfg.Reaction.EmojiSelectStrategy, pool, mapping)

	var judge react.EmotionJudge
	if selector.NeedsEmotion() {
		judge = classify.New(cfg.Classifier, mapping.Labels())
	}

	slog.Info("emojiwatch starting",
		"version", Version,
		"strategy", cfg.Reaction.EmojiSelectStrategy,
		"pool_size", pool.Size(),
		"emotion_labels", mapping.Len(),
		"push_rules", len(cfg.Monitor.PushList))

	redial := time.Duration(cfg.OneBot.ReconnectInterval * float64(time.Second))
	callTimeout := time.Duration(cfg.OneBot.CallTimeout * float64(time.Second))

	for {
		if err := runSession(ctx, cfg, selector, judge, callTimeout); err != nil {
			if ctx.Err() != nil {
				slog.Info("shutting down")
				return
			}
			slog.Error("connection lost, will redial", "error", err, "retry_in", redial)
		}
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return
		case <-time.After(redial):
		}
	}
}

// runSession owns one WebSocket connection: it builds the handlers around the
// client and pumps events until the connection or the context dies.
func runSession(ctx context.Context, cfg *config.Config, selector *emoji.Selector, judge react.EmotionJudge, callTimeout time.Duration) error {
	client, err := onebot.Dial(ctx, cfg.OneBot.WSURL, cfg.OneBot.AccessToken, callTimeout)
	if err != nil {
		return err
	}
	defer client.Close()
	slog.Info("connected", "url", cfg.OneBot.WSURL)

	monitor := watch.NewMonitor(cfg.Monitor, client)
	reactor := react.NewReactor(cfg.Reaction, client, selector, judge)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Run(ctx)
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-client.Events():
				if !ok {
					return nil
				}
				dispatch(ctx, ev, reactor, monitor)
			}
		}
	})
	return g.Wait()
}

// dispatch fans an event out to its handler. Handlers run in their own
// goroutine so a slow API call never stalls the read loop.
func dispatch(ctx context.Context, ev onebot.Event, reactor *react.Reactor, monitor *watch.Monitor) {
	switch ev.PostType {
	case "message":
		go reactor.HandleMessage(ctx, ev)
	case "notice":
		go monitor.HandleNotice(ctx, ev, ev.SelfID.String())
	}
}
