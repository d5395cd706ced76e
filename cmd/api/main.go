package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"donation-form/internal/config"
	"donation-form/internal/handlers"
	"donation-form/internal/logging"
	"donation-form/internal/notify"
	"donation-form/internal/ratelimit"
	"donation-form/internal/render"
	"donation-form/internal/session"
	ws "donation-form/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "donation-form",
		Short:         "Server side controller of the charity donation form",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	v := viper.New()
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := serve(cmd.Context(), v, configPath); err != nil {
				log.Error().Err(err).Msg("Server stopped with error")
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the config file (default ./config.env)")
	bindFlags(v, cmd.Flags())

	return cmd
}

// bindFlags adds the flags that override config keys. A flag only wins over
// the environment when it is set explicitly.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.String("addr", ":8080", "address to listen on")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("SERVER_ADDR", flags.Lookup("addr"))
	_ = v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))
}

func serve(parent context.Context, v *viper.Viper, configPath string) error {
	// A .env file is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Cannot read .env")
	}

	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		return err
	}
	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Info().Msg("Starting donation form server...")

	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	renderer, err := render.NewRenderer(cfg.Panels())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter, closeLimiter := newLimiter(ctx, cfg)
	defer closeLimiter()

	hub := ws.NewHub()
	store := session.NewStore(rules, session.Deps{
		Renderer:  renderer,
		Limiter:   limiter,
		Publisher: hub,
	}, cfg.SessionOptions(), cfg.SessionTTL)

	notifier := notify.NewCenter(hub, session.KindNotification, cfg.NotificationTTL)
	defer notifier.Stop()

	if v.ConfigFileUsed() != "" {
		config.Watch(v, func(next config.Config) {
			r, err := next.Rules()
			if err != nil {
				return
			}
			store.SetRules(r)
		})
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Sessions:    store,
		Tokens:      session.NewTokens(cfg.JWTSecret, cfg.SessionTTL),
		Hub:         hub,
		Notifier:    notifier,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return store.Run(gctx) })
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newLimiter uses Redis when REDIS_ADDR is set and reachable, so cooldowns
// hold across instances. Otherwise cooldowns are kept in memory.
func newLimiter(ctx context.Context, cfg config.Config) (ratelimit.Limiter, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("Successfully connected to Redis!")
			return ratelimit.NewRedis(client, cfg.SubmitCooldown), func() { _ = client.Close() }
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, keeping cooldowns in memory")
		_ = client.Close()
	}

	m := ratelimit.NewMemory(cfg.SubmitCooldown)
	return m, m.Close
}
