package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/classway/callkit/internal/api"
	"github.com/classway/callkit/internal/calls"
	"github.com/classway/callkit/internal/config"
	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus"
	"github.com/classway/callkit/internal/history"
	"github.com/classway/callkit/internal/media"
	"github.com/classway/callkit/internal/rtc"
)

func main() {
	app := &cli.App{
		Name:  "callkit",
		Usage: "Peer-to-peer call agent",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to yaml config",
				Value: "configs/callkit.yml",
			},
			&cli.StringFlag{
				Name:     "user",
				Usage:    "peer ID of the local user this agent serves",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "listen IP and port, overrides the config value",
			},
		},
		Action: start,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}

func start(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if addr := c.String("address"); addr != "" {
		cfg.Address = addr
	}

	initLogger(cfg.Env)

	localPeer := core.PeerID(c.String("user"))

	bus, err := newSignalingBus(cfg)
	if err != nil {
		return err
	}

	rtcConf, err := config.NewWebRTCConfig(cfg)
	if err != nil {
		return err
	}

	coordinator := calls.NewCoordinator(calls.Options{
		LocalPeer:  localPeer,
		Publisher:  bus.publisher,
		Subscriber: bus.subscriber,
		Media:      media.NewDeviceProvider(),
		NewTransport: func() (calls.Transport, error) {
			return rtc.NewTransport(rtc.TransportParams{
				EnabledCodecs: config.EnabledCodecs,
				Config:        rtcConf,
			})
		},
		Ringer:          &logRinger{},
		MaxCallDuration: cfg.Call.MaxDuration,
		RingInterval:    cfg.Call.RingInterval,
	})

	var records history.CallRecordsStorer
	if cfg.Database.DSN != "" {
		db, err := sqlx.Connect("pgx", cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		records = history.NewCallRecordsRepository(db)
		coordinator.OnEnded(recordCall(records, localPeer))
	}

	if err := coordinator.Start(); err != nil {
		return err
	}
	defer coordinator.Close()

	apiApp := api.NewApp(api.AppOptions{
		Coordinator:      coordinator,
		EventsPublisher:  bus.publisher,
		EventsSubscriber: bus.subscriber,
		CallRecords:      records,
		AuthTokens:       cfg.AuthTokens,
	})

	return serve(cfg.Address, apiApp.Router())
}

type signalingBus struct {
	publisher  eventbus.Publisher
	subscriber eventbus.Subscriber
}

func newSignalingBus(cfg *config.Config) (*signalingBus, error) {
	switch cfg.Signaling.Driver {
	case config.SignalingDriverNats:
		nc, err := nats.Connect(cfg.Signaling.NatsURL)
		if err != nil {
			return nil, err
		}
		bus := eventbus.NatsPubSub(nc)
		return &signalingBus{publisher: bus, subscriber: bus}, nil
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Signaling.RedisAddr,
			DB:   cfg.Signaling.RedisDB,
		})
		bus := eventbus.RedisPubSub(rdb)
		return &signalingBus{publisher: bus, subscriber: bus}, nil
	}
}

func recordCall(records history.CallRecordsStorer, localPeer core.PeerID) func(calls.Snapshot) {
	return func(snap calls.Snapshot) {
		caller, callee := snap.LocalPeer, snap.RemotePeer
		if snap.Direction == core.Incoming {
			caller, callee = snap.RemotePeer, snap.LocalPeer
		}

		record := history.NewCallRecord(snap.ID, caller, callee, snap.Kind)
		if !snap.StartedAt.IsZero() {
			startedAt := snap.StartedAt
			record.StartedAt = &startedAt
		}
		record.DurationSeconds = snap.ElapsedSeconds
		record.EndReason = snap.EndReason

		if _, err := records.Save(record); err != nil {
			log.Error().Err(err).Str("service", "history").Msg("can't save call record")
		}
	}
}

func serve(address string, handler http.Handler) error {
	quit := make(chan os.Signal, 1)
	done := make(chan struct{}, 1)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 1 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Warn().Msg("received signal to terminate the server")
		close(done)
	})

	go func() {
		<-quit
		log.Warn().Msg("the server is going shutting down")

		// Wait 20 seconds for close http connections
		waitIdleConnCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(waitIdleConnCtx); err != nil {
			log.Fatal().Err(err).Msg("can't gracefully shutdown the server")
		}
	}()

	log.Info().Str("address", address).Msg("starting call agent")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-done
	log.Info().Msg("all services are stopped")

	return nil
}

func initLogger(env core.Environment) {
	// production keeps the default JSON output for log collectors
	if !env.IsProduction() {
		cw := zerolog.NewConsoleWriter()
		log.Logger = log.Output(cw)
	}

	level := zerolog.InfoLevel
	if env.IsDevelopment() {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)
}

// logRinger is the headless stand-in for the renderer's ringtone loop.
type logRinger struct{}

func (r *logRinger) Ring() {
	log.Info().Str("service", "calls").Msg("ring")
}
