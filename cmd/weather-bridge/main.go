package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/btleweather/btleweather/internal/api"
	"github.com/btleweather/btleweather/internal/auth"
	"github.com/btleweather/btleweather/internal/bridge"
	"github.com/btleweather/btleweather/internal/config"
	"github.com/btleweather/btleweather/internal/station"
	"github.com/btleweather/btleweather/internal/transport"
)

func main() {
	// Command line flags
	var configFile string
	var genToken string
	flag.StringVar(&configFile, "config", "config/weather-bridge.yml", "Configuration file path")
	flag.StringVar(&genToken, "gen-token", "", "Generate an API token for the given subject and exit")
	flag.Parse()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if genToken != "" {
		tokens := auth.NewTokenManager(&cfg.API)
		if !tokens.Enabled() {
			log.Fatal().Msg("api.auth_secret is not configured, cannot generate tokens")
		}
		token, err := tokens.Generate(genToken)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to generate token")
		}
		fmt.Println(token)
		return
	}

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// No MAC configured: discover a station by scanning.
	if cfg.Station.MAC == "" {
		log.Info().Msg("No station MAC configured, scanning...")
		found, err := transport.Scan(ctx, cfg.Station.Adapter, cfg.Scan.Names, cfg.Scan.Timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("Scan failed")
		}
		if len(found) == 0 {
			log.Fatal().Msg("No weather stations found; set station.mac or STATION_MAC")
		}
		addrs := make([]string, 0, len(found))
		for addr := range found {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		cfg.Station.MAC = addrs[0]
		log.Info().Str("mac", cfg.Station.MAC).Str("name", found[cfg.Station.MAC]).Msg("Discovered weather station")
	}

	// BLE transport and measurement engine
	ble := transport.NewBLE(cfg.Station.Adapter, station.Channels())
	st := station.New(ble, cfg.Station.MAC, cfg.Station.IdleTimeout)

	var publishers []bridge.Publisher

	// Optional: NATS publisher
	if cfg.NATS.URL != "" {
		log.Info().Str("url", cfg.NATS.URL).Msg("Connecting to NATS...")

		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name("weather-bridge"),
			nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password),
			nats.ReconnectWait(cfg.NATS.ReconnectInterval),
			nats.MaxReconnects(cfg.NATS.MaxReconnects),
			nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
				log.Warn().Err(err).Msg("Disconnected from NATS")
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info().Msg("Reconnected to NATS")
			}),
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to NATS, continuing without NATS support")
		} else {
			defer nc.Close()
			log.Info().Msg("Connected to NATS")
			publishers = append(publishers, bridge.NewNATSPublisher(nc, cfg.NATS.Subject))
		}
	}

	// Optional: MQTT publisher
	if cfg.MQTT.BrokerURL != "" {
		log.Info().Str("broker", cfg.MQTT.BrokerURL).Msg("Connecting to MQTT broker...")

		pub, err := bridge.NewMQTTPublisher(&cfg.MQTT)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to MQTT, continuing without MQTT support")
		} else {
			defer pub.Close()
			publishers = append(publishers, pub)
		}
	}

	svc := bridge.NewService(st, cfg, publishers...)

	// WaitGroup for services
	var wg sync.WaitGroup

	// Start bridge poll loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := svc.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Bridge service stopped")
		}
	}()

	// Start REST API server
	apiServer := api.NewServer(cfg, svc)

	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		if err := apiServer.ListenAndServe(addr); err != nil {
			log.Error().Err(err).Msg("REST API server stopped")
		}
	}()

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	// Cancel context
	cancel()

	// Shutdown API server
	if err := apiServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown API server gracefully")
	}

	// Wait for all services
	wg.Wait()

	log.Info().Msg("Weather bridge stopped")
}
