// Package bridge polls a weather station on a fixed interval and fans
// the decoded snapshots out to the configured publishers. It also keeps
// the latest snapshot in memory for the REST API.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/btleweather/btleweather/internal/config"
	"github.com/btleweather/btleweather/internal/station"
	"github.com/btleweather/btleweather/pkg/emr"
)

// Service drives the measurement loop.
type Service struct {
	station    *station.Station
	cfg        *config.Config
	publishers []Publisher

	mu       sync.RWMutex
	latest   *emr.Snapshot
	latestAt time.Time
}

// NewService creates a bridge service. Publishers may be empty, in
// which case snapshots are only held for the API.
func NewService(st *station.Station, cfg *config.Config, publishers ...Publisher) *Service {
	return &Service{
		station:    st,
		cfg:        cfg,
		publishers: publishers,
	}
}

// Start runs the poll loop until the context is cancelled. The first
// measurement happens immediately; a failed poll keeps the previous
// snapshot in place.
func (s *Service) Start(ctx context.Context) error {
	log.Info().
		Str("station", s.cfg.Station.MAC).
		Dur("interval", s.cfg.Bridge.PollInterval).
		Msg("Bridge service started")

	s.poll(ctx)

	ticker := time.NewTicker(s.cfg.Bridge.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Bridge service stopped")
			return nil
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Service) poll(ctx context.Context) {
	start := time.Now()

	snapshot, err := s.station.Measure(ctx, s.cfg.Station.MaxAttempts, s.cfg.Station.RetryInterval)
	if err != nil {
		log.Error().
			Err(err).
			Str("station", s.cfg.Station.MAC).
			Dur("elapsed", time.Since(start)).
			Msg("Measurement failed")
		return
	}

	measuredAt := time.Now()

	s.mu.Lock()
	s.latest = snapshot
	s.latestAt = measuredAt
	s.mu.Unlock()

	log.Info().
		Str("station", s.cfg.Station.MAC).
		Int("sensors", len(snapshot.Sensors)).
		Time("clock", snapshot.Clock).
		Dur("elapsed", time.Since(start)).
		Msg("Measurement complete")

	env := Envelope{
		MeasuredAt: measuredAt,
		Station:    s.cfg.Station.MAC,
		Snapshot:   snapshot,
	}

	for _, pub := range s.publishers {
		if err := pub.Publish(env); err != nil {
			log.Error().
				Err(err).
				Str("publisher", pub.Name()).
				Msg("Failed to publish snapshot")
		}
	}
}

// Latest returns the most recent snapshot, its measurement time and
// whether one exists yet.
func (s *Service) Latest() (*emr.Snapshot, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latestAt, s.latest != nil
}

// RawData returns the raw buffers from the most recent session.
func (s *Service) RawData() map[uint16][]byte {
	return s.station.RawData()
}
