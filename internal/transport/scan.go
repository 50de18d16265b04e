package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"tinygo.org/x/bluetooth"
)

// DefaultStationNames are the GAP complete local names known to be
// advertised by supported stations.
var DefaultStationNames = []string{"IDTW211R", "IDTW213R"}

// Scan listens for advertisements for at most timeout and returns the
// stations found as a MAC address to local name map. Devices match
// when their complete local name equals one of names (pass nil for
// DefaultStationNames). The result is a plain return value; no scan
// state outlives the call.
func Scan(ctx context.Context, adapterID string, names []string, timeout time.Duration) (map[string]string, error) {
	if len(names) == 0 {
		names = DefaultStationNames
	}

	adapter := bluetooth.DefaultAdapter
	if adapterID != "" {
		adapter = bluetooth.NewAdapter(adapterID)
	}
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}

	found := make(map[string]string)
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() {
		<-scanCtx.Done()
		if err := adapter.StopScan(); err != nil {
			log.Debug().Err(err).Msg("stop scan")
		}
	}()

	// adapter.Scan blocks until StopScan or error.
	err := adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		name := result.LocalName()
		if !wanted[name] {
			log.Debug().Str("addr", result.Address.String()).Str("name", name).Msg("ignoring unknown device")
			return
		}
		log.Debug().Str("addr", result.Address.String()).Str("name", name).Msg("discovered station")
		found[result.Address.String()] = name
	})
	if err != nil && scanCtx.Err() == nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return found, nil
}
