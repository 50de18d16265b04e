package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/btleweather/btleweather/internal/station"
	"github.com/btleweather/btleweather/internal/transport"
	"github.com/btleweather/btleweather/pkg/emr"
)

func main() {
	// Command line flags
	var (
		mac      string
		adapter  string
		scan     bool
		raw      bool
		detail   bool
		attempts int
		interval time.Duration
		idle     time.Duration
		debug    bool
	)
	flag.StringVar(&mac, "mac", "", "MAC address of the weather station")
	flag.StringVar(&adapter, "adapter", "", "Bluetooth adapter ID (default adapter if empty)")
	flag.BoolVar(&scan, "scan", false, "Scan for nearby weather stations and exit")
	flag.BoolVar(&raw, "raw", false, "Print a hex dump of the raw notification data")
	flag.BoolVar(&detail, "detail", false, "Print minimum and maximum readings and battery state")
	flag.IntVar(&attempts, "attempts", station.DefaultMaxAttempts, "Maximum measurement attempts")
	flag.DurationVar(&interval, "interval", station.DefaultRetryInterval, "Delay between attempts")
	flag.DurationVar(&idle, "idle", station.DefaultIdleQuantum, "Idle period that ends notification collection")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx := context.Background()

	if scan {
		runScan(ctx, adapter)
		return
	}

	if mac == "" {
		fmt.Fprintln(os.Stderr, "either -mac or -scan is required")
		flag.Usage()
		os.Exit(2)
	}

	ble := transport.NewBLE(adapter, station.Channels())
	st := station.New(ble, mac, idle)

	snapshot, err := st.Measure(ctx, attempts, interval)
	if err != nil {
		log.Fatal().Err(err).Str("mac", mac).Msg("Measurement failed")
	}

	if raw {
		fmt.Println(emr.Dump(st.RawData()))
		return
	}

	printSnapshot(mac, snapshot, detail)
}

func runScan(ctx context.Context, adapter string) {
	found, err := transport.Scan(ctx, adapter, nil, 2*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}

	if len(found) == 0 {
		fmt.Println("no weather stations found")
		return
	}

	addrs := make([]string, 0, len(found))
	for addr := range found {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	for _, addr := range addrs {
		fmt.Printf("%s  %s\n", addr, found[addr])
	}
}

func printSnapshot(mac string, snapshot *emr.Snapshot, detail bool) {
	fmt.Printf("Weather station %s at %s:\n", mac, snapshot.Clock.Format("2006-01-02 15:04:05"))

	units := make([]int, 0, len(snapshot.Sensors))
	for unit := range snapshot.Sensors {
		units = append(units, unit)
	}
	sort.Ints(units)

	for _, unit := range units {
		r := snapshot.Sensors[unit]
		if detail {
			fmt.Printf("  sensor %d:\n", unit)
			fmt.Printf("    temperature: %s (min %s, max %s)\n",
				tempStr(r.TempCurrent), tempStr(r.TempMin), tempStr(r.TempMax))
			fmt.Printf("    humidity:    %s (min %s, max %s)\n",
				humStr(r.HumidityCurrent), humStr(r.HumidityMin), humStr(r.HumidityMax))
			battery := "ok"
			if r.LowBattery {
				battery = "LOW"
			}
			fmt.Printf("    battery:     %s\n", battery)
		} else {
			fmt.Printf("  sensor %d: %s  %s\n", unit, tempStr(r.TempCurrent), humStr(r.HumidityCurrent))
		}
	}
}

func tempStr(t *emr.Temperature) string {
	if t == nil {
		return "--.-C"
	}
	return t.String() + "C"
}

func humStr(h *uint8) string {
	if h == nil {
		return "--%"
	}
	return fmt.Sprintf("%d%%", *h)
}
