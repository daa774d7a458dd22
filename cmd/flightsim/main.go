// cmd/flightsim/main.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// flightsim runs a scenario headless for a fixed number of ticks, issuing
// scripted clearances and printing the events reported by the aircraft.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/mmp/flightcore/log"
	"github.com/mmp/flightcore/nav"
	"github.com/mmp/flightcore/sim"
	"github.com/mmp/flightcore/util"

	"github.com/goforj/godump"
	"github.com/spf13/pflag"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	scenarioFilename   = pflag.StringP("scenario", "s", "", "filename of JSON file with a scenario definition (may be zstd-compressed)")
	perfFilename       = pflag.String("perf", "", "TOML file with performance profile overrides")
	numTicks           = pflag.IntP("ticks", "n", 600, "number of ticks to run")
	tickLength         = pflag.Duration("dt", time.Second, "simulated time per tick")
	clearancesFilename = pflag.StringP("clearances", "c", "", "file of TICK:CALLSIGN:CLEARANCE lines to issue")
	recordFilename     = pflag.String("record", "", "write all events to this file")
	replayFilename     = pflag.String("replay", "", "print the events in a file written with --record and exit")
	dumpState          = pflag.Bool("dump", false, "print the full state of the aircraft at exit")
	quiet              = pflag.BoolP("quiet", "q", false, "don't print events as they happen")
	logLevel           = pflag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir             = pflag.String("logdir", "", "log file directory")
	cpuprofile         = pflag.String("cpuprofile", "", "write CPU profile to file")
	navLog             = pflag.Bool("navlog", false, "enable navigation logging (requires building with -tags navlog)")
	navLogCategories   = pflag.String("navlog-categories", "all", "comma-separated navigation log categories: state, waypoint, approach, command, route")
	navLogCallsign     = pflag.String("navlog-callsign", "", "only log navigation for this aircraft")
)

// EventRecord is what's written for each event with --record.
type EventRecord struct {
	Tick    int
	SimTime time.Time
	Event   nav.Event
}

func main() {
	pflag.Parse()

	lg := log.New(*logLevel, *logDir)
	nav.InitNavLog(*navLog, *navLogCategories, *navLogCallsign)

	if *cpuprofile != "" {
		if f, err := os.Create(*cpuprofile); err != nil {
			lg.Errorf("%s: unable to create CPU profile file: %v", *cpuprofile, err)
		} else {
			if err = pprof.StartCPUProfile(f); err != nil {
				lg.Errorf("unable to start CPU profile: %v", err)
			} else {
				defer pprof.StopCPUProfile()
			}
		}
	}

	var err error
	if *replayFilename != "" {
		err = replay(*replayFilename)
	} else {
		err = run(lg)
	}
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "flightsim: %v\n", err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run(lg *log.Logger) error {
	if *scenarioFilename == "" {
		return errors.New("must specify a scenario with --scenario")
	}
	if *tickLength <= 0 {
		return fmt.Errorf("%s: tick length must be positive", *tickLength)
	}

	perf := nav.DefaultPerformance()
	if *perfFilename != "" {
		var err error
		if perf, err = nav.LoadPerformance(*perfFilename); err != nil {
			return err
		}
	}

	sc, err := sim.LoadScenario(*scenarioFilename, lg)
	if err != nil {
		return err
	}

	script, err := sc.ClearanceScript()
	if err != nil {
		return err
	}
	if *clearancesFilename != "" {
		r, err := util.OpenFile(*clearancesFilename)
		if err != nil {
			return err
		}
		more, err := sim.ParseClearanceScript(r)
		r.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", *clearancesFilename, err)
		}
		script = append(script, more...)
	}

	s, err := sc.NewSim(perf, lg)
	if err != nil {
		return err
	}
	defer s.Destroy()
	lg.Info("starting", slog.Any("performance", s.Performance()), slog.Int("ticks", *numTicks),
		slog.Duration("dt", *tickLength))

	var rw *util.RecordWriter
	if *recordFilename != "" {
		if rw, err = util.NewRecordWriter(*recordFilename); err != nil {
			return err
		}
		defer func() {
			if err := rw.Close(); err != nil {
				lg.Errorf("%s: %v", *recordFilename, err)
			}
			lg.Infof("%s: wrote %d events", *recordFilename, rw.Count())
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sub := s.Events()
	defer sub.Unsubscribe()

	start := time.Now()
	tick := 0
	for ; tick < *numTicks; tick++ {
		for _, c := range script {
			if c.Tick != tick {
				continue
			}
			if err := s.IssueClearance(c.Callsign, c.Intent); err != nil {
				// Keep going; the aircraft may have already landed.
				lg.Warnf("tick %d: %s: %v", tick, c.Intent, err)
				fmt.Fprintf(os.Stderr, "tick %d: %s: %v\n", tick, c.Intent, err)
			}
		}

		if err := s.Tick(ctx, *tickLength); err != nil {
			if errors.Is(err, context.Canceled) {
				lg.Infof("interrupted at tick %d", tick)
				break
			}
			return err
		}

		for _, e := range sub.Get() {
			if !*quiet {
				fmt.Printf("%s %5d %s\n", s.SimTime.Format("15:04:05"), tick, e)
			}
			if rw != nil {
				if err := rw.Write(EventRecord{Tick: tick, SimTime: s.SimTime, Event: e}); err != nil {
					return err
				}
			}
		}
	}
	lg.Info("finished", "ticks", tick, "elapsed", time.Since(start), "sim", s)

	fmt.Printf("\nAfter %d ticks (%s):\n", tick, s.SimTime.Format(time.RFC3339))
	for _, ac := range s.ActiveAircraft() {
		next := "-"
		if wp, ok := ac.CurrentWaypoint(); ok {
			next = wp.Fix
		}
		fmt.Printf("%-8s %-8s %-7s %-6s %s\n", ac.Callsign, ac.Nav.Phase, ac.Nav.Mode, next,
			ac.Nav.FlightState.Summary())
	}
	if *dumpState {
		godump.Dump(s.ActiveAircraft())
	}

	return nil
}

func replay(path string) error {
	return util.ReadRecords(path, func(dec *msgpack.Decoder) error {
		var r EventRecord
		if err := dec.Decode(&r); err != nil {
			return err
		}
		fmt.Printf("%s %5d %s\n", r.SimTime.Format("15:04:05"), r.Tick, r.Event)
		return nil
	})
}
