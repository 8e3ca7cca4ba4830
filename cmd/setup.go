package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/racesim/racesim/sim"
	"github.com/racesim/racesim/sim/pipeline"
	"github.com/racesim/racesim/sim/roster"
	"github.com/racesim/racesim/sim/strategy"
)

// loadRoster returns the roster at path, or the embedded season when path is
// empty, racing over laps when laps > 0.
func loadRoster(path string, laps int) (*roster.Roster, error) {
	r := roster.Default()
	if path != "" {
		var err error
		if r, err = roster.Load(path); err != nil {
			return nil, err
		}
	}
	if laps < 0 {
		return nil, fmt.Errorf("%w: laps must be >= 0, got %d", sim.ErrInvalidConfig, laps)
	}
	if laps > 0 {
		r = r.WithLaps(laps)
	}
	return r, nil
}

// checkOutput rejects an unknown --output value.
func checkOutput(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown output %q; valid: text, json", format)
	}
	return nil
}

func optimize(cfg sim.RaceConfig, drivers, candidates []int, runs prometheus.Counter, log *logrus.Entry) ([]strategy.Result, error) {
	opts := []strategy.OptimizerOption{strategy.WithCandidates(candidates), strategy.WithOptimizerLogger(log)}
	if runs != nil {
		opts = append(opts, strategy.WithRunCounter(runs))
	}
	o, err := strategy.NewOptimizer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	results, err := o.Optimize(drivers)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"drivers": len(drivers), "candidates": len(candidates), "elapsed": time.Since(start),
	}).Info("strategy analysis complete")
	return results, nil
}

// serveMetrics exposes reg on addr until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", pipeline.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server: %v", err)
		}
	}()
	logrus.Infof("serving metrics on %s/metrics", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printRoster(w io.Writer, r *roster.Roster) {
	t := r.Track
	fmt.Fprintf(w, "Track %s: %d sectors, %.1f km, wear x%.2f, %d laps\n", t.ID, t.Sectors, t.LapLengthKm, t.TireWearFactor, r.TotalLaps)
	for i, d := range r.Drivers {
		fmt.Fprintf(w, "%2d %-4s %-24s %-14s agg %.2f tyre %.2f cons %.2f risk %.2f  power %.2f rel %.2f  pit@wear %.2f\n",
			i, d.ID, r.DisplayName(i), d.Car.ID, d.Aggression, d.TireManagement, d.Consistency, d.RiskTolerance,
			d.Car.EnginePower, d.Car.Reliability, sim.PitThreshold(d.DriverProfile))
	}
}
