package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/banshee-data/clever/internal/eventio"
	"github.com/banshee-data/clever/internal/geometry"
	"github.com/banshee-data/clever/internal/monitoring"
	"github.com/banshee-data/clever/internal/reco"
	"github.com/banshee-data/clever/internal/recodb"
	"github.com/banshee-data/clever/internal/recoplot"
)

type reconstructOptions struct {
	sensors     string
	events      string
	workers     int
	dbPath      string
	notes       string
	plotDir     string
	reportPath  string
	metricsAddr string
}

func newReconstructCmd() *cobra.Command {
	var o reconstructOptions
	cmd := &cobra.Command{
		Use:   "reconstruct",
		Short: "Select hits and seed vertex candidates for every event in a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runReconstruct(ctx, cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.sensors, "sensors", "", "Sensor table CSV (id,x,y,z)")
	f.StringVar(&o.events, "events", "", "Events JSON")
	f.IntVarP(&o.workers, "workers", "w", 0, "Concurrent events (0 = GOMAXPROCS)")
	f.StringVar(&o.dbPath, "db", "", "Store results in this SQLite database")
	f.StringVar(&o.notes, "notes", "", "Free-form notes stored with the run")
	f.StringVar(&o.plotDir, "plots", "", "Write PNG projections of reconstructed events under this directory")
	f.StringVar(&o.reportPath, "report", "", "Write an HTML report to this file")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	_ = cmd.MarkFlagRequired("sensors")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}

func runReconstruct(ctx context.Context, out io.Writer, o reconstructOptions) error {
	c, err := loadConstants()
	if err != nil {
		return err
	}
	table, err := eventio.LoadSensors(o.sensors)
	if err != nil {
		return err
	}
	limits, err := geometry.FromSensors(table.Positions, c)
	if err != nil {
		return err
	}
	events, err := eventio.LoadEvents(o.events, table)
	if err != nil {
		return err
	}

	if o.metricsAddr != "" {
		shutdown := serveMetrics(o.metricsAddr)
		defer shutdown()
	}

	batch := &reco.Batch{
		Reconstructor: reco.New(c, limits),
		Workers:       o.workers,
		RunID:         uuid.New().String(),
	}

	var store *recodb.Store
	if o.dbPath != "" {
		db, err := recodb.OpenMigrated(o.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store = recodb.NewStore(db)
		if batch.RunID, err = store.StartRun(ctx, c, table.Len(), o.notes); err != nil {
			return err
		}
		batch.Sink = store
	}

	results, sum, runErr := batch.Run(ctx, events)
	printResults(out, results)
	fmt.Fprintln(out, sum)

	if store != nil {
		// A cancelled run is still stamped with what it completed.
		if err := store.FinishRun(context.WithoutCancel(ctx), batch.RunID, sum); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if o.plotDir != "" {
		dir := recoplot.MakePlotOutputDir(o.plotDir, o.events, time.Now())
		written := 0
		for _, r := range results {
			if r == nil || !r.Reconstructed() {
				continue
			}
			paths, err := recoplot.SaveProjections(dir, r)
			if err != nil {
				return err
			}
			written += len(paths)
		}
		fmt.Fprintf(out, "wrote %d plots to %s\n", written, dir)
	}

	if o.reportPath != "" {
		if err := writeReport(o.reportPath, results, sum); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote report to %s\n", o.reportPath)
	}
	return nil
}

func printResults(out io.Writer, results []*reco.Result) {
	for _, r := range results {
		if r == nil {
			continue
		}
		line := fmt.Sprintf("%-36s %-13s selected=%-4d candidates=%-4d",
			r.EventID, r.Outcome, len(r.Selected), len(r.Candidates))
		if r.Window.Ideal > 0 {
			line += fmt.Sprintf(" window=%.2fns combos=%d", r.Window.Window, r.Window.Combinations)
		}
		if r.Err != nil {
			line += " err=" + r.Err.Error()
		}
		fmt.Fprintln(out, line)
	}
}

func writeReport(path string, results []*reco.Result, sum reco.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := recoplot.WriteReport(f, results, sum); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// serveMetrics exposes the default Prometheus registry and returns a
// function that stops the server.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		monitoring.Logf("[metrics] serving on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			monitoring.Logf("[metrics] server error: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
