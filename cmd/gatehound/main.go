// Command gatehound runs the gateway watchdog as a standalone daemon: it
// loads the configuration file, arms the watchdog, and serves Prometheus
// metrics plus a healthz endpoint until SIGINT/SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gatehoundlib/go-gatehound/hound"
)

func main() {
	app := &cli.App{
		Name:  "gatehound",
		Usage: "health-monitoring and auto-recovery watchdog for a gateway process",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the gatehound YAML configuration",
				Value:   "/etc/gatehound/config.yaml",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "address for the metrics and healthz endpoints",
				Value: "0.0.0.0:9155",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := newLogger(c.Bool("debug"))

	cfg, cfgErr := hound.LoadConfig(c.String("config"))
	if cfgErr != nil {
		log.Errorf("invalid configuration: %s", cfgErr)
		return cfgErr
	}

	// an outage longer than two full polling intervals past the threshold
	// is reported as stalled on healthz
	monitor := hound.NewHealthMonitor(
		time.Duration(cfg.Watchdog.FailureThreshold+2) * cfg.Watchdog.Interval(),
	)

	logNotifier := newLogEventNotifier(log)
	metricsNotifier := newMetricsEventNotifier()
	notifier := func(ev hound.Event) {
		logNotifier(ev)
		metricsNotifier(ev)
		monitor.HandleEvent(ev)
	}

	spec := hound.New(log, cfg, hound.WithNotifier(notifier))
	wd := spec.Start(context.Background())
	defer wd.Terminate()

	server := newHTTPServer(c.String("listen"), monitor)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			log.Errorf("metrics server failed: %s", serveErr)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	return nil
}
