package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mentorly/session-relay/pkg"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	config, err := pkg.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	config.ConfigureLogging()

	manager := pkg.NewManager(config)

	relayServer := &http.Server{
		Addr: config.ListenAddr,
		Handler: promhttp.InstrumentHandlerInFlight(pkg.RelayInFlightGauge,
			promhttp.InstrumentHandlerCounter(pkg.RelayRequestsCounter,
				pkg.NewRouter(manager))),
	}

	metricsServer := &http.Server{
		Addr:    config.MetricsAddr,
		Handler: pkg.NewMetricsRouter(manager, config),
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Starting relay server on ", config.ListenAddr, "...")
	go func() {
		err := relayServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Relay server failed: ", err)
		}
	}()

	log.Info("Starting metrics server on ", config.MetricsAddr, "...")
	go func() {
		err := metricsServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Metrics server failed: ", err)
		}
	}()

	<-done

	ctx, cancel := context.WithTimeout(context.Background(),
		config.ShutdownTimeout)
	defer cancel()

	log.Info("Shutting down relay server...")
	if err := relayServer.Shutdown(ctx); err != nil {
		log.Fatal("Relay server shutdown failed: ", err)
	}

	log.Info("Shutting down metrics server...")
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Fatal("Metrics server shutdown failed: ", err)
	}
}
