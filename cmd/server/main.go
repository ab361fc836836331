package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/graph-kpi-dashboard/credential"
	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/identity"
	"github.com/jrsteele09/graph-kpi-dashboard/internal/config"
	"github.com/jrsteele09/graph-kpi-dashboard/server"
	"github.com/jrsteele09/graph-kpi-dashboard/server/authflowrepo"
	"github.com/jrsteele09/graph-kpi-dashboard/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	// Lives as long as the process: the remote key set refreshes keys in the background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := keySet(ctx, c)
	if err != nil {
		return err
	}
	decoder, err := credential.NewDecoder(keys)
	if err != nil {
		return err
	}

	registry := sessions.NewInMemoryRegistry(c.GetSessionCleanupInterval())
	registry.StartCleanup(ctx)
	defer registry.Stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := server.NewMetrics(reg, registry)

	httpClient := &http.Client{Timeout: c.GetUpstreamTimeout()}
	graph := directory.NewGraphClient(c.GetGraphBaseURL(),
		directory.WithHTTPClient(httpClient),
		directory.WithPageSize(c.GetDirectoryPageSize()),
		directory.WithObserver(metrics),
	)
	idp := identity.New(identity.SettingsFromConfig(c), identity.WithHTTPClient(httpClient))

	handler, err := server.New(c, server.Services{
		Sessions:  registry,
		Decoder:   decoder,
		Identity:  idp,
		Directory: graph,
		AuthFlows: authflowrepo.NewInMemoryRepo(),
		Metrics:   metrics,
		Gatherer:  reg,
	})
	if err != nil {
		return err
	}

	server := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(server)
	waitForStopSignal()
	returnError = shutdown(server)
	return returnError
}

// keySet trusts the configured PEM keys, or else the issuer's published signing keys.
func keySet(ctx context.Context, c config.Config) (oidc.KeySet, error) {
	if pemData := c.GetTrustedKeysPEM(); pemData != "" {
		log.Info().Msg("Verifying credentials with configured keys")
		return credential.NewStaticKeySet(pemData)
	}
	log.Info().Str("issuer", c.GetIssuerURL()).Msg("Verifying credentials with the issuer's signing keys")
	return credential.NewRemoteKeySet(ctx, c.GetIssuerURL(), c.GetJWKSURL())
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
