package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/fedbook/config"
	"github.com/tdex-network/fedbook/internal/core/application"
	"github.com/tdex-network/fedbook/internal/core/domain"
	"github.com/tdex-network/fedbook/internal/core/ports"
	coordinatorclient "github.com/tdex-network/fedbook/internal/infrastructure/coordinator-client"
	ordercodec "github.com/tdex-network/fedbook/internal/infrastructure/order-codec"
	"github.com/tdex-network/fedbook/internal/infrastructure/pubsub"
	"github.com/tdex-network/fedbook/internal/infrastructure/relay"
	dbbadger "github.com/tdex-network/fedbook/internal/infrastructure/storage/db/badger"
	"github.com/tdex-network/fedbook/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/tdex-network/fedbook/internal/interfaces/http"
	"github.com/tdex-network/fedbook/pkg/stats"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	if err := config.InitDatadir(); err != nil {
		log.WithError(err).Fatal("error while creating datadir")
	}

	manifest, err := config.GetManifest()
	if err != nil {
		log.WithError(err).Fatal("error while loading federation manifest")
	}

	repoManager, err := newRepoManager()
	if err != nil {
		log.WithError(err).Fatal("error while opening db")
	}
	defer repoManager.Close()

	client, err := coordinatorclient.NewClient(
		config.GetRequestTimeout(),
		config.GetString(config.TorProxyKey),
		config.GetInt(config.RequestRateKey),
	)
	if err != nil {
		log.WithError(err).Fatal("error while creating coordinator client")
	}

	relayPool, err := relay.NewPool(config.GetString(config.TorProxyKey))
	if err != nil {
		log.WithError(err).Fatal("error while creating relay pool")
	}

	profiles := append(
		append([]domain.CoordinatorProfile{}, manifest.Coordinators...),
		manifest.ThirdParties...,
	)
	federation, err := application.NewFederation(application.FederationConfig{
		Settings:     config.GetSettings(),
		HostURL:      config.GetString(config.HostURLKey),
		Coordinators: manifest.Coordinators,
		ThirdParties: manifest.ThirdParties,
		Relays:       manifest.Relays,
		Client:       client,
		RelayPool:    relayPool,
		Decoder:      ordercodec.NewCodec(profiles),
		RepoManager:  repoManager,
	})
	if err != nil {
		log.WithError(err).Fatal("error while creating federation")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := federation.Restore(ctx); err != nil {
		log.WithError(err).Warn("failed to restore last federation snapshot")
	}

	pubsubSvc, err := newPubSub()
	if err != nil {
		log.WithError(err).Fatal("error while creating webhook service")
	}
	defer pubsubSvc.Close()
	stopPublisher := application.NewUpdatePublisher(federation, pubsubSvc)
	defer stopPublisher()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Address:        fmt.Sprintf(":%d", config.GetInt(config.ListeningPortKey)),
		Federation:     federation,
		PubSub:         pubsubSvc,
		Registry:       registry,
		EnableProfiler: config.GetBool(config.EnableProfilerKey),
	})
	if err != nil {
		log.WithError(err).Fatal("error while creating http interface")
	}

	if config.GetBool(config.EnableProfilerKey) {
		dumpPath := filepath.Join(
			config.GetDatadir(), config.ProfilerLocation,
			fmt.Sprintf("metrics-%d.txt", time.Now().Unix()),
		)
		stats.EnableMemoryStatistics(
			ctx, config.GetStatsInterval(), registry, dumpPath,
		)
	}

	if err := federation.Start(ctx, config.GetPollInterval()); err != nil {
		log.WithError(err).Fatal("error while starting federation")
	}
	defer federation.Stop()

	if err := httpSvc.Start(); err != nil {
		log.WithError(err).Fatal("error while starting http interface")
	}
	defer httpSvc.Stop()

	settings := federation.Settings()
	log.WithFields(log.Fields{
		"network":      settings.Network,
		"origin":       settings.Origin,
		"connection":   settings.Connection,
		"coordinators": len(manifest.Coordinators),
	}).Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")
}

func newRepoManager() (ports.RepoManager, error) {
	if config.GetString(config.DbTypeKey) == config.DbTypeInmemory {
		return inmemory.NewRepoManager(), nil
	}
	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	return dbbadger.NewRepoManager(dbDir, nil)
}

func newPubSub() (ports.PubSub, error) {
	svc := pubsub.NewService(config.GetRequestTimeout(), application.Topics()...)

	secret := config.GetString(config.WebhookSecretKey)
	for _, endpoint := range config.GetWebhookEndpoints() {
		id, err := svc.Subscribe(ports.AnyTopic, endpoint, secret)
		if err != nil {
			svc.Close()
			return nil, err
		}
		log.WithFields(log.Fields{
			"id":       id,
			"endpoint": endpoint,
		}).Info("registered webhook")
	}
	return svc, nil
}
