package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cnis.health/nse/api"
	"cnis.health/nse/assistant"
	"cnis.health/nse/logger"
	"cnis.health/nse/records"
	"cnis.health/nse/redis"
	"cnis.health/nse/reference"
	"cnis.health/nse/s3client"
	"cnis.health/nse/seed"
	"cnis.health/nse/worker"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const (
	storeMemory = "memory"
	storeRedis  = "redis"
)

type Config struct {
	RestAPIActive bool   `envconfig:"CNIS_REST_API_ACTIVE" default:"true"`
	RestAPIPort   string `envconfig:"CNIS_REST_API_PORT" default:"3001"`
	WorkerActive  bool   `envconfig:"CNIS_WORKER_ACTIVE" default:"false"`
	ArchiveActive bool   `envconfig:"CNIS_ARCHIVE_ACTIVE" default:"false"`
	Store         string `envconfig:"CNIS_STORE" default:"memory"`
	ReferenceDir  string `envconfig:"CNIS_REFERENCE_DIR"`
}

const (
	workerRestartDelay = 5 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func main() {
	logger.SetupLogging()
	mainLogger := logger.NewLogger("Main")
	fatalErrLogger := mainLogger.Fatal().Caller()
	seedCount := flag.Int("seed", 0, "store N generated demo screenings and exit")
	checkReference := flag.Bool("check-reference", false, "validate the reference tables and exit")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	tables, err := reference.Load(config.ReferenceDir)
	if err != nil {
		fatalErrLogger.Err(err).Msg("Failed to load reference tables")
		os.Exit(1)
	}
	if *checkReference {
		mainLogger.Info().Str("dir", config.ReferenceDir).Msg("Reference tables are valid. Exit...")
		return
	}
	assessor := &records.Assessor{Screener: tables.Screener(), Resolver: tables.Resolver()}

	store, closeStore, err := openStore(config.Store)
	if err != nil {
		fatalErrLogger.Err(err).Str("store", config.Store).Msg("Failed to open record store")
		os.Exit(1)
	}
	defer closeStore()

	if *seedCount > 0 {
		samples := seed.Generate(*seedCount, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now())
		if _, _, err := seed.Load(context.Background(), store, *assessor, samples); err != nil {
			mainLogger.Err(err).Msg("Failed to seed screenings")
		}
		return
	}

	var archiver *s3client.Client
	if config.ArchiveActive {
		archiver, err = s3client.New()
		if err != nil {
			fatalErrLogger.Err(err).Msg("Failed to create archive client")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)

	var server *http.Server
	if config.RestAPIActive {
		server = &http.Server{
			Addr:    fmt.Sprintf(":%s", config.RestAPIPort),
			Handler: api.New(store, assessor, apiOptions(mainLogger, &tables, archiver)...).Routes(),
		}
		go func() {
			mainLogger.Info().Msgf("REST API on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	workerDone := make(chan struct{})
	if config.WorkerActive {
		go func() {
			defer close(workerDone)
			runWorker(ctx, mainLogger, store, assessor, archiver)
		}()
	} else {
		close(workerDone)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		mainLogger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		mainLogger.Err(err).Msg("REST API stopped with error")
	}

	cancel()
	if server != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			mainLogger.Err(err).Msg("REST API did not shut down cleanly")
		}
	}
	<-workerDone
}

func openStore(kind string) (records.Store, func(), error) {
	switch kind {
	case storeMemory:
		return records.NewMemoryStore(), func() {}, nil
	case storeRedis:
		client, err := redis.NewClient(records.RecordsDB)
		if err != nil {
			return nil, nil, err
		}
		return records.NewRedisStore(client), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", kind)
}

func apiOptions(log zerolog.Logger, tables *reference.Tables, archiver *s3client.Client) []api.Option {
	opts := []api.Option{api.WithBaselines(tables.Baselines)}
	if archiver != nil {
		opts = append(opts, api.WithArchiver(archiver))
	}
	cfg, err := assistant.ReadConfig()
	if err != nil {
		log.Err(err).Msg("Failed to read assistant config, chat is disabled")
		return opts
	}
	if client := assistant.New(cfg); client.Available() {
		opts = append(opts, api.WithAssistant(client))
	} else {
		log.Warn().Msg("No assistant provider key set, chat is disabled")
	}
	return opts
}

// runWorker restarts the worker after failures until ctx is done.
func runWorker(ctx context.Context, log zerolog.Logger, store records.Store, assessor *records.Assessor, archiver *s3client.Client) {
	var workerArchiver worker.Archiver
	if archiver != nil {
		workerArchiver = archiver
	}
	log.Info().Msg("Start screening worker")
	for ctx.Err() == nil {
		rmqWorker, err := worker.New(store, assessor, workerArchiver)
		if err == nil {
			err = rmqWorker.StartWorker(ctx)
		}
		if err == nil {
			continue
		}
		log.Err(err).Msgf("Worker returned with error. Launching new in %s", workerRestartDelay)
		select {
		case <-ctx.Done():
		case <-time.After(workerRestartDelay):
		}
	}
}
