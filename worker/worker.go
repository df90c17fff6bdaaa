package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cnis.health/nse/logger"
	"cnis.health/nse/records"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

type Config struct {
	TaskTimeout time.Duration `envconfig:"CNIS_WORKER_TASK_TIMEOUT" default:"30s"`
}

// Worker turns queued screening submissions into stored records and
// publishes one event per record.
type Worker struct {
	config   Config
	store    storeTransactions
	archive  archiveTransactions
	rmq      rmqTransactions
	dial     func() (rmqTransactions, error)
	log      *zerolog.Logger
	assessor *records.Assessor
	inFlight sync.WaitGroup
}

// New connects to RabbitMQ. A nil archiver disables archiving.
func New(store records.Store, assessor *records.Assessor, archiver Archiver) (*Worker, error) {
	log := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:   config,
		store:    &storeWrapper{store},
		dial:     dialRMQ,
		log:      &log,
		assessor: assessor,
	}
	if archiver != nil {
		worker.archive = &archiveWrapper{archiver}
	}
	if err := worker.refreshRMQClient(); err != nil {
		log.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	return &worker, nil
}

// StartWorker consumes until ctx is done or the RMQ client cannot be
// refreshed. In-flight messages are finished before it returns.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	defer worker.inFlight.Wait()
	for {
		select {
		case <-ctx.Done():
			worker.log.Info().Msg("Stopping worker")
			return nil
		case delivery, ok := <-worker.rmq.getDeliveriesCh():
			if ok {
				worker.inFlight.Add(1)
				go func() {
					defer worker.inFlight.Done()
					worker.processMessage(&delivery)
				}()
				continue
			}
			worker.log.Error().Msg("Deliveries channel closed, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"rmq deliveries channel has been closed and refresh returned error: %w",
					err,
				)
			}
		case rmqErr := <-worker.rmq.getRespChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			worker.log.Err(rmqErr).Msg("Response connection received error, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"response connection received error and refresh failed with: %w",
					err,
				)
			}
		case rmqErr := <-worker.rmq.getReqChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			worker.log.Err(rmqErr).Msg("Request connection received error, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"request connection received error and refresh failed with: %w",
					err,
				)
			}
		}
	}
}

func (worker *Worker) Close() {
	worker.store.close()
	if worker.archive != nil {
		worker.archive.close()
	}
	if worker.rmq != nil {
		worker.rmq.close()
		worker.rmq = nil
	}
}

// refreshRMQClient closes the current client. On failure the worker is left
// without one.
func (worker *Worker) refreshRMQClient() error {
	worker.log.Info().Msg("Refreshing RMQ client")
	if oldClient := worker.rmq; oldClient != nil {
		worker.rmq = nil
		defer oldClient.close()
	}
	dial := worker.dial
	if dial == nil {
		dial = dialRMQ
	}
	rmqClient, err := dial()
	if err != nil {
		worker.log.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.rmq = rmqClient
	worker.log.Info().Msg("Refreshed RMQ client")
	return nil
}
