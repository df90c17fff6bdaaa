package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cnis.health/nse/records"
	"cnis.health/nse/utils"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Task struct {
	delivery   *amqp.Delivery
	submission records.Submission
	log        *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	rejectLogger := worker.log.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(delivery)
	if err != nil {
		rejectLogger.Err(err).Str("body", string(delivery.Body)).Msg("Failed to decode screening submission")
		worker.rmq.dropDelivery(delivery, &rejectLogger)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), worker.config.TaskTimeout)
	defer cancel()
	record, err := worker.processTask(ctx, task)
	if err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.publishEvent(task, NewEvent(record)); err != nil {
		task.log.Err(err).Msg("Got error while publishing screening event")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.log.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.log.Info().
		Str("record_id", record.ID).
		Str("status", string(record.Result.OverallStatus)).
		Str("zone", string(record.Result.Zone)).
		Msg("Finished processing RMQ message")
}

// createTask decodes the delivery. Submissions without a request id fall back
// to the broker message id so redeliveries are still recognised.
func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var submission records.Submission
	if err := json.Unmarshal(delivery.Body, &submission); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	if submission.RequestID == "" {
		submission.RequestID = delivery.MessageId
	}
	taskLogger := worker.log.With().
		Str("message_id", delivery.MessageId).
		Str("request_id", submission.RequestID).
		Str("user_id", submission.UserID).
		Logger()
	return &Task{
		delivery:   delivery,
		submission: submission,
		log:        &taskLogger,
	}, nil
}

func (worker *Worker) processTask(ctx context.Context, task *Task) (*records.Record, error) {
	existing, err := worker.store.findExisting(ctx, task)
	if err != nil {
		task.log.Err(err).Msg("Got error while looking up previous submission")
		return nil, err
	}
	if existing != nil {
		task.log.Info().
			Str("record_id", existing.ID).
			Msg("Submission is already stored (might indicate issue acking message with RMQ). Republishing event.")
		return existing, nil
	}

	record, err := worker.assess(task)
	if err != nil {
		task.log.Err(err).Msg("Got error while screening submission")
		return nil, err
	}
	err = worker.store.save(ctx, task, record)
	if errors.Is(err, records.ErrDuplicate) {
		task.log.Info().Msg("Submission was stored concurrently, using stored record")
		existing, err = worker.store.findExisting(ctx, task)
		if err == nil && existing == nil {
			err = errors.New("duplicate submission disappeared from store")
		}
		if err != nil {
			task.log.Err(err).Msg("Failed to load concurrently stored record")
			return nil, err
		}
		return existing, nil
	}
	if err != nil {
		task.log.Err(err).Msg("Failed to store screening record")
		return nil, err
	}

	if worker.archive != nil {
		if err := worker.archive.archive(ctx, task, record); err != nil {
			task.log.Err(err).Str("record_id", record.ID).Msg("Failed to archive screening record")
		}
	}
	return record, nil
}

func (worker *Worker) assess(task *Task) (record *records.Record, err error) {
	defer utils.RecoverWithError(&err)
	return worker.assessor.Assess(task.submission), nil
}
