package worker

import (
	"context"
	"errors"

	"cnis.health/nse/records"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type storeMock struct {
	config     storeMockConfig
	calls      storeMockCalls
	concurrent *records.Record
}

type storeMockConfig struct {
	findExisting withValue
	save         failingMethod
	// saveDuplicate simulates another consumer storing the same submission
	// between lookup and save.
	saveDuplicate bool
}

type storeMockCalls struct {
	findExisting int
	save         bool
}

type rmqMock struct {
	config     rmqMockConfig
	calls      rmqMockCalls
	published  []Event
	deliveries chan amqp.Delivery
	closed     int
}

type rmqMockConfig struct {
	publishEvent        failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	publishEvent        bool
	acknowledgeDelivery bool
	rejectDelivery      bool
	dropDelivery        bool
}

type archiveMock struct {
	config archiveMockConfig
	calls  archiveMockCalls
}

type archiveMockConfig struct {
	archive failingMethod
}

type archiveMockCalls struct {
	archive bool
}

func (mock *storeMock) close() {}

func (mock *rmqMock) close() {
	mock.closed++
}

func (mock *archiveMock) close() {}

func (mock *storeMock) findExisting(ctx context.Context, task *Task) (*records.Record, error) {
	mock.calls.findExisting++
	if mock.config.findExisting.fail {
		return nil, errors.New("failed to query store")
	}
	if mock.concurrent != nil {
		return mock.concurrent, nil
	}
	switch r := mock.config.findExisting.returnedValue.(type) {
	case *records.Record:
		return r, nil
	default:
		return nil, nil
	}
}

func (mock *storeMock) save(ctx context.Context, task *Task, r *records.Record) error {
	mock.calls.save = true
	if mock.config.saveDuplicate {
		mock.concurrent = &records.Record{ID: "concurrent"}
		return records.ErrDuplicate
	}
	if mock.config.save.fail {
		return errors.New("failed to save record")
	}
	return nil
}

func (mock *rmqMock) publishEvent(task *Task, event Event) error {
	mock.calls.publishEvent = true
	if mock.config.publishEvent.fail {
		return errors.New("failed to publish event")
	}
	mock.published = append(mock.published, event)
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, log *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) dropDelivery(delivery *amqp.Delivery, log *zerolog.Logger) {
	mock.calls.dropDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return mock.deliveries
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *archiveMock) archive(ctx context.Context, task *Task, r *records.Record) error {
	mock.calls.archive = true
	if mock.config.archive.fail {
		return errors.New("failed to upload record")
	}
	return nil
}

// acknowledger records how a delivery was settled.
type acknowledger struct {
	acked    bool
	rejected bool
	requeue  bool
}

func (a *acknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *acknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.rejected, a.requeue = true, requeue
	return nil
}

func (a *acknowledger) Reject(tag uint64, requeue bool) error {
	a.rejected, a.requeue = true, requeue
	return nil
}
