package rmq

import (
	"fmt"
	"net"
	"net/url"

	"cnis.health/nse/logger"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Config struct {
	Host           string `envconfig:"CNIS_RMQ_HOST" required:"true"`
	Port           string `envconfig:"CNIS_RMQ_PORT" default:"5672"`
	Username       string `envconfig:"CNIS_RMQ_USERNAME" required:"true"`
	Password       string `envconfig:"CNIS_RMQ_PASSWORD" required:"true"`
	Exchange       string `envconfig:"CNIS_RMQ_EXCHANGE" default:"cnis-screening"`
	Prefetch       int    `envconfig:"CNIS_RMQ_PREFETCH" default:"5"`
	ScreeningQueue string `envconfig:"CNIS_RMQ_SCREENING_QUEUE" default:"screening.submissions"`
	ResultsQueue   string `envconfig:"CNIS_RMQ_RESULTS_QUEUE" default:"screening.events"`
}

// Client consumes screening submissions on one connection and publishes
// screening events on another, so a blocked publisher never stalls consumers.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	log            *zerolog.Logger
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

func NewClient() (*Client, error) {
	log := logger.NewLogger("RMQ client")
	config, err := ReadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	uri := getURL(config)
	respConn, respChannel, err := setup(uri)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(uri)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	closeAll := func() {
		_ = reqConn.Close()
		_ = respConn.Close()
	}

	if err := declare(reqChannel, config); err != nil {
		closeAll()
		return nil, err
	}
	if err := reqChannel.Qos(config.Prefetch, 0, false); err != nil {
		closeAll()
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := reqChannel.Consume(
		config.ScreeningQueue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	log.Info().Str("queue", config.ScreeningQueue).Msg("Consuming screening submissions")

	return &Client{
		Deliveries:     deliveries,
		ReqChanErrors:  reqChannel.NotifyClose(make(chan *amqp.Error, 1)),
		RespChanErrors: respChannel.NotifyClose(make(chan *amqp.Error, 1)),
		config:         config,
		reqConn:        reqConn,
		respConn:       respConn,
		respChannel:    respChannel,
		log:            &log,
	}, nil
}

// declare sets up the durable exchange and both queues bound under their own
// names.
func declare(ch *amqp.Channel, config Config) error {
	if err := ch.ExchangeDeclare(config.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", config.Exchange, err)
	}
	for _, queue := range []string{config.ScreeningQueue, config.ResultsQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, queue, config.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}
	return nil
}

// PublishEvent routes msg to the results queue.
func (c *Client) PublishEvent(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.ResultsQueue,
		false, // mandatory
		false, // immediate
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func getURL(config Config) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(config.Username, config.Password),
		Host:   net.JoinHostPort(config.Host, config.Port),
	}
	return u.String()
}

func setup(uri string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
