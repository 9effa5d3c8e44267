package service

import (
	"encoding/json"

	"github.com/go-errors/errors"
	logger "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/bvgastel/crashy/crashd/cfg"
	"github.com/bvgastel/crashy/crashd/event"
)

type RabbitClient struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	queue      amqp.Queue
}

type CollectorService struct {
	cfg    cfg.Config
	rabbit *RabbitClient
}

// AddReport hands an ingested crash report to the downstream consumers.
func (s *CollectorService) AddReport(report *event.Report) error {
	msg, err := json.Marshal(report)
	if err != nil {
		logger.WithError(err).Error("Can't serialize message")
		return err
	}
	return s.publish(msg)
}

func (s *CollectorService) publish(msg []byte) error {
	return s.rabbit.channel.Publish("",
		s.rabbit.queue.Name,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         msg,
		})
}

func newRabbitClient(conf cfg.Config) *RabbitClient {
	conn, err := amqp.Dial(conf.RabbitServer())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to RabbitMQ")
		return nil
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Error("Failed to open a channel")
	}

	q, err := ch.QueueDeclare(
		conf.RabbitQueue(),
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		logger.WithError(err).Error("Failed to declare a queue")
		return nil
	}

	return &RabbitClient{conn, ch, q}
}

func NewCollector(c cfg.Config) (*CollectorService, error) {
	client := newRabbitClient(c)
	if client == nil {
		logger.Error("Can't connect to rabbit")
		return nil, errors.New("Can't connect to rabbit")
	}

	return &CollectorService{c, client}, nil
}
