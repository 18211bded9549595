// Package queue wires document processing through RabbitMQ. Each queue has a
// retry companion that dead-letters messages back after a delay and a DLQ for
// messages that exhausted their retries.
package queue

import (
	"fmt"
	"time"

	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	QueueIndex  = "index_queue"
	QueueGraph  = "graph_queue"
	QueueDelete = "delete_queue"
)

// Queues lists every work queue the worker consumes.
var Queues = []string{QueueIndex, QueueGraph, QueueDelete}

// IndexJobMsg asks the worker to segment and embed one uploaded document.
type IndexJobMsg struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
}

// GraphJobMsg asks the worker to rebuild the knowledge graph. An empty
// DocumentIDs list means all stored documents.
type GraphJobMsg struct {
	Message     string   `json:"message"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// DeleteJobMsg asks the worker to remove a document and everything derived
// from it.
type DeleteJobMsg struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key,omitempty"`
}

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", name, "err", err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", dlqName, "err", err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", retryName, "err", err)
		}
	}

	return nil
}

func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
}
