package service

import (
	"encoding/json"
	"log"

	"socialfeed/internal/util"
	"socialfeed/internal/websocket"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationWorker consumes notification messages from RabbitMQ and
// pushes them to connected clients over WebSocket.
type NotificationWorker struct {
	rabbitMQ *util.RabbitMQClient
	wsHub    *websocket.Hub
	stopChan chan struct{}
}

func NewNotificationWorker(rabbitMQ *util.RabbitMQClient, wsHub *websocket.Hub) *NotificationWorker {
	return &NotificationWorker{
		rabbitMQ: rabbitMQ,
		wsHub:    wsHub,
		stopChan: make(chan struct{}),
	}
}

// Start begins consuming notification messages
func (w *NotificationWorker) Start() error {
	if w.rabbitMQ == nil {
		return nil // RabbitMQ not available, worker will not start
	}

	if err := w.rabbitMQ.DeclareExchangeAndQueue(NotificationExchange, NotificationQueueName, NotificationRoutingKey); err != nil {
		return err
	}

	msgs, err := w.rabbitMQ.GetChannel().Consume(
		NotificationQueueName,
		"notification_worker",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Notification channel closed")
					return
				}
				if err := w.process(msg); err != nil {
					log.Printf("Failed to process notification message: %v", err)
					// Don't ack on error, let RabbitMQ requeue
					msg.Nack(false, true)
					continue
				}
				msg.Ack(false)
			case <-w.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop stops the worker
func (w *NotificationWorker) Stop() {
	close(w.stopChan)
}

func (w *NotificationWorker) process(msg amqp.Delivery) error {
	var notification NotificationMessage
	if err := json.Unmarshal(msg.Body, &notification); err != nil {
		return err
	}

	if w.wsHub != nil {
		w.wsHub.BroadcastToUser(notification.UserID, map[string]interface{}{
			"type":      notification.Type,
			"title":     notification.Title,
			"message":   notification.Message,
			"data":      notification.Data,
			"timestamp": notification.Timestamp,
		})
	}

	return nil
}
