package lib

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationsExchange = "notifications"
	NotificationsQueue    = "ets.notifications"
	exchangeKind          = "topic"
)

var rabbitConn *amqp.Connection
var rabbitChannel *amqp.Channel

func getRabbitChannel() (*amqp.Channel, error) {
	if rabbitChannel != nil && !rabbitChannel.IsClosed() {
		return rabbitChannel, nil
	}
	url := os.Getenv("RABBITMQ_URL")
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(NotificationsExchange, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	rabbitConn = conn
	rabbitChannel = ch
	return ch, nil
}

func NotificationsPublish(routingKey string, payload any) error {
	ch, err := getRabbitChannel()
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := ch.Publish(
		NotificationsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	log.Printf("[RabbitMQ] published to %s/%s\n", NotificationsExchange, routingKey)
	return nil
}

// NotificationsConsume binds the notification queue to booking.* and returns
// the delivery channel. Messages are acked manually after processing.
func NotificationsConsume() (<-chan amqp.Delivery, error) {
	ch, err := getRabbitChannel()
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(NotificationsQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "booking.*", NotificationsExchange, false, nil); err != nil {
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w", err)
	}
	log.Printf("[RabbitMQ] consuming from queue: %s\n", NotificationsQueue)
	return msgs, nil
}

func CloseRabbit() {
	if rabbitChannel != nil {
		rabbitChannel.Close()
	}
	if rabbitConn != nil {
		rabbitConn.Close()
	}
}
