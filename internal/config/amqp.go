package config

import "os"

// AMQPConfig describes the RabbitMQ connection used for order events.
type AMQPConfig struct {
	URL    string // broker URL; empty disables publishing and consuming
	Queue  string // queue receiving order.created events
	LogDir string // directory for the consumer's orders.log
}

// LoadAMQPConfig reads RABBITMQ_URL (or AMQP_URL as a fallback),
// ORDER_EVENTS_QUEUE and ORDER_LOG_DIR.
func LoadAMQPConfig() AMQPConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return AMQPConfig{
		URL:    url,
		Queue:  envStr("ORDER_EVENTS_QUEUE", "order.created"),
		LogDir: envStr("ORDER_LOG_DIR", "logs"),
	}
}
