// Package rabbitmq publishes JSON messages to a RabbitMQ topic exchange.
//
// EventProducer owns one connection and one channel. LoggingPublisher is a
// drop-in for environments without a broker.
package rabbitmq
