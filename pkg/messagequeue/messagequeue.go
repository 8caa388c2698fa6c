package messagequeue

// MessageQueue defines the interface for message queue services used to fan
// out domain events (invitation lifecycle, vault deletion) to consumers such
// as notification workers.
type MessageQueue interface {
	Publish(queueName string, body []byte) error
	Consume(queueName string, handler func(body []byte)) error
	Close() error
}
