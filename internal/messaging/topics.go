package messaging

// Topic and consumer group names shared by the server and the workers.
const (
	TopicOrderPlaced = "order.placed"

	GroupOrderWorker = "order-worker"
)
