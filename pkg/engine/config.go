package engine

import "time"

// Config holds the engine's pool sizing, loadable via pkg/config.
type Config struct {
	Shards          int           `env:"NOTIFY_SHARDS" envDefault:"8"`             // Shards is the number of worker goroutines; events for one document always land on the same shard.
	QueueSize       int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`       // QueueSize is the per-shard event buffer.
	ProcessTimeout  time.Duration `env:"NOTIFY_PROCESS_TIMEOUT" envDefault:"30s"`  // ProcessTimeout bounds one event's match, write and dispatch.
	ShutdownTimeout time.Duration `env:"NOTIFY_SHUTDOWN_TIMEOUT" envDefault:"30s"` // ShutdownTimeout bounds the drain on Stop.
}
