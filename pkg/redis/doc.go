// Package redis provides Redis connection management for the unread
// counter cache.
//
// Configuration is environment-driven and connection setup retries
// transient failures, so services can start before Redis is reachable.
//
// # Usage
//
//	import (
//		"context"
//		"github.com/dmitrymomot/docnotify/pkg/redis"
//	)
//
//	func main() {
//		cfg := redis.Config{
//			ConnectionURL: "redis://localhost:6379/0",
//		}
//
//		client, err := redis.Connect(context.Background(), cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer client.Close()
//
//		health := redis.Healthcheck(client)
//		if err := health(context.Background()); err != nil {
//			log.Println("redis is unavailable:", err)
//		}
//	}
package redis
