// Package mongo provides MongoDB connection management for the inbox
// storage backend.
//
// Configuration is entirely environment-driven to simplify deployment
// across development, staging, and production. Connection setup retries
// transient failures and applies pooling defaults that work for typical
// notification workloads without manual tuning.
//
// # Usage
//
//	import (
//		"context"
//		"github.com/dmitrymomot/docnotify/pkg/mongo"
//	)
//
//	func main() {
//		cfg := mongo.Config{
//			ConnectionURL: "mongodb://localhost:27017",
//		}
//
//		client, err := mongo.New(context.Background(), cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer client.Disconnect(context.Background())
//
//		db, _ := mongo.NewWithDatabase(context.Background(), cfg, "docnotify")
//
//		// Wire health check
//		health := mongo.Healthcheck(client)
//		if err := health(context.Background()); err != nil {
//			log.Println("mongo is unavailable:", err)
//		}
//	}
//
// # Error Handling
//
// Connection failures are wrapped in package errors compatible with
// errors.Is() so callers can implement retry or fallback logic.
package mongo
