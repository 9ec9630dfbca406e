//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Ручная проверка цикла воркера: публикует поисковое задание в очередь
// и печатает кадры из стрима задания по мере их появления.
//
//	go run scripts/test_publish.go -query "kayaking barcelona" -mode fastsearch

type searchJob struct {
	JobID   string  `json:"job_id"`
	Query   string  `json:"query"`
	Mode    string  `json:"mode"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address")
	query := flag.String("query", "kayaking barcelona", "search query")
	mode := flag.String("mode", "fastsearch", "search mode (fastsearch|deepsearch)")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	job := searchJob{
		JobID:   uuid.New().String(),
		Query:   *query,
		Mode:    *mode,
		Lat:     41.3851,
		Lon:     2.1734,
		Address: "Barcelona, Catalonia, Spain",
	}

	data, err := json.Marshal(job)
	if err != nil {
		log.Fatalf("Failed to marshal job: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:search:jobs",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish job: %v", err)
	}

	fmt.Printf("✅ Job published successfully!\n")
	fmt.Printf("   Stream: stream:search:jobs\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Job ID: %s\n", job.JobID)
	fmt.Printf("   Query: %s (%s)\n", job.Query, job.Mode)

	frameStream := "stream:search:frames:" + job.JobID
	fmt.Printf("\n⏳ Waiting for frames in %s...\n", frameStream)

	timeout := time.After(60 * time.Second)
	lastID := "0"

	for {
		select {
		case <-timeout:
			fmt.Println("❌ Timeout waiting for frames")
			return
		default:
			results, err := client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{frameStream, lastID},
				Count:   10,
				Block:   time.Second,
			}).Result()

			if err != nil {
				if err != redis.Nil {
					time.Sleep(time.Second)
				}
				continue
			}

			for _, stream := range results {
				for _, msg := range stream.Messages {
					lastID = msg.ID

					dataStr, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}

					var frame map[string]interface{}
					if err := json.Unmarshal([]byte(dataStr), &frame); err != nil {
						continue
					}

					status, _ := frame["status"].(string)
					fmt.Printf("\n📦 Frame [%s] status=%s\n", msg.ID, status)
					prettyJSON, _ := json.MarshalIndent(frame, "", "  ")
					fmt.Printf("%s\n", prettyJSON)

					switch status {
					case "completed", "failed", "error":
						fmt.Println("\n✅ Terminal frame received, done")
						return
					}
				}
			}
		}
	}
}
