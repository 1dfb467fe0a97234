package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classattend/internal/attendance"
	"classattend/internal/config"
	"classattend/internal/faceclient"
	"classattend/internal/metrics"
	"classattend/internal/queue"
	"classattend/internal/store"
)

// Worker consumes recognition jobs, calls the face service, and writes the
// recognized roster onto pending attendance records.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL, store.PoolConfig{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		ConnLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisDialTimeout, cfg.RedisOpTimeout)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classattend:jobs")
	}

	att := attendance.NewService(attendance.NewRepository(db.Client), cfg.StoreTimeout)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	// Check face service health on startup
	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: face service not available: %v", err)
			log.Println("worker will retry recognition when jobs arrive")
		} else {
			log.Println("face service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for jobs...")
	for msg := range messages {
		if msg.Type != queue.TypeRecognize {
			continue
		}

		var job queue.RecognizeJob
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			log.Printf("bad job payload: %v", err)
			continue
		}
		log.Printf("processing record %s", job.RecordID)

		rec, err := att.Get(ctx, job.RecordID)
		if err != nil {
			log.Printf("fetch record %s failed: %v", job.RecordID, err)
			metrics.RecognitionJobs.WithLabelValues("error").Inc()
			continue
		}
		if rec.Status != attendance.StatusPending {
			log.Printf("record %s already %s, skipping", rec.ID, rec.Status)
			continue
		}

		result, err := face.RecognizeURL(ctx, rec.ImageURL)
		if err != nil || !result.Success {
			if err != nil {
				log.Printf("recognition failed for %s: %v", rec.ID, err)
			} else {
				log.Printf("recognition rejected for %s: %s", rec.ID, result.Message)
			}
			_ = att.Fail(ctx, rec.ID)
			metrics.RecognitionJobs.WithLabelValues("failed").Inc()
			continue
		}

		roster := make([]string, 0, len(result.Students))
		for _, s := range result.Students {
			roster = append(roster, s.Token())
		}

		if err := att.Finalize(ctx, rec.ID, roster); err != nil {
			log.Printf("finalize %s failed: %v", rec.ID, err)
			metrics.RecognitionJobs.WithLabelValues("error").Inc()
			continue
		}
		metrics.RecognitionJobs.WithLabelValues("ok").Inc()
		log.Printf("record %s processed, %d students recognized", rec.ID, len(roster))

		time.Sleep(10 * time.Millisecond) // small delay between jobs
	}

	log.Println("worker stopped")
}
