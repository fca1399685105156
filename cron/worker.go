package cron

import (
	"context"
	"time"

	"github.com/mouhaned372/facture-digitalisation/config"
	invoiceSvc "github.com/mouhaned372/facture-digitalisation/services/invoice"
	"github.com/mouhaned372/facture-digitalisation/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeOverdueSweep = "invoice:overdue_sweep"

// InitOverdueWorker starts the asynq worker and scheduler that drive the
// daily overdue-invoice sweep in the background.
func InitOverdueWorker(service invoiceSvc.InvoiceService) {
	logger := utils.GetLogger().Sugar()

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepDB,
	}

	// A single worker: the sweep processes its whole query snapshot itself.
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOverdueSweep, handleOverdueSweep(service))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})
	spec := config.AppConfig.OverdueSweepSpec
	if spec == "" {
		spec = "0 0 * * *"
	}
	if _, err := scheduler.Register(spec, asynq.NewTask(TypeOverdueSweep, nil)); err != nil {
		logger.Fatalf("overdue worker: failed to register sweep schedule: %v", err)
	}

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		logger.Info("overdue worker: starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Errorf("overdue worker: attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					logger.Fatal("overdue worker: max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Fatalf("overdue worker: scheduler failed: %v", err)
		}
	}()
}

func handleOverdueSweep(service invoiceSvc.InvoiceService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()
		logger.Info("overdue worker: running sweep")

		if err := service.CheckOverdueInvoices(ctx); err != nil {
			logger.Error("overdue worker: sweep failed", zap.Error(err))
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	logger := utils.GetLogger()

	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("overdue worker: redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
