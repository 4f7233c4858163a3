package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/rbac-admin-panel/config"
	"github.com/oksasatya/rbac-admin-panel/internal/worker"
	"github.com/oksasatya/rbac-admin-panel/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-audit", cfg.Env, cfg.LogLevel)
	if cfg.RabbitMQURL == "" || cfg.RabbitMQAuditQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	rc, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQAuditQueue, 16)
	if err != nil {
		log.Fatalf("amqp consumer: %v", err)
	}
	defer rc.Close()

	consumer := &worker.AuditConsumer{Logger: logger, Index: cfg.ESUsersIndex + "-audit"}
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		if es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass); err == nil {
			consumer.ES = es
		} else {
			logger.WithError(err).Warn("elasticsearch disabled")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range rc.Deliveries {
			err := consumer.Handle(ctx, msg.Body)
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, worker.ErrBadMessage):
				logger.WithError(err).Warn("dropping audit message")
				_ = msg.Nack(false, false)
			default:
				logger.WithError(err).Error("audit message failed, requeueing")
				_ = msg.Nack(false, true)
			}
		}
	}()

	logger.Infof("audit worker consuming %s", cfg.RabbitMQAuditQueue)
	select {
	case <-stop:
		logger.Info("audit worker stopping")
	case <-done:
		logger.Warn("delivery channel closed")
	}
}
