package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unusual9guy/square-cropper/internal/queue"
	"github.com/unusual9guy/square-cropper/internal/utils"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume crop jobs from RabbitMQ",
	Long: `Starts --workers consumers on the crop job queue. Each job is cropped and a
result message is published to the results queue.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <images|dirs...>",
	Short: "Publish crop jobs to RabbitMQ",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEnqueue,
}

func newQueueService() (*queue.Service, error) {
	handler := queue.NewHandler(newCropper(cfg, logger), logger)
	return queue.NewService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.ResultsQueue, handler, logger)
}

func runWorker(cmd *cobra.Command, args []string) error {
	svc, err := newQueueService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for i := 1; i <= cfg.Batch.Workers; i++ {
		if err := svc.StartWorker(ctx, i); err != nil {
			stop()
			svc.Wait()
			return err
		}
	}

	logger.Info("Waiting for crop jobs", zap.Int("workers", cfg.Batch.Workers))
	<-ctx.Done()

	logger.Info("Draining in-flight jobs")
	svc.Wait()
	return nil
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	paths, err := utils.ExpandInputs(args)
	if err != nil {
		return err
	}

	svc, err := newQueueService()
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, path := range paths {
		job := &queue.CropJob{InputPath: path}
		if err := svc.PublishJob(cmd.Context(), job); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", job.ID, path)
	}
	return nil
}
