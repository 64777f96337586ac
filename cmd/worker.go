package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsegaye/travel-listings/internal/core/events"
	"github.com/tsegaye/travel-listings/internal/notification"
	"github.com/tsegaye/travel-listings/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools, currently the notification mailer.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start notification worker pool",
	Long:  `Start the mail worker pool that delivers booking notifications`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var mailWorkers int

func startNotificationWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitWithOptions(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	workers := config.Email.Workers
	if mailWorkers > 0 {
		workers = mailWorkers
	}

	mailer := notification.NewSMTPMailer(
		config.Email.SMTPHost, config.Email.SMTPPort,
		config.Email.From, config.Email.Username, config.Email.Password)

	dispatcher := notification.NewDispatcher(mailer, workers, lg)

	eventBus := events.NewEventBus(lg)
	dispatcher.Register(eventBus)
	dispatcher.Start()

	lg.Info("notification worker is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down notification worker", "signal", sig)

	dispatcher.Stop()
	lg.Info("notification worker shutdown complete")
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&mailWorkers, "workers", 0, "Number of mail workers (overrides config)")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
