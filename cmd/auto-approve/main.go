// Runs the auto-approval sweep, either once or on a cron schedule.
// cmd/auto-approve/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grant-portal-api/config"
	"grant-portal-api/services"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	threshold := flag.Duration("threshold", services.DefaultAutoApproveThreshold,
		"minimum application age before auto-approval")
	dryRun := flag.Bool("dry-run", false, "report qualifying applications without approving")
	lockName := flag.String("lock-name", "grant_auto_approve",
		"MySQL advisory lock name (empty disables locking)")
	schedule := flag.String("schedule", "",
		"cron expression for recurring sweeps; empty runs once and exits")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	config.InitDB()

	job := services.NewAutoApproveJob(nil, nil, nil)
	input := &services.AutoApproveInput{
		Threshold: *threshold,
		LockName:  *lockName,
		DryRun:    *dryRun,
	}

	if *schedule == "" {
		if ok := runOnce(job, input); !ok {
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() {
		runOnce(job, input)
	}); err != nil {
		log.Fatalf("Invalid schedule %q: %v", *schedule, err)
	}

	log.Printf("Auto-approve sweep scheduled: %s", *schedule)
	c.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx := c.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		log.Println("Timed out waiting for a running sweep to finish")
	}
}

func runOnce(job *services.AutoApproveJob, input *services.AutoApproveInput) bool {
	summary, err := job.Run(context.Background(), input)
	if err != nil {
		if errors.Is(err, services.ErrAutoApproveAlreadyRunning) {
			log.Println("Another sweep is already running, skipping")
			return true
		}
		log.Printf("Sweep failed: %v", err)
		return false
	}

	log.Printf("Sweep finished: scanned=%d approved=%d failed=%d (dry-run=%t)",
		summary.Scanned, summary.Approved, summary.Failed, input.DryRun)
	return summary.Failed == 0
}
