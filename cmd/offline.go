package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anrusu/fueldist/infra/logger"
	"github.com/anrusu/fueldist/qa/scenarios"
)

var scenarioPath string

var offlineCmd = &cobra.Command{
	Use:   "offline",
	Short: "Replay a scenario without the live round service",
	RunE:  runOffline,
}

func init() {
	offlineCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "scenario.yaml", "scenario file")
	rootCmd.AddCommand(offlineCmd)
}

func runOffline(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := scenarios.Load(scenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	log := logger.New("offline")
	out, err := scenarios.Run(ctx, sc, log)
	if err != nil {
		return err
	}
	log.Infof("scenario %s: fulfilled=%d pending=%d missed=%d movements=%d",
		sc.Name, out.Fulfilled, out.Pending, out.Missed, out.Movements)
	if sc.Expected.Fulfilled != 0 && out.Fulfilled != sc.Expected.Fulfilled {
		return fmt.Errorf("expected %d fulfilled, got %d", sc.Expected.Fulfilled, out.Fulfilled)
	}
	return nil
}
