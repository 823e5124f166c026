package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anrusu/fueldist/infra/roundapi"
	"github.com/anrusu/fueldist/qa/scenarios"
)

var (
	mockAddr     string
	mockAPIKey   string
	mockScenario string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve a local round service from a scenario file",
	RunE:  runMock,
}

func init() {
	mockCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:8080", "listen address")
	mockCmd.Flags().StringVar(&mockAPIKey, "api-key", "local-dev-key", "accepted API key")
	mockCmd.Flags().StringVarP(&mockScenario, "scenario", "s", "scenario.yaml", "scenario file")
	rootCmd.AddCommand(mockCmd)
}

func runMock(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := scenarios.Load(mockScenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	schedule := make(map[int][]roundapi.DemandEntry)
	for day, reqs := range sc.Schedule() {
		for _, r := range reqs {
			schedule[day] = append(schedule[day], roundapi.DemandEntry{
				CustomerID: r.CustomerID,
				Amount:     r.Amount,
				PostDay:    r.PostDay,
				StartDay:   r.StartDay,
				EndDay:     r.EndDay,
			})
		}
	}
	srv := roundapi.NewServerMock(mockAddr, mockAPIKey, schedule)
	return srv.Start(ctx)
}
