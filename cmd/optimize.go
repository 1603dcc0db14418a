package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartev/scheduler/app"
	"github.com/smartev/scheduler/config"
	"github.com/smartev/scheduler/core/model"
)

var (
	optUser     string
	optEnergy   float64
	optReadyBy  string
	optPriority string
	optCharger  string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run a one-shot slot optimization and print the result",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optUser, "user", "cli", "user id")
	optimizeCmd.Flags().Float64Var(&optEnergy, "energy", 20, "energy needed in kWh")
	optimizeCmd.Flags().StringVar(&optReadyBy, "ready-by", "", "deadline (RFC3339), default 24h from now")
	optimizeCmd.Flags().StringVar(&optPriority, "priority", "Savings", "Savings, Speed or Green")
	optimizeCmd.Flags().StringVar(&optCharger, "charger", "", "restrict to one charger id")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	priority, err := model.ParsePriority(optPriority)
	if err != nil {
		return err
	}
	readyBy := time.Now().Add(24 * time.Hour)
	if optReadyBy != "" {
		readyBy, err = time.Parse(time.RFC3339, optReadyBy)
		if err != nil {
			return fmt.Errorf("parse ready-by: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := svc.Optimizer.Optimize(ctx, model.OptimizationRequest{
		UserID:    optUser,
		EnergyKWh: optEnergy,
		ReadyBy:   readyBy,
		Priority:  priority,
		ChargerID: optCharger,
	})
	if err != nil {
		return err
	}
	if res.Infeasible != nil {
		return fmt.Errorf("no feasible slot: %s", res.Infeasible.Error())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Slots)
}
