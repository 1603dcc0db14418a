package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartev/scheduler/app"
	"github.com/smartev/scheduler/config"
	"github.com/smartev/scheduler/pkg/export"
)

var (
	exportUser   string
	exportFormat string
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's upcoming bookings as CSV or JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportUser, "user", "", "user id (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or json")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum rows, 0 for the store default")
	_ = exportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	bookings, err := svc.Store.UpcomingByUser(ctx, exportUser, time.Now(), exportLimit)
	if err != nil {
		return err
	}

	switch exportFormat {
	case "csv":
		return export.WriteCSV(os.Stdout, bookings)
	case "json":
		return export.WriteJSON(os.Stdout, bookings)
	default:
		return fmt.Errorf("unknown format %s", exportFormat)
	}
}
