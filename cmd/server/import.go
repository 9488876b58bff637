package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	grpcadapter "github.com/simaogato/billlink-backend/internal/adapter/grpc"
	"github.com/simaogato/billlink-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/billlink-backend/internal/usecase/admin"
)

func importCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "import [bills.csv]",
		Short: "Create bills from a CSV file and print their customer links",
		Long: `Create one bill per row of a CSV file with the header
customer_name,amount,due_date,lender

amount is required, due_date is YYYY-MM-DD, other columns may be empty.
Nothing is created when a row cannot be parsed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			_, db, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}

			adminService := admin.NewAdminService(postgres.NewBillRepository(db))
			imported, err := adminService.ImportBills(ctx, f)
			for _, bill := range imported {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s%s\n", bill.Line, bill.ID, baseURL, grpcadapter.CustomerLink(bill.ID))
			}
			if err != nil {
				return err
			}

			logger.Info("bills imported", zap.Int("count", len(imported)), zap.String("file", args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "prefix printed in front of each customer link")
	return cmd
}
