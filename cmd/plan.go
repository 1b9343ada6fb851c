package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sells-group/gmaps-contacts/internal/harvest"
	"github.com/sells-group/gmaps-contacts/internal/planner"
	"github.com/sells-group/gmaps-contacts/internal/postal"
)

var (
	planCategory string
	planState    string
	planShow     int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a state harvest would fetch, without fetching",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("plan"); err != nil {
			return err
		}

		table, err := postal.LoadTable(cfg.Data.PostalTable)
		if err != nil {
			return err
		}

		h := harvest.New(nil, filepath.Clean(cfg.Data.Dir))
		outcome, err := h.PlanState(planCategory, planState, table)
		if err != nil {
			return err
		}

		formatPlan(os.Stdout, outcome, planShow)
		return nil
	},
}

// formatPlan writes the resume counts and up to show pending keys to out.
func formatPlan(out io.Writer, o planner.Outcome, show int) {
	_, _ = fmt.Fprintf(out, "status:    %s\n", o.Status)
	_, _ = fmt.Fprintf(out, "total:     %d\n", o.Total)
	_, _ = fmt.Fprintf(out, "completed: %d\n", o.Completed)
	_, _ = fmt.Fprintf(out, "empty:     %d\n", o.Empty)
	_, _ = fmt.Fprintf(out, "pending:   %d\n", len(o.Pending))

	for i, k := range o.Pending {
		if i == show {
			_, _ = fmt.Fprintf(out, "  ... %d more\n", len(o.Pending)-show)
			break
		}
		_, _ = fmt.Fprintf(out, "  %s\n", k)
	}
}

func init() {
	planCmd.Flags().StringVarP(&planCategory, "establishment", "e", "", "place type")
	planCmd.Flags().StringVarP(&planState, "state", "s", "", "two-letter US state code")
	planCmd.Flags().IntVar(&planShow, "show", 10, "number of pending keys to list")
	_ = planCmd.MarkFlagRequired("establishment")
	_ = planCmd.MarkFlagRequired("state")
	rootCmd.AddCommand(planCmd)
}
