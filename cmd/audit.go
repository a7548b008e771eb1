package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/andresmejia3/facemask/internal/utils"
	"github.com/spf13/cobra"
)

var (
	auditLimit int
	auditSince time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent proxy requests from the audit trail",
	Run: func(cmd *cobra.Command, args []string) {
		runAudit(cmd)
	},
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Number of requests to show")
	auditCmd.Flags().DurationVar(&auditSince, "since", 24*time.Hour, "Window for the outcome summary")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command) {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		utils.Die("Failed to load configuration", err)
	}
	if err := openStore(ctx, cfg); err != nil {
		utils.Die("Audit database unavailable", err)
	}

	entries, err := DB.ListRequests(ctx, auditLimit)
	if err != nil {
		utils.Die("Failed to list requests", err)
	}

	if len(entries) == 0 {
		fmt.Println("No requests recorded.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tRECEIVED\tSTATUS\tOUTCOME\tUPSTREAM\tFACES")
	fmt.Fprintln(w, "--\t--------\t------\t-------\t--------\t-----")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%dms\t%d\n",
			e.ID, e.ReceivedAt.Local().Format("2006-01-02 15:04:05"), e.Status, e.Outcome, e.UpstreamMS, e.Faces)
	}
	w.Flush()

	counts, err := DB.OutcomeCounts(ctx, time.Now().Add(-auditSince))
	if err != nil {
		utils.Die("Failed to summarize outcomes", err)
	}
	outcomes := make([]string, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)

	fmt.Printf("\nOutcomes in the last %v:\n", auditSince)
	for _, o := range outcomes {
		fmt.Printf("  %-14s %d\n", o, counts[o])
	}
}
