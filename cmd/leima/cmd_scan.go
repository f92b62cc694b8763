package main

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yairfalse/leima/compliance"
	"github.com/yairfalse/leima/config"
	"github.com/yairfalse/leima/types"
)

// scanCmd runs a single scan and prints a summary
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a one-time compliance scan",
	Long: `Run one scan over the configured account matrix and print a
per-account, per-region compliance summary to stdout.`,
	Example: `  leima scan
  leima scan --config /etc/leima/config.yaml`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	s, err := buildScanner(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := s.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(result)
	// Exercises the same statistics path the exporter serves
	snap := compliance.Compute(result, cfg.RequiredTags)
	fmt.Printf("\n%d metric series would be exported\n", seriesCount(snap))
	return nil
}

func printSummary(result types.ScanResult) {
	accountIDs := make([]string, 0, len(result))
	for id := range result {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	for _, id := range accountIDs {
		acct := result[id]
		fmt.Printf("\nAccount: %s (%s)\n", acct.AccountName, acct.AccountID)
		if acct.Error != "" {
			fmt.Printf("  ERROR: %s\n", acct.Error)
			continue
		}

		regions := make([]string, 0, len(acct.Regions))
		for r := range acct.Regions {
			regions = append(regions, r)
		}
		sort.Strings(regions)

		for _, region := range regions {
			bucket := acct.Regions[region]
			pct := 0.0
			if bucket.Total > 0 {
				pct = float64(len(bucket.Compliant)) / float64(bucket.Total) * 100
			}
			fmt.Printf("  Region: %s\n", region)
			fmt.Printf("    Total resources: %d (excluded: %d)\n", bucket.Total, bucket.Excluded)
			fmt.Printf("    Compliant: %d\n", len(bucket.Compliant))
			fmt.Printf("    Non-compliant: %d\n", len(bucket.NonCompliant))
			fmt.Printf("    Compliance: %.1f%%\n", pct)
			for _, e := range bucket.Errors {
				fmt.Printf("    ERROR: %s\n", e)
			}
		}
	}
}

func seriesCount(snap *compliance.Snapshot) int {
	return len(snap.ResourcesScanned) +
		len(snap.CompliancePercentage) +
		len(snap.FullyCompliant) +
		len(snap.FullyCompliantByType) +
		len(snap.TagCompliant) +
		len(snap.TagNonCompliant) +
		len(snap.TagCompliancePercentage) +
		len(snap.TagTypePercentage) +
		len(snap.MissingDetails)
}
