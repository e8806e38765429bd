package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"reliefcheck/internal/adapters/mcp"
	"reliefcheck/internal/domain"
)

var investigateFlags struct {
	json bool
}

var investigateCmd = &cobra.Command{
	Use:   "investigate <image>",
	Short: "Investigate a flyer image and print the verdict",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvestigate,
}

func init() {
	investigateCmd.Flags().BoolVar(&investigateFlags.json, "json", false, "Print the full report as JSON")
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	img, err := mcp.ReadImage(args[0])
	if err != nil {
		return err
	}
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !investigateFlags.json {
		fmt.Fprintf(out, "Investigating: %s\n", args[0])
	}
	report := a.Investigator.Investigate(cmd.Context(), img)

	if investigateFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	if report.Status == domain.ReportError {
		return fmt.Errorf("investigation failed: %s", report.Error)
	}
	return nil
}

func printReport(out io.Writer, r domain.InvestigationReport) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(out, "\n%s\nINVESTIGATION COMPLETE\n%s\n", rule, rule)
	fmt.Fprintf(out, "\nCase ID: %s\n", r.CaseID)
	fmt.Fprintf(out, "Status: %s\n", r.Status)
	fmt.Fprintf(out, "Processing Time: %.2f seconds\n", r.ProcessingTimeSeconds)
	if r.Verdict != "" {
		fmt.Fprintf(out, "\nVERDICT: %s\n", r.Verdict.External())
		fmt.Fprintf(out, "Risk Score: %d/100\n", r.RiskScore)
	}
	if len(r.RiskFactors) > 0 {
		fmt.Fprintf(out, "\nRisk Factors:\n")
		for _, f := range r.RiskFactors {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}
	if r.Summary != "" {
		fmt.Fprintf(out, "\nSummary:\n%s\n", r.Summary)
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintf(out, "\nRecommendations:\n")
		for i, rec := range r.Recommendations {
			fmt.Fprintf(out, "  %d. %s\n", i+1, rec)
		}
	}
	fmt.Fprintf(out, "\n%s\n", rule)
}
