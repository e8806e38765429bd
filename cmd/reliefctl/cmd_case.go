package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reliefcheck/internal/ports"
)

var caseCmd = &cobra.Command{
	Use:   "case",
	Short: "Inspect recorded cases",
}

var caseShowFlags struct {
	summary bool
}

var caseShowCmd = &cobra.Command{
	Use:   "show <case-id>",
	Short: "Print a case file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCaseShow,
}

func init() {
	caseShowCmd.Flags().BoolVar(&caseShowFlags.summary, "summary", false, "Print only status, evidence count and verdict")
	caseCmd.AddCommand(caseShowCmd)
}

func runCaseShow(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.Cases.Get(cmd.Context(), args[0])
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("case %s not found", args[0])
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if caseShowFlags.summary {
		return enc.Encode(c.Summarize())
	}
	return enc.Encode(c)
}
