package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cadence/internal/deps"
	"cadence/internal/textutil"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries required by the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range dependencyLines(statuses, colorize) {
				fmt.Fprintln(out, line)
			}
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, status := range missing {
					names = append(names, status.Name)
				}
				return fmt.Errorf("missing required dependencies: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}
}

// dependencyLines renders a summary line followed by one line per binary.
func dependencyLines(statuses []deps.Status, colorize bool) []string {
	missingRequired := 0
	missingOptional := 0
	for _, status := range statuses {
		if status.Available {
			continue
		}
		if status.Optional {
			missingOptional++
		} else {
			missingRequired++
		}
	}

	summaryKind := statusOK
	summary := fmt.Sprintf("%d of %d available", len(statuses)-missingRequired-missingOptional, len(statuses))
	switch {
	case missingRequired > 0:
		summaryKind = statusError
	case missingOptional > 0:
		summaryKind = statusWarn
	}

	lines := make([]string, 0, len(statuses)+1)
	lines = append(lines, renderStatusLine("Summary", summaryKind, summary, colorize))
	for _, status := range statuses {
		if status.Available {
			lines = append(lines, renderStatusLine(status.Name, statusOK, fmt.Sprintf("Ready (command: %s)", status.Command), colorize))
			continue
		}
		detail := strings.TrimSpace(status.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := textutil.Ternary(status.Optional, statusWarn, statusError)
		lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
	}
	return lines
}
