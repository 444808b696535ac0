package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect stored segment results and build history",
	}
	cmd.AddCommand(newResultsListCommand(ctx))
	cmd.AddCommand(newResultsRunsCommand(ctx))
	cmd.AddCommand(newResultsClearCommand(ctx))
	return cmd
}

func newResultsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [lesson-id]",
		Short: "List lessons, or the stored segments of one lesson",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				lessons, err := st.Lessons(cmd.Context())
				if err != nil {
					return err
				}
				if len(lessons) == 0 {
					fmt.Fprintln(out, "No stored lessons")
					return nil
				}
				for _, id := range lessons {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			records, err := st.Segments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(out, "No stored segments for %s\n", args[0])
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					strconv.Itoa(rec.Position),
					rec.SegmentID,
					formatSeconds(rec.Result.Duration),
					strconv.Itoa(len(rec.Result.FragmentTimings)),
					rec.Provider,
					rec.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Segment", "Duration", "Fragments", "Provider", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newResultsRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [lesson-id]",
		Short: "Show recent lesson builds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			lessonID := ""
			if len(args) == 1 {
				lessonID = args[0]
			}
			runs, err := st.Runs(cmd.Context(), lessonID, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No builds recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				failure := ""
				if run.ErrorKind != "" {
					failure = run.ErrorKind
					if run.FailedSegment != "" {
						failure += " @ " + run.FailedSegment
					}
				}
				rows = append(rows, []string{
					run.ID,
					run.LessonID,
					string(run.Status),
					run.StartedAt.Local().Format(time.DateTime),
					fmt.Sprintf("%d/%d", run.SegmentsReused, run.SegmentsTotal),
					failure,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Lesson", "Status", "Started", "Reused", "Failure"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func newResultsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <lesson-id>",
		Short: "Forget stored segment results so the next build re-synthesizes them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			removed, err := st.ClearLesson(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d stored segments for %s\n", removed, args[0])
			return nil
		},
	}
}
