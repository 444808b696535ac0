package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadence/internal/events"
	"cadence/internal/logging"
	"cadence/internal/pipeline"
	"cadence/internal/telemetry"
)

type buildOutput struct {
	RunID         string          `json:"runId"`
	LessonID      string          `json:"lessonId"`
	Status        string          `json:"status"`
	Assembled     int             `json:"assembled"`
	Reused        int             `json:"reused"`
	TimelinePath  string          `json:"timelinePath,omitempty"`
	AudioURL      string          `json:"audioUrl,omitempty"`
	TotalDuration float64         `json:"totalDuration"`
	Events        []events.Event  `json:"events"`
	Metrics       []metricOutput  `json:"metrics,omitempty"`
	Segments      []segmentOutput `json:"segments"`
}

type segmentOutput struct {
	ID        string  `json:"id"`
	AudioPath string  `json:"audioPath"`
	Duration  float64 `json:"duration"`
	Fragments int     `json:"fragments"`
	Reused    bool    `json:"reused"`
}

type metricOutput struct {
	Name       string  `json:"name"`
	Attributes string  `json:"attributes,omitempty"`
	Value      float64 `json:"value"`
	Count      uint64  `json:"count"`
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string
	var jsonOutput bool
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "build <lesson-id>",
		Short: "Synthesize segment audio and compile the lesson timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lessonID := args[0]
			script, err := ctx.loadScript(lessonID, scriptPath)
			if err != nil {
				return err
			}
			s, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			build := s.runner.Stream(cmd.Context(), script.LessonID, script)
			var collected []events.Event
			for event := range build.Events() {
				collected = append(collected, event)
				if !jsonOutput {
					fmt.Fprintln(out, renderEventLine(event, colorize))
				}
			}
			report, buildErr := build.Wait()
			report.Events = collected

			samples, err := s.telemetry.Snapshot(cmd.Context())
			if err != nil {
				s.logger.Debug("metrics snapshot failed", logging.Error(err))
			}

			if jsonOutput {
				if err := writeJSON(cmd, newBuildOutput(report, samples)); err != nil {
					return err
				}
				return buildErr
			}
			if buildErr != nil {
				return buildErr
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSegmentTable(report.Segments))
			if showMetrics && len(samples) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderMetricsTable(samples))
			}
			fmt.Fprintf(out, "Total duration: %ss\n", formatSeconds(report.Timeline.TotalDuration))
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Lesson script (defaults to <lessons_dir>/<lesson-id>/script.json)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the build report as JSON")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print build metrics after the segment table")
	return cmd
}

func newCompileCommand(ctx *commandContext) *cobra.Command {
	var scriptPath string

	cmd := &cobra.Command{
		Use:   "compile <lesson-id>",
		Short: "Compile the timeline from stored segment results without synthesizing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lessonID := args[0]
			script, err := ctx.loadScript(lessonID, scriptPath)
			if err != nil {
				return err
			}
			s, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			outcome, err := s.runner.CompileStored(cmd.Context(), script.LessonID, script)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outcome.Skipped {
				fmt.Fprintf(out, "Timeline already compiled at %s\n", outcome.Path)
				return nil
			}
			fmt.Fprintf(out, "Compiled %d segments (%ss) to %s\n",
				len(outcome.Document.Lesson.Entries),
				formatSeconds(outcome.Document.Lesson.TotalDuration),
				outcome.Path,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Lesson script (defaults to <lessons_dir>/<lesson-id>/script.json)")
	return cmd
}

func newBuildOutput(report pipeline.Report, samples []telemetry.Sample) buildOutput {
	out := buildOutput{
		RunID:         report.RunID,
		LessonID:      report.LessonID,
		Status:        string(report.Status),
		Assembled:     report.Assembled,
		Reused:        report.Reused,
		TimelinePath:  report.TimelinePath,
		AudioURL:      report.AudioURL,
		TotalDuration: report.Timeline.TotalDuration,
		Events:        report.Events,
		Segments:      make([]segmentOutput, 0, len(report.Segments)),
	}
	for _, seg := range report.Segments {
		out.Segments = append(out.Segments, segmentOutput(seg))
	}
	for _, sample := range samples {
		out.Metrics = append(out.Metrics, metricOutput{
			Name:       sample.Name,
			Attributes: sample.Attributes,
			Value:      sample.Value,
			Count:      sample.Count,
		})
	}
	return out
}

func renderSegmentTable(segments []pipeline.SegmentSummary) string {
	rows := make([][]string, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, []string{
			seg.ID,
			formatSeconds(seg.Duration),
			strconv.Itoa(seg.Fragments),
			yesNo(seg.Reused),
			seg.AudioPath,
		})
	}
	return renderTable(
		[]string{"Segment", "Duration", "Fragments", "Reused", "Audio"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func renderMetricsTable(samples []telemetry.Sample) string {
	rows := make([][]string, 0, len(samples))
	for _, sample := range samples {
		rows = append(rows, []string{
			sample.Name,
			sample.Attributes,
			strconv.FormatFloat(sample.Value, 'f', -1, 64),
			strconv.FormatUint(sample.Count, 10),
		})
	}
	return renderTable(
		[]string{"Metric", "Attributes", "Value", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	)
}
