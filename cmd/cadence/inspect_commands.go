package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cadence/internal/logging"
	"cadence/internal/playback"
	"cadence/internal/render"
	"cadence/internal/textutil"
	"cadence/internal/timeline"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var fps int

	cmd := &cobra.Command{
		Use:   "inspect <lesson-id>",
		Short: "Show the compiled timeline with frame placement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, err := ctx.timelineFor(args[0])
			if err != nil {
				return err
			}
			if fps <= 0 {
				fps = cfg.Timeline.FPS
			}
			scenes, err := render.PlaceScenes(doc.Lesson, fps)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, doc)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(scenes))
			for i, scene := range scenes {
				entry := doc.Lesson.Entries[i]
				rows = append(rows, []string{
					scene.SegmentID,
					textutil.Title(scene.Role),
					formatSeconds(entry.StartTime),
					formatSeconds(entry.EndTime),
					strconv.Itoa(scene.StartFrame),
					strconv.Itoa(scene.DurationFrames),
					scene.VisualRef,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Segment", "Role", "Start", "End", "Frame", "Frames", "Visual"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "Total duration: %ss at %d fps\n", formatSeconds(doc.Lesson.TotalDuration), fps)
			if doc.AudioURL != "" {
				fmt.Fprintf(out, "Lesson audio: %s\n", doc.AudioURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the timeline document as JSON")
	cmd.Flags().IntVar(&fps, "fps", 0, "Frame rate (defaults to timeline.fps)")
	return cmd
}

func newPausesCommand(ctx *commandContext) *cobra.Command {
	var simulate bool
	var speed float64

	cmd := &cobra.Command{
		Use:   "pauses <lesson-id>",
		Short: "List practice pause points, optionally replaying them against a simulated clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, err := ctx.timelineFor(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			boundaries := playback.Boundaries(doc.Lesson)
			if len(boundaries) == 0 {
				fmt.Fprintln(out, "No practice pause points")
				return nil
			}
			if !simulate {
				rows := make([][]string, 0, len(boundaries))
				for _, b := range boundaries {
					rows = append(rows, []string{b.SegmentID, strconv.Itoa(b.FragmentIndex), formatSeconds(b.End), b.Content, b.AuxiliaryTranslation})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Segment", "Fragment", "Pause At", "Phrase", "Translation"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			}

			if speed <= 0 {
				return errors.New("--speed must be positive")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return simulatePauses(cmd, doc.Lesson, playback.Options{
				PollInterval: cfg.PollInterval(),
				Epsilon:      cfg.Playback.BoundaryEpsilon,
				Cooldown:     cfg.Cooldown(),
			}, speed, logging.ForComponent(logger, cfg, "playback"))
		},
	}

	cmd.Flags().BoolVar(&simulate, "simulate", false, "Replay the timeline against a wall clock and print pause events")
	cmd.Flags().Float64Var(&speed, "speed", 1, "Playback speed multiplier for --simulate")
	return cmd
}

func simulatePauses(cmd *cobra.Command, tl timeline.Timeline, opts playback.Options, speed float64, logger *slog.Logger) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	runFor := time.Duration(tl.TotalDuration/speed*float64(time.Second)) + opts.PollInterval
	runCtx, cancel := context.WithTimeout(cmd.Context(), runFor)
	defer cancel()

	start := time.Now()
	source := playback.PositionFunc(func(context.Context) (float64, error) {
		return time.Since(start).Seconds() * speed, nil
	})
	monitor := playback.NewMonitor(tl, source, opts, logger)
	for event := range monitor.Run(runCtx) {
		label := fmt.Sprintf("%s #%d", event.SegmentID, event.FragmentIndex)
		fmt.Fprintln(out, renderStatusLine(label, statusInfo, fmt.Sprintf("pause at %ss: %s", formatSeconds(event.End), event.Content), colorize))
	}
	logger.Info("pause simulation finished", logging.Seconds("duration", tl.TotalDuration))
	return nil
}
