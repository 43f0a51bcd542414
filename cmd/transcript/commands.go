package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/foxseedlab/sirius/internal/transcript"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect JSONL call transcripts",
		Long: `Runs the transcript pipeline on a local JSONL file. Pass "-" to read
from standard input.`,
		SilenceUsage: true,
	}
	root.AddCommand(newSummaryCmd(), newGroupsCmd(), newSegmentsCmd())
	return root
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <file|->",
		Short: "Print the one-line transcript summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseInput(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), transcript.Summarize(parsed))
			return err
		},
	}
}

func newGroupsCmd() *cobra.Command {
	var (
		gap    int64
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "groups <file|->",
		Short: "Print speaker groups as [MM:SS] speaker: text lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if gap <= 0 {
				return fmt.Errorf("--gap must be positive, got %d", gap)
			}
			parsed, err := parseInput(cmd, args[0])
			if err != nil {
				return err
			}
			groups := transcript.GroupWithGap(parsed.Segments, gap)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), groups)
			}
			if len(groups) == 0 {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), transcript.RenderGroups(groups))
			return err
		},
	}
	cmd.Flags().Int64Var(&gap, "gap", transcript.DefaultMergeGap, "largest same-speaker gap in milliseconds that still merges")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newSegmentsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "segments <file|->",
		Short: "Print the speech segments kept by the parser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseInput(cmd, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), parsed)
			}
			out := cmd.OutOrStdout()
			for _, seg := range parsed.Segments {
				if _, err := fmt.Fprintf(out, "%s-%s\t%s\t%s\n",
					transcript.FormatTimestamp(seg.StartTS), transcript.FormatTimestamp(seg.StopTS), seg.SpeakerID, seg.Text); err != nil {
					return err
				}
			}
			if parsed.SkippedLines > 0 {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d unparseable lines\n", parsed.SkippedLines)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func parseInput(cmd *cobra.Command, path string) (transcript.Parsed, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return transcript.Parsed{}, fmt.Errorf("read transcript: %w", err)
	}
	return transcript.Parse(string(content)), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
