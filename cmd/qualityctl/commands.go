package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"call-quality-go/internal/config"
	"call-quality-go/internal/types"
	"call-quality-go/internal/watch"
)

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- process ---

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Score one transcript and record it",
		Long: `Score one transcript and record it in the history.

Examples:
  qualityctl process --text "My fridge arrived damaged" --customer "John Davis"
  qualityctl process --file ./CALL-001.txt --threshold 60 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("text")
			file, _ := cmd.Flags().GetString("file")
			callID, _ := cmd.Flags().GetString("call-id")
			customer, _ := cmd.Flags().GetString("customer")
			asJSON, _ := cmd.Flags().GetBool("json")

			if text == "" && file == "" {
				return fmt.Errorf("one of --text or --file is required")
			}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading file: %w", err)
				}
				text = string(data)
				if callID == "" {
					callID = watch.CallID(file)
				}
			}

			req := types.CallRequest{Transcript: text, CallID: callID, CustomerName: customer}
			if cmd.Flags().Changed("threshold") {
				t, _ := cmd.Flags().GetFloat64("threshold")
				if err := config.ValidateThreshold(t); err != nil {
					return err
				}
				req.ReviewThreshold = &t
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Processor.Process(ctx, req)
			if asJSON {
				return encodeJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().String("text", "", "transcript text")
	cmd.Flags().String("file", "", "transcript file; its base name is the default call id")
	cmd.Flags().String("call-id", "", "call identifier (generated when empty)")
	cmd.Flags().String("customer", "", "customer name")
	cmd.Flags().Float64("threshold", 0, "review threshold (0-100); profile default when unset")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	return cmd
}

// --- explain ---

func newExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <transcript>",
		Short: "Show how a transcript's score is built, without recording it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			label, confidence, b := a.Processor.Pipeline().Explain(args[0])
			printBreakdown(cmd.OutOrStdout(), label, confidence, b)
			return nil
		},
	}
	return cmd
}

// --- import ---

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Score every transcript in an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("xlsx")
			if path == "" {
				return fmt.Errorf("--xlsx is required")
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.Processor.ImportWorkbook(ctx, path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			flagged := 0
			for _, res := range results {
				if res.Error != "" {
					printError(cmd.ErrOrStderr(), "%s: %s", res.Record.CallID, res.Error)
					continue
				}
				printRow(out, res.Record)
				if res.Record.NeedsReview {
					flagged++
				}
				for _, warn := range res.Warnings {
					printWarning(cmd.ErrOrStderr(), "%s: %s", res.Record.CallID, warn)
				}
			}
			printSuccess(out, "Imported %d calls, %d flagged", len(results), flagged)
			return nil
		},
	}
	cmd.Flags().String("xlsx", "", "workbook with a transcript column")
	return cmd
}

// --- export ---

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the call history to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("out")
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			if err := a.Processor.Export(ctx, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}
	cmd.Flags().String("out", "call-quality.xlsx", "output workbook path")
	return cmd
}

// --- stats ---

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the call history",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			ctx := cmd.Context()
			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.Processor.Dashboard(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return encodeJSON(cmd.OutOrStdout(), d)
			}
			printDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the dashboard as JSON")
	return cmd
}

// --- watch ---

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process .txt transcripts dropped into an inbox directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = a.Config.InboxDir
			}
			if dir == "" {
				return fmt.Errorf("--dir or INBOX_DIR is required")
			}

			out := cmd.OutOrStdout()
			w := watch.New(dir, func(ctx context.Context, req types.CallRequest) {
				printRow(out, a.Processor.Process(ctx, req).Record)
			}, watch.WithLogger(a.Log))
			if err := w.Start(ctx); err != nil {
				return err
			}
			n, err := w.Backfill(ctx)
			if err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "Backfilled %d transcripts; watching %s", n, dir)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().String("dir", "", "inbox directory (default INBOX_DIR)")
	return cmd
}
