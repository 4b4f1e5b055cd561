package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"villamedia/internal/storage"
	"villamedia/pkg/utils"
)

var (
	sweepDelete bool
	sweepGrace  time.Duration
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Report stored files that no record references",
	Long: `Sweep lists files in the file store that are neither an original nor a
variant of any record. These are left behind by interrupted uploads or
partial deletes. With --delete they are removed.

Files modified within the grace window are left alone: a running server
writes an upload's files before its record names them.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDelete, "delete", false, "Remove the orphaned files")
	sweepCmd.Flags().DurationVar(&sweepGrace, "grace", 10*time.Minute, "Skip files modified more recently than this")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	referenced, err := a.assets.ReferencedFiles(ctx)
	if err != nil {
		return fmt.Errorf("load references: %w", err)
	}
	stored, err := a.files.List(ctx)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	orphans, recent := storage.Orphans(stored, referenced, time.Now().Add(-sweepGrace))

	pterm.Info.Printf("%d files stored, %d referenced, %d orphaned\n", len(stored), len(referenced), len(orphans))
	if recent > 0 {
		pterm.Info.Printf("%d unreferenced files are newer than %s and were skipped\n", recent, sweepGrace)
	}
	if len(orphans) == 0 {
		return nil
	}

	data := pterm.TableData{{"File", "Size", "Modified", "Status"}}
	removed := 0
	for _, o := range orphans {
		status := "orphaned"
		if sweepDelete {
			if err := a.files.Remove(ctx, o.Name); err != nil {
				status = "remove failed: " + err.Error()
			} else {
				status = "removed"
				removed++
			}
		}
		data = append(data, []string{o.Name, utils.FormatBytes(o.Size), o.ModTime.Format(time.DateTime), status})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if sweepDelete {
		pterm.Success.Printf("Removed %d of %d orphaned files\n", removed, len(orphans))
	} else {
		pterm.Info.Println("Run with --delete to remove them.")
	}
	return nil
}
