package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"villamedia/internal/media"
)

var regenerateAll bool

var regenerateCmd = &cobra.Command{
	Use:   "regenerate [id]",
	Short: "Fill in missing variants for one record or every record",
	Long: `Regenerate checks the variant index of a record against the file store
and renders every planned variant that is missing. Variants that exist are
left untouched, so running it twice is harmless.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if regenerateAll && len(args) > 0 {
			return errors.New("pass either an id or --all, not both")
		}
		if !regenerateAll && len(args) != 1 {
			return errors.New("an id is required unless --all is set")
		}
		return nil
	},
	RunE: runRegenerate,
}

func init() {
	regenerateCmd.Flags().BoolVar(&regenerateAll, "all", false, "Regenerate every record")
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !regenerateAll {
		rec, err := a.reconciler.Regenerate(ctx, args[0])
		var incomplete *media.IncompleteError
		switch {
		case errors.As(err, &incomplete):
			pterm.Warning.Printf("%s still missing: %s\n", rec.Filename, strings.Join(incomplete.Missing, ", "))
			return err
		case err != nil:
			return err
		}
		pterm.Success.Printf("%s is consistent (%d variants)\n", rec.Filename, len(rec.Variants))
		return nil
	}

	ids, err := a.assets.IDs(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	if len(ids) == 0 {
		pterm.Info.Println("No records to regenerate.")
		return nil
	}

	bar, _ := pterm.DefaultProgressbar.
		WithTotal(len(ids)).
		WithTitle("Regenerating variants").
		WithShowCount(true).
		WithShowElapsedTime(true).
		Start()

	var failed []string
	for _, id := range ids {
		if _, err := a.reconciler.Regenerate(ctx, id); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", id, err))
		}
		bar.Increment()
	}
	bar.Stop()

	if len(failed) > 0 {
		pterm.Error.Printf("%d of %d records still incomplete\n", len(failed), len(ids))
		for _, f := range failed {
			pterm.Println("  " + f)
		}
		return fmt.Errorf("%d records incomplete", len(failed))
	}
	pterm.Success.Printf("All %d records are consistent\n", len(ids))
	return nil
}
