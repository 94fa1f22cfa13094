package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"ai-image-decoder/internal/database"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show library totals and scanned directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDatabase(cmd, root.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.CalculateStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("calculate stats: %w", err)
			}
			roots, err := db.ListScanRoots(cmd.Context())
			if err != nil {
				return fmt.Errorf("list scan roots: %w", err)
			}
			printStatus(cmd.OutOrStdout(), db.Path(), stats, roots)
			return nil
		},
	}
}

func printStatus(w io.Writer, path string, stats database.LibraryStats, roots []database.ScanRoot) {
	pterm.DefaultSection.WithWriter(w).Println("Library")
	data := pterm.TableData{
		{"Database", color.New(color.FgCyan).Sprint(path)},
		{"Images", fmt.Sprint(stats.Images)},
		{"Prompts", fmt.Sprint(stats.Prompts)},
		{"Fields", fmt.Sprint(stats.Fields)},
		{"Collections", fmt.Sprint(stats.Collections)},
	}
	categories := make([]string, 0, len(stats.Tags))
	for c := range stats.Tags {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		data = append(data, []string{"Tags (" + c + ")", fmt.Sprint(stats.Tags[c])})
	}
	_ = pterm.DefaultTable.WithBoxed().WithWriter(w).WithData(data).Render()

	pterm.DefaultSection.WithWriter(w).Println("Scan roots")
	if len(roots) == 0 {
		fmt.Fprintln(w, "No directories scanned yet.")
		return
	}
	rows := pterm.TableData{{"Path", "Recursive", "Last scanned"}}
	for _, r := range roots {
		rows = append(rows, []string{r.Path, fmt.Sprint(r.Recursive), r.LastScannedAt.Local().Format(time.DateTime)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithWriter(w).WithData(rows).Render()
}
