package batch

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const rule = "=============================================================================="

func (r *Runner) displayInitBanner() {
	if !r.Config.Verbose {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	banner := rule + "\n"
	banner += green("       WordPress to Markdown\n")
	banner += rule + "\n"
	banner += fmt.Sprintf("Source: %s\n", r.SrcDir)
	banner += fmt.Sprintf("Target: %s\n", r.DstDir)
	banner += "Configuration:\n"
	banner += fmt.Sprintf("  - Max Concurrent: %d\n", r.Config.MaxConcurrent)
	banner += fmt.Sprintf("  - Images Saved Locally: %t\n", r.Config.Options.ImagesSavedLocally)
	banner += rule
	fmt.Fprintln(r.Config.Out, banner)
}

func (r *Runner) displayResults() {
	if !r.Config.Verbose {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.Config.Out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Markdown Length", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, WidthMax: 60},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignLeft, WidthMax: 60},
	})

	for _, res := range r.Results {
		t.AppendRow(table.Row{res.Source, strconv.Itoa(res.Bytes), status(res)})
	}
	t.Render()
}

func status(res FileResult) string {
	switch {
	case res.Err != nil:
		return color.RedString("failed: %v", res.Err)
	case res.Cached:
		return color.YellowString("cached")
	default:
		return color.GreenString("converted")
	}
}

func (r *Runner) displaySummary(s *Summary) {
	if !r.Config.Verbose {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	banner := rule + "\n"
	banner += "         " + green("Batch Complete") + "\n"
	banner += rule + "\n"
	banner += fmt.Sprintf("Converted: %d  Cached: %d  Failed: %d\n", s.Converted, s.Cached, s.Failed)
	banner += rule
	fmt.Fprintln(r.Config.Out, banner)
}

func (r *Runner) displayError(err error) {
	if !r.Config.Verbose {
		return
	}
	red := color.New(color.FgRed).SprintFunc()
	box := "┌────── " + red("⚠ Error") + " ──────┐\n"
	box += fmt.Sprintf("│ %-20s │\n", err.Error())
	box += "└─────────────────────┘"
	fmt.Fprintln(r.Config.Out, box)
}
