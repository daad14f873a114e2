package app

import (
	"fmt"

	"github.com/felixgeelhaar/archivist/internal/domain/archive"
)

// WithStyles replaces the output styles.
func (a *Archivist) WithStyles(styles Styles) *Archivist {
	a.styles = styles
	return a
}

// PrintPlan outputs a human-readable plan summary.
func (a *Archivist) PrintPlan(results []archive.Result) {
	a.printf("\n%s\n\n", a.styles.Title.Render("Archivist Plan"))

	var changes, unchanged, failed int
	for _, r := range results {
		switch {
		case !r.Success():
			failed++
			a.printf("  %s %s\n", a.styles.Error.Render("✗"), r.Path)
			a.printf("      %s\n", a.styles.Error.Render(r.Err.Error()))
		case r.Changed():
			changes++
			style, marker := a.styles.kindStyle(r.Kind())
			a.printf("  %s %s\n", style.Render(marker), r.Path)
			a.printf("      %s\n", a.styles.Muted.Render(r.Narration))
		default:
			unchanged++
			style, marker := a.styles.kindStyle(r.Kind())
			a.printf("  %s %s\n", style.Render(marker), a.styles.Muted.Render(r.Path))
		}
	}

	if changes == 0 && failed == 0 {
		a.printf("\nNo changes needed. All archives are up to date.\n")
		return
	}
	a.printf("\nArchives: %d total, %d to change, %d unchanged, %d invalid\n",
		len(results), changes, unchanged, failed)
	if failed == 0 {
		a.printf("\nRun 'archivist apply' to execute this plan.\n")
	}
}

// PrintResults outputs execution results.
func (a *Archivist) PrintResults(results []archive.Result) {
	a.printf("\n%s\n\n", a.styles.Title.Render("Execution Results"))

	var changed, unchanged, failed int
	for _, r := range results {
		switch {
		case !r.Success():
			failed++
			a.printf("  %s %s\n", a.styles.Error.Render("✗"), r.Path)
			a.printf("      %s\n", a.styles.Error.Render(r.Err.Error()))
		case r.DryRun && r.Changed():
			changed++
			style, marker := a.styles.kindStyle(r.Kind())
			a.printf("  %s %s (would %s)\n", style.Render(marker), r.Path, r.Narration)
		case r.Changed():
			changed++
			a.printf("  %s %s\n", a.styles.Success.Render("✓"), r.Outcome)
		default:
			unchanged++
			a.printf("  %s %s\n", a.styles.NoOp.Render("-"), a.styles.Muted.Render(r.Outcome))
		}
	}

	a.printf("\nSummary: %d changed, %d unchanged, %d failed\n", changed, unchanged, failed)
}

// printf is a helper that writes to the output writer, ignoring errors.
func (a *Archivist) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
