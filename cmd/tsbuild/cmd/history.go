package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/corey/tsbuild/internal/ports"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent builds",
	Long:  "Lists recorded builds, newest first, from the build ledger in .tsbuild/history.db.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.History(historyLimit)
	if err != nil {
		return explainHistoryError(err, a.Paths.HistoryDB)
	}
	renderHistory(cmd.OutOrStdout(), runs, a.Paths.WorkDir)
	return nil
}

// renderHistory writes runs as a table. Paths are shown relative to root.
func renderHistory(w io.Writer, runs []*ports.BuildRecord, root string) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no builds recorded")
		return
	}

	r := lipgloss.NewRenderer(w)
	okStyle := r.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle := r.NewStyle().Foreground(lipgloss.Color("1"))
	cell := r.NewStyle().Padding(0, 1)
	header := cell.Bold(true)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("RUN", "STARTED", "TOOK", "ABI", "STATUS", "RESULT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	for _, rec := range runs {
		status := okStyle.Render("ok")
		result := relTo(root, rec.Artifact)
		if !rec.OK() {
			stage := rec.FailedStage
			if stage == "" {
				stage = "failed"
			}
			status = failStyle.Render(stage)
			result = firstLine(rec.Error)
		}
		t.Row(
			strconv.FormatUint(rec.ID, 10),
			rec.Started.Local().Format("2006-01-02 15:04:05"),
			rec.Duration().Round(time.Millisecond).String(),
			strconv.Itoa(rec.ABIVersion),
			status,
			result,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func relTo(root, path string) string {
	if path == "" {
		return ""
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func firstLine(s string) string {
	const maxLen = 60
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen-3]) + "..."
	}
	return s
}
