package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show persisted healing history and recurrence patterns",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of recent attempts to show")
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.OpenStore(cfg.History.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	total, autoApplied, err := store.Totals()
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Healing history"))
	fmt.Printf("%s %d\n", labelStyle.Render("attempts:"), total)
	if total > 0 {
		fmt.Printf("%s %d (%.0f%%)\n", labelStyle.Render("auto-applied:"),
			autoApplied, 100*float64(autoApplied)/float64(total))
	}

	attempts, err := store.RecentAttempts(historyLimit)
	if err != nil {
		return err
	}
	if len(attempts) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("Recent attempts"))
		for _, a := range attempts {
			status := warnStyle.Render("review")
			if a.AutoApplied {
				status = okStyle.Render("applied")
			}
			fmt.Printf("%s  %-32s %-22s %.2f  %s  %s\n",
				mutedStyle.Render(a.Timestamp.Format("2006-01-02 15:04")),
				a.TestName, a.FailureKind, a.Confidence, a.Method, status)
		}
	}

	patterns, err := store.LoadPatterns()
	if err != nil {
		return err
	}
	if len(patterns) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("Recurring failures"))
		for _, p := range patterns {
			marker := ""
			if p.Count >= 3 {
				marker = warnStyle.Render("  ← recurring")
			}
			fmt.Printf("%-32s %-22s ×%d%s\n", p.TestName, p.FailureKind, p.Count, marker)
		}
	}

	if total == 0 {
		fmt.Println(mutedStyle.Render("no attempts recorded yet"))
	}
	return nil
}
