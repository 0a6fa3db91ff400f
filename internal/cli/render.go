package cli

import (
	"fmt"
	"io"
	"mail-route-tracker/internal/domain"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	tierStyles = map[domain.Tier]lipgloss.Style{
		domain.TierNever:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("201")),
		domain.TierCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		domain.TierUrgent:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		domain.TierWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		domain.TierNormal:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}

	difficultyStyles = map[domain.Difficulty]lipgloss.Style{
		domain.DifficultyEasy:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.DifficultyMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		domain.DifficultyHard:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
)

func tierLabel(t domain.Tier) string {
	return tierStyles[t].Render(fmt.Sprintf("%-8s", strings.ToUpper(t.String())))
}

func ageLabel(s *domain.Street, days int) string {
	if s.LastDelivered == nil {
		return "never"
	}
	return fmt.Sprintf("%dd", days)
}

func renderWorklist(w io.Writer, wl *domain.Worklist) {
	mode := "by urgency"
	if wl.Optimized {
		mode = "walk order"
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Area %s, %s (%s)", wl.Area, wl.Date.Format(time.DateOnly), mode)))

	for i, e := range wl.Entries {
		size := ""
		if e.Street.IsBig {
			size = "big"
		}
		flag := ""
		if e.ComplianceOverdue {
			flag = tierStyles[domain.TierCritical].Render(" overdue")
		}
		fmt.Fprintf(w, "%3d. %s %-28s %6s %4s %3d min%s\n",
			i+1, tierLabel(e.Tier), e.Street.Name, ageLabel(e.Street, e.DaysSince), size, e.EstimatedMinutes, flag)
	}

	counts := make([]string, 0, len(domain.Tiers))
	for _, t := range domain.Tiers {
		counts = append(counts, fmt.Sprintf("%s %d", t, wl.TierCounts[t.String()]))
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d streets, about %d min | %s",
		len(wl.Entries), wl.EstimatedTotal, strings.Join(counts, ", "))))
}

func renderGroups(w io.Writer, area string, g domain.TierGroups) {
	fmt.Fprintln(w, headerStyle.Render("Area "+area))
	for _, t := range domain.Tiers {
		fmt.Fprintf(w, "%s %d\n", tierLabel(t), len(g[t]))
		for _, s := range g[t] {
			fmt.Fprintf(w, "    %s\n", s.Name)
		}
	}
}

func renderForecast(w io.Writer, area string, days []domain.WorkloadForecast) {
	fmt.Fprintln(w, headerStyle.Render("Forecast for area "+area))
	for _, d := range days {
		diff := difficultyStyles[d.Difficulty].Render(fmt.Sprintf("%-6s", d.Difficulty))
		fmt.Fprintf(w, "%s %s %3d streets %4d min %2d urgent\n",
			d.Date.Format("Mon 2006-01-02"), diff, d.EstimatedStreets, d.EstimatedTime, d.UrgentCount)
		for _, r := range d.Recommendations {
			fmt.Fprintln(w, dimStyle.Render("    - "+r))
		}
	}
}

func renderInsights(w io.Writer, p domain.PatternAnalysis) {
	fmt.Fprintln(w, headerStyle.Render("Delivery patterns"))
	if p.EnoughData {
		fmt.Fprintf(w, "%d streets sampled, average %.1f min, %d fast, %d slow\n",
			p.SampledStreets, p.OverallAverage, p.FastStreets, p.SlowStreets)
	}
	for _, line := range p.Insights {
		fmt.Fprintln(w, "  - "+line)
	}
}

func renderStreet(w io.Writer, s *domain.Street) {
	last := "never"
	if s.LastDelivered != nil {
		last = s.LastDelivered.Format(time.RFC3339)
	}
	avg := "-"
	if s.AverageTime != nil {
		avg = fmt.Sprintf("%d min", *s.AverageTime)
	}
	fmt.Fprintf(w, "%-12s %-28s area %-4s last %-25s avg %s\n", s.ID, s.Name, s.Area, last, avg)
}
