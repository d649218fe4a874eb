package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// Format selects the report encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a flag value to a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: %w", s, domain.ErrInvalidInput)
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Render writes the snapshot in the given format
func Render(w io.Writer, snap Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, renderText(snap)+"\n")
		return err
	default:
		return fmt.Errorf("unknown format %q: %w", format, domain.ErrInvalidInput)
	}
}

func renderText(snap Snapshot) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MediVault Analytics"))
	if snap.Demo {
		b.WriteString(" " + warnStyle.Render("(demo data)"))
	}
	b.WriteString("\n")
	if !snap.UpdatedAt.IsZero() {
		b.WriteString(mutedStyle.Render("updated " + snap.UpdatedAt.Format("2006-01-02 15:04:05")))
		b.WriteString("\n")
	}
	if snap.Error != "" {
		b.WriteString(errorStyle.Render("error: "+snap.Error) + "\n")
	}
	if snap.Loading {
		b.WriteString(mutedStyle.Render("loading...") + "\n")
	}

	if snap.Empty {
		b.WriteString(sectionStyle.Render("No queries yet. Ask a question in the chat to start collecting analytics."))
		b.WriteString("\n")
		return strings.TrimRight(b.String(), "\n")
	}

	if snap.History != nil {
		b.WriteString(sectionStyle.Render(summarySection(snap)) + "\n")
	}
	if snap.Stats != nil {
		b.WriteString(sectionStyle.Render(statsSection(snap)) + "\n")
	}
	if snap.Content != nil {
		b.WriteString(sectionStyle.Render(contentSection(snap.Content)) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func row(label, value string) string {
	return fmt.Sprintf("%-24s %s", label, valueStyle.Render(value))
}

func summarySection(snap Snapshot) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Recent queries (page %d, %d of %d)",
			snap.History.Page, len(snap.History.Data), snap.History.TotalCount)),
		row("Success rate", snap.Display.SuccessRate),
		row("Avg semantic score", snap.Display.AverageSemanticScore),
		row("Avg sources", snap.Display.AverageSources),
		row("Hallucination rate", snap.Display.HallucinationRate),
	}
	return strings.Join(lines, "\n")
}

func statsSection(snap Snapshot) string {
	stats := snap.Stats

	window := fmt.Sprintf("last %d days", stats.Days)
	if stats.Days == 0 {
		window = "all history"
	}

	lines := []string{
		titleStyle.Render("Query statistics (" + window + ")"),
		row("Total queries", fmt.Sprintf("%d", stats.TotalQueries)),
	}
	if stats.AvgProcessingTime != nil {
		lines = append(lines, row("Avg processing time", fmt.Sprintf("%.0f ms", *stats.AvgProcessingTime)))
	}
	if snap.Performance != nil {
		lines = append(lines, row("RAG performance",
			fmt.Sprintf("%.0f%% (%s)", snap.Performance.Score*100, snap.Performance.Band)))
	}

	lines = append(lines, "", mutedStyle.Render("Confidence"))
	for _, level := range domain.ConfidenceLevels {
		lines = append(lines, fmt.Sprintf("  %-22s %4d", level, stats.ConfidenceDistribution[level]))
	}

	if len(stats.SourceTypeDistribution) > 0 {
		lines = append(lines, "", mutedStyle.Render("Sources"))
		kinds := make([]string, 0, len(stats.SourceTypeDistribution))
		for kind := range stats.SourceTypeDistribution {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			lines = append(lines, fmt.Sprintf("  %-22s %4d", kind, stats.SourceTypeDistribution[domain.SourceType(kind)]))
		}
	}

	if len(stats.TopQueries) > 0 {
		lines = append(lines, "", mutedStyle.Render("Top queries"))
		for i, q := range stats.TopQueries {
			lines = append(lines, fmt.Sprintf("  %2d. %s (%d)", i+1, truncate(q.Query, 60), q.Count))
		}
	}

	return strings.Join(lines, "\n")
}

func contentSection(c *domain.ContentMetrics) string {
	lines := []string{
		titleStyle.Render("Knowledge base"),
		row("Documents", fmt.Sprintf("%d", c.DocumentCount)),
		row("URLs", fmt.Sprintf("%d", c.URLCount)),
		row("Estimated tokens", fmt.Sprintf("%d", c.TotalTokenCount)),
	}

	if len(c.TopCategories) > 0 {
		lines = append(lines, "", mutedStyle.Render("Top categories"))
		for _, cat := range c.TopCategories {
			lines = append(lines, fmt.Sprintf("  %-28s %4d", cat.Category, cat.Count))
		}
	}

	lines = append(lines, "", mutedStyle.Render("Content age"))
	for _, bucket := range []string{domain.AgeUnder30, domain.Age30To90, domain.Age90To180, domain.AgeOver180, domain.AgeUnknown} {
		if n := c.ContentAgeDistribution[bucket]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %-28s %4d", bucket, n))
		}
	}

	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
