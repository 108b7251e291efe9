// Package feedback renders an interview evaluation for the terminal.
package feedback

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/interview-coach/internal/ai"
)

type Band string

const (
	BandHigh   Band = "high"
	BandMiddle Band = "middle"
	BandLow    Band = "low"
)

// BandFor maps a score to its colour tier. Bands never change behaviour.
func BandFor(score int) Band {
	switch {
	case score >= 85:
		return BandHigh
	case score >= 60:
		return BandMiddle
	default:
		return BandLow
	}
}

var bandColors = map[Band]lipgloss.Color{
	BandHigh:   lipgloss.Color("#4ADE80"),
	BandMiddle: lipgloss.Color("#FACC15"),
	BandLow:    lipgloss.Color("#F87171"),
}

var (
	headingStyle     = lipgloss.NewStyle().Bold(true)
	strengthStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80"))
	improvementStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FACC15"))
	summaryStyle     = lipgloss.NewStyle().Width(80)
)

// ScoreStyle returns the style used for a score.
func ScoreStyle(score int) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(bandColors[BandFor(score)])
}

// Render formats the evaluation: score, summary, strengths and improvements.
func Render(f *ai.Feedback) string {
	if f == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(headingStyle.Render("Your Interview Feedback"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Overall Score: %s\n\n", ScoreStyle(f.OverallScore).Render(fmt.Sprintf("%d/100", f.OverallScore)))
	b.WriteString(summaryStyle.Render(f.Summary))
	b.WriteString("\n\n")

	writeList(&b, "Strengths", f.Strengths, strengthStyle)
	b.WriteString("\n")
	writeList(&b, "Areas for Improvement", f.Improvements, improvementStyle)

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string, style lipgloss.Style) {
	b.WriteString(style.Bold(true).Render(title))
	b.WriteString("\n")
	for _, item := range items {
		fmt.Fprintf(b, "  %s %s\n", style.Render("•"), item)
	}
}
