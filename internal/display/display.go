// Package display renders accounts, posts, analyses and payments for the
// terminal. Renderers return strings so the CLI and the dashboard share them.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
)

const timeLayout = "2006-01-02 15:04"

func Banner() string {
	title := TitleStyle.Render("xagent")
	tagline := lipgloss.NewStyle().Foreground(Blue).Italic(true).
		Render("Automated posting, suggestions and analysis from your terminal")
	return lipgloss.JoinVertical(lipgloss.Left, title, tagline)
}

// Error writes err in the error style.
func Error(w io.Writer, err error) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: "+err.Error()))
}

func Info(w io.Writer, message string) {
	fmt.Fprintln(w, InfoStyle.Render(message))
}

func Success(w io.Writer, message string) {
	fmt.Fprintln(w, SuccessStyle.Render(message))
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// Wrap breaks text into lines of at most width columns, each prefixed by
// indent.
func Wrap(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	line := indent
	for _, w := range words {
		if len(line) > len(indent) && len(line)+1+len(w) > width {
			b.WriteString(line + "\n")
			line = indent
		}
		if len(line) > len(indent) {
			line += " "
		}
		line += w
	}
	b.WriteString(line)
	return b.String()
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(timeLayout)
}

func User(u models.User) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(u.Username) + MutedStyle.Render(" <"+u.Email+">") + "\n")
	fmt.Fprintf(&b, "Plan:                  %s\n", u.SubscriptionTier)
	fmt.Fprintf(&b, "Suggestions remaining: %d\n", u.SuggestionsRemaining)
	for _, p := range u.Connected() {
		h, _ := u.Handle(p)
		fmt.Fprintf(&b, "Connected %-12s %s\n", string(p)+":", h)
	}
	if len(u.Connected()) == 0 {
		b.WriteString(MutedStyle.Render("No connected accounts") + "\n")
	}
	if u.WalletAddress != nil {
		fmt.Fprintf(&b, "Wallet:                %s\n", *u.WalletAddress)
	}
	return b.String()
}

// Confidence renders a score as a percentage, highlighted above threshold.
func Confidence(v, threshold float64) string {
	s := fmt.Sprintf("%3.0f%%", v*100)
	if v > threshold {
		return SuccessStyle.Render(s)
	}
	return MutedStyle.Render(s)
}

func Suggestions(list []models.PostSuggestion, threshold float64) string {
	if len(list) == 0 {
		return MutedStyle.Render("No suggestions yet.") + "\n"
	}
	var b strings.Builder
	for _, s := range list {
		fmt.Fprintf(&b, "%s  %s  %s\n", SelectedStyle.Render("#"+s.ID), Confidence(s.Confidence, threshold),
			MutedStyle.Render(strings.Join(s.Topics, ", ")))
		b.WriteString(Wrap(s.Text, 76, "    ") + "\n\n")
	}
	return b.String()
}

func Post(p models.Post) string {
	var b strings.Builder
	author := p.Author.Handle
	if author == "" {
		author = "unknown"
	}
	fmt.Fprintf(&b, "%s %s  %s\n", SelectedStyle.Render("@"+author), MutedStyle.Render("["+p.ID+"]"),
		MutedStyle.Render(formatTime(p.CreatedAt)))
	b.WriteString(Wrap(p.Text, 76, "    ") + "\n")
	fmt.Fprintf(&b, "    likes %d  shares %d  replies %d\n", p.LikeCount, p.ShareCount, p.ReplyCount)
	return b.String()
}

func Posts(list []models.Post) string {
	if len(list) == 0 {
		return MutedStyle.Render("No posts.") + "\n"
	}
	parts := make([]string, 0, len(list))
	for _, p := range list {
		parts = append(parts, Post(p))
	}
	return strings.Join(parts, "\n")
}

func riskStyle(level models.RiskLevel) lipgloss.Style {
	switch level {
	case models.RiskHigh:
		return ErrorStyle
	case models.RiskMedium:
		return WarnStyle
	default:
		return SuccessStyle
	}
}

func Analysis(a models.PostAnalysis) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Analysis") + "\n")
	fmt.Fprintf(&b, "Sentiment:  %s\n", a.Sentiment)
	fmt.Fprintf(&b, "Topics:     %s\n", strings.Join(a.Topics, ", "))
	fmt.Fprintf(&b, "Engagement: %.0f%%", a.Engagement.EstimatedScore*100)
	if a.Engagement.Explanation != "" {
		b.WriteString(MutedStyle.Render(" (" + a.Engagement.Explanation + ")"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Risk:       %s", riskStyle(a.Risk.Level).Render(string(a.Risk.Level)))
	if a.Risk.Explanation != "" {
		b.WriteString(MutedStyle.Render(" (" + a.Risk.Explanation + ")"))
	}
	b.WriteString("\n")
	return b.String()
}

func Replies(options []models.ReplyOption) string {
	if len(options) == 0 {
		return MutedStyle.Render("No reply options.") + "\n"
	}
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Reply options") + "\n")
	for i, o := range options {
		fmt.Fprintf(&b, "%d. [%s %.0f%%]\n", i+1, o.Stance, o.Confidence*100)
		b.WriteString(Wrap(o.Text, 76, "   ") + "\n")
	}
	return b.String()
}

func PaymentRequest(p models.PaymentRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Payment %s  %s\n", SelectedStyle.Render(p.Reference()), paymentStatus(p.Status))
	fmt.Fprintf(&b, "Amount:  %s BNB (%s)\n", p.Amount.String(), p.ItemType)
	if p.PaymentAddress != "" {
		fmt.Fprintf(&b, "Send to: %s\n", p.PaymentAddress)
	}
	fmt.Fprintf(&b, "Created: %s\n", formatTime(p.CreatedAt))
	return b.String()
}

func Payments(list []models.PaymentRequest) string {
	if len(list) == 0 {
		return MutedStyle.Render("No payments.") + "\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %-10s %-12s %s\n", "ID", "STATUS", "AMOUNT", "CREATED")
	for _, p := range list {
		fmt.Fprintf(&b, "%-14s %-10s %-12s %s\n", Truncate(p.Reference(), 14), p.Status,
			p.Amount.String(), formatTime(p.CreatedAt))
	}
	return b.String()
}

func paymentStatus(s models.PaymentStatus) string {
	switch s {
	case models.PaymentCompleted:
		return SuccessStyle.Render(string(s))
	case models.PaymentFailed:
		return ErrorStyle.Render(string(s))
	default:
		return WarnStyle.Render(string(s))
	}
}

// Bar draws a horizontal bar of value scaled against max.
func Bar(value, max, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	n := value * width / max
	if value > 0 && n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// Overview renders the dashboard: summary cards, weekday engagement and
// popular topics.
func Overview(o panels.Overview) string {
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		CardStyle.Render(fmt.Sprintf("Suggestions\n%d", o.TotalSuggestions)),
		CardStyle.Render(fmt.Sprintf("High confidence\n%d", o.HighConfidence)),
		CardStyle.Render(fmt.Sprintf("Remaining\n%d", o.SuggestionsRemaining)),
		CardStyle.Render(fmt.Sprintf("Avg engagement\n%.1f", o.AverageEngagement)),
	)

	var b strings.Builder
	if o.Username != "" {
		fmt.Fprintf(&b, "%s  %s\n", HeaderStyle.Render(o.Username), MutedStyle.Render(string(o.Tier)))
	}
	b.WriteString(cards + "\n\n")

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("Engagement by weekday (%d posts)", o.TotalPosts)) + "\n")
	max := 0
	for _, d := range o.Week {
		if d.Total() > max {
			max = d.Total()
		}
	}
	for _, d := range o.Week {
		fmt.Fprintf(&b, "%s %-30s %d\n", d.Day.String()[:3], InfoStyle.Render(Bar(d.Total(), max, 30)), d.Total())
	}

	b.WriteString("\n" + HeaderStyle.Render("Popular topics") + "\n")
	if len(o.Topics) == 0 {
		b.WriteString(MutedStyle.Render("No topics yet.") + "\n")
	}
	for _, t := range o.Topics {
		fmt.Fprintf(&b, "  %-20s %d\n", t.Topic, t.Count)
	}
	return b.String()
}
