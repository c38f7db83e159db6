package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/expawatch/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(1, 0, 1, 2)

	recordTitleStyle = lipgloss.NewStyle().
				Bold(true)

	recordSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	channelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Width(14)

	suppressedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// ChannelRow is one line of the routing table.
type ChannelRow struct {
	Key      model.RoutingKey
	Rule     string
	Endpoint string // already redacted; empty when unbound
}

// RenderChannels draws the routing table with the endpoint bound to each channel.
func RenderChannels(rows []ChannelRow) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Notification channels"))
	b.WriteByte('\n')
	for _, r := range rows {
		endpoint := r.Endpoint
		label := channelStyle.Render(string(r.Key))
		if endpoint == "" {
			endpoint = "(unbound)"
			label = suppressedStyle.Render(string(r.Key))
		}
		fmt.Fprintf(&b, "  %s %s\n", label, r.Rule)
		fmt.Fprintf(&b, "  %s %s\n", strings.Repeat(" ", 14), recordSubtitleStyle.Render(endpoint))
	}
	return b.String()
}

// RenderRecords lists stored records newest first, each with the channel it
// routes to under classifier.
func RenderRecords(kind model.Kind, records []model.StoredRecord, classifier model.Classifier, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Stored %s (%d)", kind.Collection(), len(records))))
	b.WriteByte('\n')
	if len(records) == 0 {
		b.WriteString("  (no records)\n")
		return b.String()
	}

	for i, r := range records {
		key := classifier.Classify(r.Record)
		label := channelStyle.Render(key.String())
		if key == model.Suppressed {
			label = suppressedStyle.Render(key.String())
		}
		b.WriteString("  ")
		b.WriteString(label)
		b.WriteString(recordTitleStyle.Render(headline(r.Record)))
		b.WriteByte('\n')
		b.WriteString("  ")
		b.WriteString(strings.Repeat(" ", 14))
		b.WriteString(recordSubtitleStyle.Render(fmt.Sprintf("#%s · created %s · fetched %s",
			r.ID, fmtTime(r.CreatedAt, loc), fmtTime(r.FetchedAt, loc))))
		b.WriteByte('\n')
		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	b.WriteString(hintStyle.Render("channel shows current routing; nothing is re-sent"))
	b.WriteByte('\n')
	return b.String()
}

func headline(rec model.Record) string {
	switch {
	case rec.Signup != nil:
		return orNA(rec.Signup.FullName)
	case rec.Application != nil:
		a := rec.Application
		return fmt.Sprintf("%s → %s (%s, %s)", orNA(a.PersonName), orNA(a.OpportunityTitle), orNA(a.FunctionCode), orNA(a.HostLocation))
	default:
		return "n/a"
	}
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func fmtTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
