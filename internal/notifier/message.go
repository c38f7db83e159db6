package notifier

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/amishk599/expawatch/internal/model"
)

// TimeLayout is how record timestamps appear in messages.
const TimeLayout = "Mon, 02 Jan 2006 3:04 PM MST"

const signupTemplate = `*New EXPA Signup*
Name: {{or .Signup.FullName "N/A"}}
Email: {{or .Signup.Email "N/A"}}
Phone: {{or .Signup.Phone "N/A"}}{{with .Signup.HomeLC}}
Home LC: {{.}}{{end}}
Signed up: {{when .CreatedAt}}`

const applicationTemplate = `*New EXPA Application ({{or .Application.FunctionCode "?"}})*
Applicant: {{or .Application.PersonName "N/A"}}
Email: {{or .Application.PersonEmail "N/A"}}
Phone: {{or .Application.PersonPhone "N/A"}}
Opportunity: {{or .Application.OpportunityTitle "N/A"}}{{with .Application.OpportunityID}} (#{{.}}){{end}}
Host LC: {{or .Application.HostLocation "N/A"}}
Applied: {{when .CreatedAt}}`

// Formatter renders the chat text for a record, with timestamps shown in a
// fixed time zone.
type Formatter struct {
	templates map[model.Kind]*template.Template
}

// NewFormatter builds a formatter rendering times in loc.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	funcs := template.FuncMap{
		"when": func(t time.Time) string {
			if t.IsZero() {
				return "unknown"
			}
			return t.In(loc).Format(TimeLayout)
		},
	}
	return &Formatter{
		templates: map[model.Kind]*template.Template{
			model.KindSignup:      template.Must(template.New("signup").Funcs(funcs).Parse(signupTemplate)),
			model.KindApplication: template.Must(template.New("application").Funcs(funcs).Parse(applicationTemplate)),
		},
	}
}

// Format returns the message text for rec.
func (f *Formatter) Format(rec model.Record) (string, error) {
	tmpl, ok := f.templates[rec.Kind]
	if !ok {
		return "", fmt.Errorf("no message template for kind %q", rec.Kind)
	}
	switch {
	case rec.Kind == model.KindSignup && rec.Signup == nil,
		rec.Kind == model.KindApplication && rec.Application == nil:
		return "", fmt.Errorf("%s %s has no payload", rec.Kind, rec.ID)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, rec); err != nil {
		return "", fmt.Errorf("render %s message: %w", rec.Kind, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// SendTestMessage sends a dummy record to every channel in keys so each
// binding can be verified by eye.
func SendTestMessage(ctx context.Context, n model.Notifier, keys []model.RoutingKey) error {
	now := time.Now()
	var failed []string
	for _, key := range keys {
		rec := testRecord(key, now)
		if res, err := n.Notify(ctx, key, rec); res != model.Sent {
			failed = append(failed, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("test message failed for %d of %d channels: %s", len(failed), len(keys), strings.Join(failed, "; "))
	}
	return nil
}

func testRecord(key model.RoutingKey, now time.Time) model.Record {
	if key == model.ChannelSignup {
		return model.Record{
			ID:        "test-" + string(key),
			Kind:      model.KindSignup,
			CreatedAt: now,
			Signup:    &model.Signup{FullName: "expawatch test message", SelectedProgrammes: []int{}},
		}
	}
	return model.Record{
		ID:        "test-" + string(key),
		Kind:      model.KindApplication,
		CreatedAt: now,
		Application: &model.Application{
			PersonName:       "expawatch test message",
			OpportunityTitle: "Channel " + string(key) + " is wired",
		},
	}
}
