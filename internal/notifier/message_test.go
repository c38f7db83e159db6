package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/amishk599/expawatch/internal/model"
)

func TestFormat_Application(t *testing.T) {
	f := NewFormatter(colombo)
	rec := model.Record{
		ID:        "55001",
		Kind:      model.KindApplication,
		CreatedAt: time.Date(2026, 3, 2, 18, 45, 0, 0, time.UTC),
		Application: &model.Application{
			PersonName:       "Ayesha Fernando",
			PersonEmail:      "ayesha@example.com",
			OpportunityID:    "9001",
			OpportunityTitle: "Teach English",
			FunctionCode:     "GV",
			HostLocation:     "JAFFNA",
		},
	}

	text, err := f.Format(rec)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := `*New EXPA Application (GV)*
Applicant: Ayesha Fernando
Email: ayesha@example.com
Phone: N/A
Opportunity: Teach English (#9001)
Host LC: JAFFNA
Applied: Tue, 03 Mar 2026 12:15 AM +0530`
	if text != want {
		t.Errorf("Format() =\n%s\nwant\n%s", text, want)
	}
}

func TestFormat_SignupMissingFields(t *testing.T) {
	f := NewFormatter(nil)
	text, err := f.Format(model.Record{ID: "1", Kind: model.KindSignup, Signup: &model.Signup{}})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(text, "Name: N/A") || !strings.Contains(text, "Phone: N/A") {
		t.Errorf("expected N/A placeholders:\n%s", text)
	}
	if !strings.Contains(text, "Signed up: unknown") {
		t.Errorf("expected unknown timestamp:\n%s", text)
	}
	if strings.Contains(text, "Home LC") {
		t.Errorf("empty home LC line should be omitted:\n%s", text)
	}
}

func TestFormat_RejectsMissingPayloadAndUnknownKind(t *testing.T) {
	f := NewFormatter(colombo)
	if _, err := f.Format(model.Record{ID: "1", Kind: model.KindSignup}); err == nil {
		t.Error("expected error for signup without payload")
	}
	if _, err := f.Format(model.Record{ID: "1", Kind: "other"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
