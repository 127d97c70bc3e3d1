package validate

import (
	"strings"
	"testing"

	"github.com/marea-events/backend/internal/models"
)

func validInput() models.RegistrationInput {
	return models.RegistrationInput{
		Email:        "Ana.Rivera@Example.org",
		FullName:     "Rivera, Ana",
		AgeRange:     "25-34",
		Gender:       "female",
		City:         "San Juan",
		Organization: "community-group",
	}
}

func TestRegistrationInput(t *testing.T) {
	t.Run("valid input normalizes email", func(t *testing.T) {
		in := validInput()
		if err := RegistrationInput(&in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if in.Email != "ana.rivera@example.org" {
			t.Errorf("email not normalized: %q", in.Email)
		}
	})

	t.Run("rejects bad email", func(t *testing.T) {
		for _, email := range []string{"", "not-an-email", "a b@x.org", "a@b"} {
			in := validInput()
			in.Email = email
			if err := RegistrationInput(&in); err == nil {
				t.Errorf("email %q accepted", email)
			}
		}
	})

	t.Run("rejects full name without comma form", func(t *testing.T) {
		for _, name := range []string{"Ana Rivera", "Rivera,", ", Ana", "Rivera, Ana, Jr"} {
			in := validInput()
			in.FullName = name
			if err := RegistrationInput(&in); err == nil {
				t.Errorf("full name %q accepted", name)
			}
		}
	})

	t.Run("rejects values outside enumerations", func(t *testing.T) {
		in := validInput()
		in.AgeRange = "18-25"
		if err := RegistrationInput(&in); err == nil {
			t.Error("unknown age range accepted")
		}
		in = validInput()
		in.City = "Springfield"
		if err := RegistrationInput(&in); err == nil {
			t.Error("unknown city accepted")
		}
	})

	t.Run("organization other requires a name", func(t *testing.T) {
		in := validInput()
		in.Organization = "other"
		if err := RegistrationInput(&in); err == nil {
			t.Error("missing organization name accepted")
		}
		in.OrganizationOther = "Surfrider PR"
		if err := RegistrationInput(&in); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestWaiver(t *testing.T) {
	sections := []string{"s8", "s9", "s10"}
	accepted := func() map[string]bool {
		return map[string]bool{"s8": true, "s9": true, "s10": true}
	}
	valid := func() models.WaiverInput {
		return models.WaiverInput{
			Acceptances:   accepted(),
			SignatureName: "Ana Rivera",
			SignedDate:    "2026-08-30",
		}
	}

	t.Run("complete adult waiver passes", func(t *testing.T) {
		in := valid()
		if err := Waiver(&in, sections, "25-34"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("any unaccepted section fails", func(t *testing.T) {
		in := valid()
		in.Acceptances["s9"] = false
		if err := Waiver(&in, sections, "25-34"); err == nil {
			t.Error("unaccepted section passed")
		}
		in = valid()
		delete(in.Acceptances, "s10")
		if err := Waiver(&in, sections, "25-34"); err == nil {
			t.Error("missing section passed")
		}
	})

	t.Run("signature and date required", func(t *testing.T) {
		in := valid()
		in.SignatureName = "X"
		if err := Waiver(&in, sections, "25-34"); err == nil {
			t.Error("one-char signature passed")
		}
		in = valid()
		in.SignedDate = "  "
		if err := Waiver(&in, sections, "25-34"); err == nil {
			t.Error("blank signed date passed")
		}
	})

	t.Run("minors require guardian fields", func(t *testing.T) {
		in := valid()
		if err := Waiver(&in, sections, models.AgeRangeMinor); err == nil {
			t.Fatal("minor without guardian fields passed")
		}
		in.GuardianFields = &models.GuardianFields{
			MinorName:            "Rivera, Luis",
			GuardianRelationship: "mother",
			GuardianPhone:        "7875551234",
		}
		if err := Waiver(&in, sections, models.AgeRangeMinor); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		in.GuardianFields.GuardianPhone = "555123"
		if err := Waiver(&in, sections, models.AgeRangeMinor); err == nil {
			t.Error("short guardian phone passed")
		}
	})

	t.Run("guardian fields ignored for adults", func(t *testing.T) {
		in := valid()
		if err := Waiver(&in, sections, "45-54"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestCreateEventInput(t *testing.T) {
	valid := func() models.CreateEventInput {
		return models.CreateEventInput{
			Title:       "Beach Cleanup",
			Description: "Quarterly shoreline cleanup at the north beach.",
			Location:    "Playa Norte",
			StartsAt:    "2026-09-12T08:00:00Z",
			EndsAt:      "2026-09-12T12:00:00Z",
			Capacity:    150,
		}
	}

	t.Run("valid input parses timestamps", func(t *testing.T) {
		in := valid()
		start, end, err := CreateEventInput(&in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !end.After(start) {
			t.Error("parsed end not after start")
		}
	})

	cases := []struct {
		name   string
		mutate func(*models.CreateEventInput)
	}{
		{"short title", func(in *models.CreateEventInput) { in.Title = "ab" }},
		{"short description", func(in *models.CreateEventInput) { in.Description = "too short" }},
		{"short location", func(in *models.CreateEventInput) { in.Location = "PR" }},
		{"bad start", func(in *models.CreateEventInput) { in.StartsAt = "tomorrow" }},
		{"bad end", func(in *models.CreateEventInput) { in.EndsAt = "2026-09-12" }},
		{"end before start", func(in *models.CreateEventInput) { in.EndsAt = "2026-09-12T07:00:00Z" }},
		{"end equals start", func(in *models.CreateEventInput) { in.EndsAt = in.StartsAt }},
		{"zero capacity", func(in *models.CreateEventInput) { in.Capacity = 0 }},
		{"negative capacity", func(in *models.CreateEventInput) { in.Capacity = -5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid()
			tc.mutate(&in)
			if _, _, err := CreateEventInput(&in); err == nil {
				t.Error("invalid input accepted")
			}
		})
	}
}

func TestUpdateEventInput(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	t.Run("nil fields are skipped", func(t *testing.T) {
		if err := UpdateEventInput(&models.UpdateEventInput{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("supplied fields are validated", func(t *testing.T) {
		if err := UpdateEventInput(&models.UpdateEventInput{Title: str("ab")}); err == nil {
			t.Error("short title accepted")
		}
		if err := UpdateEventInput(&models.UpdateEventInput{Capacity: num(0)}); err == nil {
			t.Error("zero capacity accepted")
		}
		if err := UpdateEventInput(&models.UpdateEventInput{Status: str("archived")}); err == nil {
			t.Error("unknown status accepted")
		}
		if err := UpdateEventInput(&models.UpdateEventInput{Status: str("closed"), Capacity: num(40)}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestScanInput(t *testing.T) {
	valid := func() models.ScanInput {
		return models.ScanInput{
			EventID: "7f6c1c1e-46f2-4d52-9a53-5db20ac2720e",
			Email:   "Ana@Example.org",
			Token:   "0d9fd9de-3b5c-4d83-8f6c-4ad1be52a085",
		}
	}

	t.Run("valid input normalizes email", func(t *testing.T) {
		in := valid()
		if err := ScanInput(&in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if in.Email != "ana@example.org" {
			t.Errorf("email not normalized: %q", in.Email)
		}
	})
	t.Run("rejects malformed fields", func(t *testing.T) {
		in := valid()
		in.EventID = "not-a-uuid"
		if err := ScanInput(&in); err == nil {
			t.Error("bad event id accepted")
		}
		in = valid()
		in.Token = strings.Repeat("a", 36)
		if err := ScanInput(&in); err == nil {
			t.Error("bad token accepted")
		}
		in = valid()
		in.Email = "nope"
		if err := ScanInput(&in); err == nil {
			t.Error("bad email accepted")
		}
	})
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana.Rivera@EXAMPLE.org "); got != "ana.rivera@example.org" {
		t.Errorf("got %q", got)
	}
}
