package registrations

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/marea-events/backend/internal/models"
)

var exportHeader = []string{
	"Registration ID", "Email", "Full Name", "Phone", "Age Range", "Gender",
	"City", "Organization", "Organization Other", "Waiver Version",
	"Signature Name", "Signed Date", "Minor Name", "Guardian Relationship",
	"Guardian Phone", "Scanned", "Scanned At", "Scanned By", "Created At",
	"IP Address", "User Agent",
}

// buildCSV renders registrations as a CSV export, one row per registration in
// the given order.
func buildCSV(regs []models.Registration) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range regs {
		if err := w.Write(exportRow(&regs[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportRow(reg *models.Registration) []string {
	scanned := "No"
	if reg.Scanned {
		scanned = "Yes"
	}
	scannedAt := ""
	if reg.ScannedAt != nil {
		scannedAt = reg.ScannedAt.UTC().Format(time.RFC3339)
	}
	var minorName, guardianRel, guardianPhone string
	if g := reg.Waiver.GuardianFields; g != nil {
		minorName = g.MinorName
		guardianRel = g.GuardianRelationship
		guardianPhone = g.GuardianPhone
	}
	waiverVersion := ""
	if reg.Waiver.Required {
		waiverVersion = reg.Waiver.Version
	}
	return []string{
		reg.RegistrationID.String(),
		reg.Email,
		reg.FullName,
		reg.Phone,
		reg.AgeRange,
		reg.Gender,
		reg.City,
		reg.Organization,
		reg.OrganizationOther,
		waiverVersion,
		reg.Waiver.SignatureName,
		reg.Waiver.SignedDate,
		minorName,
		guardianRel,
		guardianPhone,
		scanned,
		scannedAt,
		reg.ScannedBy,
		reg.CreatedAt.UTC().Format(time.RFC3339),
		reg.Waiver.IPAddress,
		reg.Waiver.UserAgent,
	}
}
