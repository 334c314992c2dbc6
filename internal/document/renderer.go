package document

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/smartmed/smartmed-api/internal/domain/doctor"
	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/internal/domain/reading"
	"github.com/smartmed/smartmed-api/internal/domain/report"
	"github.com/smartmed/smartmed-api/internal/schedule"
)

// Input is the four-record tuple a document is rendered from.
// Now is the render clock for derived fields (age, years of practice);
// passing it explicitly keeps output byte-identical for identical inputs.
type Input struct {
	Report  *report.Report
	Reading *reading.Reading
	Patient *patient.Patient
	Doctor  *doctor.Doctor
	Now     time.Time
}

// RenderEmailFragment produces the email-embeddable markup fragment.
// It shares field layout and conditional-display rules with RenderDocument.
func RenderEmailFragment(in Input) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; max-width: 640px; margin: 0 auto; color: #1f2937;">`)
	writeBody(&b, in)
	b.WriteString(`</div>`)
	return b.String()
}

// RenderDocument produces the standalone printable document for
// download. Same body as the email fragment inside a full HTML page
// with print styling.
func RenderDocument(in Input) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Medical Report - ` + html.EscapeString(in.Patient.Name) + `</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; color: #1f2937; margin: 0; }
    .page { max-width: 720px; margin: 0 auto; padding: 40px; }
    @media print { .page { padding: 0; } section { page-break-inside: avoid; } }
  </style>
</head>
<body>
<div class="page">
`)
	writeBody(&b, in)
	b.WriteString(`</div>
</body>
</html>
`)
	return b.String()
}

type vitalField struct {
	label string
	value *float64
	unit  string
}

func writeBody(b *strings.Builder, in Input) {
	p, d, r, rep := in.Patient, in.Doctor, in.Reading, in.Report

	badgeLabel, badgeColor := urgencyBadge(rep.UrgencyLevel)

	fmt.Fprintf(b, `<h1 style="font-size: 22px; margin-bottom: 4px;">Medical Report</h1>
<p style="color: #6b7280; margin-top: 0;">Generated %s</p>
`, rep.CreatedAt.UTC().Format("January 2, 2006"))

	fmt.Fprintf(b, `<span style="display: inline-block; padding: 4px 12px; border-radius: 12px; font-weight: 700; background-color: %s; color: #fff;">Urgency: %s</span>
`, badgeColor, html.EscapeString(badgeLabel))

	// Patient
	b.WriteString(`<section><h2 style="font-size: 16px; border-bottom: 1px solid #e5e7eb; padding-bottom: 4px;">Patient</h2><table style="width: 100%; font-size: 14px;">`)
	writeRow(b, "Name", p.Name)
	writeRow(b, "Age", fmt.Sprintf("%d years", p.Age(in.Now)))
	writeRow(b, "Gender", string(p.Gender))
	writeRow(b, "Blood group", string(p.BloodGroup))
	writeRow(b, "Smoking status", string(p.SmokingStatus))
	if allergies := p.AllergyList(); len(allergies) > 0 {
		writeRow(b, "Allergies", strings.Join(allergies, ", "))
	} else {
		writeRow(b, "Allergies", "None reported")
	}
	b.WriteString(`</table></section>`)

	// Vitals
	fmt.Fprintf(b, `<section><h2 style="font-size: 16px; border-bottom: 1px solid #e5e7eb; padding-bottom: 4px;">Vitals (%s)</h2><table style="width: 100%%; font-size: 14px;">`,
		r.CreatedAt.UTC().Format("Jan 2, 2006 15:04 MST"))
	if r.DiagnosedFor != "" {
		writeRow(b, "Diagnosed for", r.DiagnosedFor)
	}
	for _, f := range []vitalField{
		{"Temperature", r.TemperatureCelsius, "°C"},
		{"Heart rate", r.HeartRateBPM, "bpm"},
	} {
		writeRow(b, f.label, fmtVital(f.value, f.unit))
	}
	if bp := r.BloodPressure(); bp != "" {
		writeRow(b, "Blood pressure", bp+" mmHg")
	} else {
		writeRow(b, "Blood pressure", "N/A")
	}
	for _, f := range []vitalField{
		{"Respiratory rate", r.RespiratoryRate, "breaths/min"},
		{"Oxygen saturation", r.OxygenSaturation, "%"},
		{"Glucose level", r.GlucoseLevel, "mg/dL"},
		{"Height", r.HeightCm, "cm"},
		{"Weight", r.WeightKg, "kg"},
	} {
		writeRow(b, f.label, fmtVital(f.value, f.unit))
	}
	if bmi := r.BMI(); bmi != nil {
		writeRow(b, "BMI", fmt.Sprintf("%.1f kg/m²", *bmi))
	} else {
		writeRow(b, "BMI", "N/A")
	}
	b.WriteString(`</table></section>`)

	// Assessment
	b.WriteString(`<section><h2 style="font-size: 16px; border-bottom: 1px solid #e5e7eb; padding-bottom: 4px;">Assessment</h2>`)
	writeParagraph(b, "Summary", rep.Summary)
	writeParagraph(b, "Detailed analysis", rep.DetailedAnalysis)
	writeParagraph(b, "Diagnosis", rep.Diagnosis)
	writeParagraph(b, "Recommendations", rep.Recommendations)
	if rep.AdditionalNotes != "" {
		writeParagraph(b, "Additional notes", rep.AdditionalNotes)
	}
	b.WriteString(`</section>`)

	// Follow-up: suppressed entirely once the patient is marked cured.
	if !p.Cured && rep.FollowUpSchedule != "" {
		if text := schedule.Describe(rep.FollowUpSchedule); text != "" {
			fmt.Fprintf(b, `<section><h2 style="font-size: 16px; border-bottom: 1px solid #e5e7eb; padding-bottom: 4px;">Follow-up</h2><p style="font-size: 14px;">Follow-up reminders are scheduled %s.</p></section>`,
				html.EscapeString(text))
		}
	}

	// Physician
	fmt.Fprintf(b, `<section><p style="font-size: 13px; color: #6b7280; border-top: 1px solid #e5e7eb; padding-top: 8px;">%s, %s — %s (%d years of practice)</p></section>`,
		html.EscapeString(d.DisplayName()),
		html.EscapeString(d.Degree),
		html.EscapeString(d.Speciality),
		d.YearsOfPractice(in.Now))
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, `<tr><td style="color: #6b7280; padding: 2px 12px 2px 0; white-space: nowrap;">%s</td><td style="padding: 2px 0;">%s</td></tr>`,
		html.EscapeString(label), html.EscapeString(value))
}

func writeParagraph(b *strings.Builder, heading, text string) {
	fmt.Fprintf(b, `<h3 style="font-size: 14px; margin-bottom: 2px;">%s</h3><p style="font-size: 14px; margin-top: 0;">%s</p>`,
		html.EscapeString(heading), html.EscapeString(text))
}

// fmtVital renders an optional measurement with its unit, or "N/A"
// (no unit) when the value is missing.
func fmtVital(v *float64, unit string) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g %s", *v, unit)
}

// urgencyBadge maps the urgency enum to its visual treatment. The
// default arm is required: unrecognized values get a neutral badge.
func urgencyBadge(u report.Urgency) (label, color string) {
	switch u {
	case report.UrgencyHigh:
		return "HIGH", "#dc2626"
	case report.UrgencyMedium:
		return "MEDIUM", "#d97706"
	case report.UrgencyLow:
		return "LOW", "#16a34a"
	default:
		return "N/A", "#6b7280"
	}
}
