package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/cabinwatch/cabinwatch/pkg/core/model"
	"github.com/cabinwatch/cabinwatch/pkg/core/ranges"
)

var unitReportTemplate = template.Must(template.New("unit").Parse(
	`<h3>{{.UnitName}}</h3>
{{- if .Booked}}
<p>Booked</p>
<ul>
{{- range .Booked}}
<li>{{.Display}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Bookable}}
<p>Bookable</p>
<ul>
{{- range .Bookable}}
<li>{{.Start.Display}} ({{.Length}} {{if eq .Length 1}}night{{else}}nights{{end}})</li>
{{- end}}
</ul>
{{- end}}
{{- if .ShortRunDates}}
<p>{{.ShortRunDates}} newly available {{if eq .ShortRunDates 1}}date is{{else}}dates are{{end}} in runs shorter than {{.MinNights}} {{if eq .MinNights 1}}night{{else}}nights{{end}}.</p>
{{- end}}
`))

type unitReportData struct {
	UnitName      string
	Booked        []model.Date
	Bookable      []model.DateRange
	ShortRunDates int
	MinNights     int
}

// ComposeUnitReport renders the changes for one unit as an HTML fragment.
// It returns "" when nothing was booked and nothing became available.
// Newly available runs shorter than minNights are left out of the Bookable list
// and counted in a single line instead.
func ComposeUnitReport(unitName string, booked, newlyAvailable model.DateSet, minNights int) (string, error) {
	if booked.Len() == 0 && newlyAvailable.Len() == 0 {
		return "", nil
	}
	if minNights < 1 {
		minNights = 1
	}

	data := unitReportData{
		UnitName:  unitName,
		Booked:    booked.Sorted(),
		MinNights: minNights,
	}

	runs := ranges.Compress(newlyAvailable)
	data.Bookable = ranges.FilterMinLength(runs, minNights)
	data.ShortRunDates = newlyAvailable.Len()
	for _, r := range data.Bookable {
		data.ShortRunDates -= r.Length
	}

	var buf bytes.Buffer
	if err := unitReportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report for %s: %w", unitName, err)
	}
	return buf.String(), nil
}

// ComposeLocationReport joins unit sections in order, skipping empty ones.
// An empty result means there is nothing to send.
func ComposeLocationReport(sections []string) string {
	nonEmpty := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

// Subject builds the notification subject for a location
func Subject(prefix, locationName string) string {
	return fmt.Sprintf("%s - %s", prefix, locationName)
}
