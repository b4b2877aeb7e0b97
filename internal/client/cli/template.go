package cli

import (
	"text/template"
)

var templateFuncs = template.FuncMap{
	"start":    formatStart,
	"distance": formatDistance,
	"duration": formatDuration,
	"status":   recordStatus,
}

const activityTemplate = `
=== Activity Details ===

Title:     {{.Activity.Title}}
ID:        {{.Activity.ID}}
Type:      {{.Activity.Type}}
Start:     {{start .Activity.StartTime}}
Duration:  {{duration .Activity.DurationSec}}
Distance:  {{distance .Activity.DistanceM}}
{{- if .Activity.ElevationGainM }}
Elevation: {{printf "%.0f" .Activity.ElevationGainM}} m
{{- end}}
{{- if .Activity.Notes }}
Notes:     {{.Activity.Notes}}
{{- end}}
Version:   {{.Activity.Version}}
Status:    {{status .Activity}}
{{- with .Details }}
Samples:   {{len .Samples}}
Laps:      {{len .Laps}}
{{- range .Laps }}
  #{{.Index}}  {{distance .DistanceM}}  {{duration .DurationSec}}
{{- end}}
{{- end}}
`

const pendingListTemplate = `
=== Pending Sync ===

{{- if eq (len .) 0 }}
All activities are synchronized.
{{ else }}
{{len .}} activity(ies) waiting for sync:

{{- range . }}
- {{ .Title }}
   ID:    {{ .ID }}
   Start: {{ start .StartTime }}
   {{- if .Version }}
   Version: {{ .Version }}
   {{- end }}

{{- end }}
Run 'fitsync sync' to synchronize.
{{- end }}
`

var (
	activityTmpl    = template.Must(template.New("activity").Funcs(templateFuncs).Parse(activityTemplate))
	pendingListTmpl = template.Must(template.New("pending").Funcs(templateFuncs).Parse(pendingListTemplate))
)
