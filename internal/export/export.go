// Package export renders a JMT into a self-contained printable document.
// The output is plain HTML sized for A4; turning it into a PDF is left to
// the caller's print pipeline.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"smartpermit/internal/domain"
)

type Options struct {
	MarginMM int
	PageSize string
}

func (o Options) withDefaults() Options {
	if o.MarginMM == 0 {
		o.MarginMM = 10
	}
	if o.PageSize == "" {
		o.PageSize = "A4"
	}
	return o
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds a stable download name from the JMT id, a slug of its
// title and the render timestamp.
func Filename(j domain.JMT, now time.Time) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(j.Title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "jmt"
	}
	return fmt.Sprintf("jmt_%s_%s_%s.html", j.ID, slug, now.Format("20060102-150405"))
}

// Render produces the printable document for a JMT.
func Render(j domain.JMT, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	var buf bytes.Buffer
	err := documentTmpl.Execute(&buf, map[string]any{
		"JMT":      j,
		"Form":     j.MethodForm,
		"Margin":   opts.MarginMM,
		"PageSize": opts.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

var documentTmpl = template.Must(template.New("jmt").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>JMT — {{.JMT.Title}}</title>
<style>
@page { size: {{.PageSize}}; margin: {{.Margin}}mm; }
body { font-family: sans-serif; font-size: 12px; color: #111; }
h1 { font-size: 18px; border-bottom: 2px solid #111; padding-bottom: 4px; }
h2 { font-size: 14px; margin-top: 16px; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
td, th { border: 1px solid #444; padding: 4px 6px; text-align: left; }
.tags span { display: inline-block; border: 1px solid #666; border-radius: 3px; padding: 1px 6px; margin: 1px; }
</style>
</head>
<body>
<h1>Job Méthode Travail — {{.JMT.Title}}</h1>
<table>
<tr><th>Zone</th><td>{{.JMT.Zone}}</td><th>Type</th><td>{{.JMT.Type}}</td></tr>
<tr><th>Statut</th><td>{{.JMT.Status}}</td><th>Niveau de risque</th><td>{{.JMT.RiskLevel}}</td></tr>
<tr><th>Échéance</th><td>{{.JMT.Deadline}}</td><th>Assignée à</th><td>{{.JMT.AssignedTo}}</td></tr>
{{if .JMT.WorkOrderNumber}}<tr><th>Ordre de travail</th><td colspan="3">{{.JMT.WorkOrderNumber}}</td></tr>{{end}}
</table>
<h2>Description</h2>
<p>{{.JMT.Description}}</p>
{{if .JMT.RequiredPPE}}<h2>EPI requis</h2><div class="tags">{{range .JMT.RequiredPPE}}<span>{{.}}</span>{{end}}</div>{{end}}
{{if .JMT.Risks}}<h2>Risques</h2><div class="tags">{{range .JMT.Risks}}<span>{{.}}</span>{{end}}</div>{{end}}
{{if .JMT.Controls}}<h2>Moyens de maîtrise</h2><div class="tags">{{range .JMT.Controls}}<span>{{.}}</span>{{end}}</div>{{end}}
{{with .Form}}
{{if .LethalRows}}
<h2>Dangers mortels</h2>
<table>
<tr><th>Danger</th><th>Parades obligatoires</th></tr>
{{range .LethalRows}}<tr><td>{{.Danger}}</td><td>{{range .Controls}}{{.}} {{end}}</td></tr>{{end}}
</table>
{{end}}
{{if .Detection.WorkingAtHeight}}
<h2>Détection</h2>
<p>Travail en hauteur détecté.{{range .Detection.SuggestedPermits}} Permis suggéré : {{.}}.{{end}}</p>
{{end}}
<h2>Validation</h2>
<table>
<tr><th>Responsable</th><td>{{.ResponsibleName}}</td><th>Date</th><td>{{.ValidationDate}}</td></tr>
</table>
{{end}}
{{if .JMT.Supervisor}}<p>Validée superviseur : {{.JMT.Supervisor}}</p>{{end}}
{{if .JMT.Director}}<p>Validée directeur : {{.JMT.Director}}</p>{{end}}
</body>
</html>
`))
