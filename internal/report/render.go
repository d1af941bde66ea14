package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/template"

	"github.com/madeira-labs/concorrente/internal/intel"
)

// WriteJSON writes the report to w as indented JSON.
func WriteJSON(w io.Writer, r *intel.ResearchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable summary of the report to w.
func WriteText(w io.Writer, r *intel.ResearchReport) error {
	const textTmpl = `Competitive Research Report
---------------------------
Entity:     {{.EntityName}}
Niche:      {{.Niche}}
Generated:  {{.GeneratedAt.Format "2006-01-02 15:04:05"}}
Market:     {{.NicheAnalysis.MarketSize}}{{if .NicheAnalysis.Simulated}} (trends simulated){{end}}

Competitors:
{{- range .Competitors}}
  {{.Name}}{{if .Metrics}} — {{.Metrics.FollowersCount}} followers, {{printf "%.2f" .Metrics.EngagementRate}}% engagement{{else}} — no data collected{{end}}
{{- end}}

Trends:
{{- range .NicheAnalysis.Trends}}
  - {{.}}
{{- else}}
  None
{{- end}}

Content Gaps:
{{- range .NicheAnalysis.ContentGaps}}
  - {{.}}
{{- else}}
  None
{{- end}}

Summary:
  {{.Recommendations.Summary}}

Urgent Actions:
{{- range .Recommendations.UrgentActions}}
  - {{.}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}
	if err := t.Execute(w, r); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}
	return nil
}

// WriteHTML writes a standalone HTML rendering of the report to w.
func WriteHTML(w io.Writer, r *intel.ResearchReport) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Research Report: {{.EntityName}}</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Research Report: {{.EntityName}}</h1>
  <p><strong>Niche:</strong> {{.Niche}} | <strong>Market size:</strong> {{.NicheAnalysis.MarketSize}} | <strong>Generated:</strong> {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>

  <div class="stat-card">
    <div>Competitors</div>
    <div class="stat-val">{{len .Competitors}}</div>
  </div>
  <div class="stat-card">
    <div>Trends</div>
    <div class="stat-val">{{len .NicheAnalysis.Trends}}</div>
  </div>
  <div class="stat-card">
    <div>Content Gaps</div>
    <div class="stat-val">{{len .NicheAnalysis.ContentGaps}}</div>
  </div>

  <h3>Competitors</h3>
  <table>
    <tr><th>Name</th><th>Followers</th><th>Engagement</th><th>Posts/week</th></tr>
    {{- range .Competitors}}
    <tr>
      <td>{{.Name}}</td>
      {{- if .Metrics}}
      <td>{{.Metrics.FollowersCount}}</td>
      <td>{{printf "%.2f" .Metrics.EngagementRate}}%</td>
      <td>{{printf "%.1f" .Metrics.Cadence.PostsPerWeek}}</td>
      {{- else}}
      <td colspan="3">no data</td>
      {{- end}}
    </tr>
    {{- end}}
  </table>

  <h3>Summary</h3>
  <p>{{.Recommendations.Summary}}</p>

  <h3>Strategic Paths</h3>
  <table>
    <tr><th>#</th><th>Path</th><th>Rationale</th></tr>
    {{- range .Recommendations.StrategicPaths}}
    <tr><td>{{.Rank}}</td><td>{{.Title}}</td><td>{{.Rationale}}</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html template: %w", err)
	}
	if err := t.Execute(w, r); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

// WriteCSV writes the competitor metrics table to w as CSV, one row per
// competitor in report order.
func WriteCSV(w io.Writer, r *intel.ResearchReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "website", "followers", "posts", "engagement_rate", "posts_per_week"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, c := range r.Competitors {
		row := []string{c.Name, c.Website, "", "", "", ""}
		if c.Metrics != nil {
			row[2] = strconv.Itoa(c.Metrics.FollowersCount)
			row[3] = strconv.Itoa(c.Metrics.PostsCount)
			row[4] = strconv.FormatFloat(c.Metrics.EngagementRate, 'f', 2, 64)
			row[5] = strconv.FormatFloat(c.Metrics.Cadence.PostsPerWeek, 'f', 1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
