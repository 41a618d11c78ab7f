package report

// htmlTemplate is the standalone HTML report. It has no external assets.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .header { border-bottom: 3px solid var(--accent); padding-bottom: 12px; margin-bottom: 16px; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); vertical-align: top; }
  .num { text-align: right; font-variant-numeric: tabular-nums; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }
  .bar { background: var(--border); border-radius: 3px; height: 8px; width: 120px; }
  .bar > span { display: block; background: var(--accent); border-radius: 3px; height: 8px; }
  .note { background: var(--section-bg); padding: 10px 12px; border-radius: 6px; }
  .news { list-style: none; font-size: 0.8rem; margin-top: 4px; }
  .news a { color: var(--muted); }
  .footer { margin-top: 32px; padding-top: 12px; border-top: 1px solid var(--border); color: var(--muted); font-size: 0.8rem; }
</style>
</head>
<body>

<div class="header">
  <h1>{{.Title}}</h1>
  <p class="muted">{{if .UserName}}{{.UserName}} · {{end}}User {{.UserID}} · Generated {{.GeneratedAt}}</p>
</div>

<div class="section">
  <h2>Portfolio</h2>
  {{if .Holdings}}
  <table>
    <thead><tr><th>Symbol</th><th>Sector</th><th class="num">Weight</th></tr></thead>
    <tbody>
    {{range .Holdings}}
    <tr><td>{{.Symbol}}</td><td>{{.Sector}}</td><td class="num">{{.Weight}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <table>
    <thead><tr><th>Sector</th><th class="num">Weight</th><th class="num">Share</th></tr></thead>
    <tbody>
    {{range .Allocation}}
    <tr><td>{{.Sector}}</td><td class="num">{{.Weight}}</td><td class="num">{{pct .Share}}%</td></tr>
    {{end}}
    </tbody>
  </table>
  {{if .TopSector}}<p>Top sector: <strong>{{.TopSector}}</strong></p>{{end}}
  {{else}}
  <p class="note">No holdings.</p>
  {{end}}
</div>

{{range .Sections}}
<div class="section">
  <h2>{{.Title}}</h2>
  {{if .Subtitle}}<p class="muted">{{.Subtitle}}</p>{{end}}
  {{if .Note}}<p class="note">{{.Note}}</p>{{end}}
  {{if .Rows}}
  <table>
    <thead><tr><th>#</th><th>Symbol</th><th class="num">Score</th><th></th><th>Company</th><th>Sector</th><th>Headquarters</th><th class="num">Change</th></tr></thead>
    <tbody>
    {{range .Rows}}
    <tr>
      <td>{{.Rank}}</td>
      <td><strong>{{.Symbol}}</strong></td>
      <td class="num">{{.Score}}</td>
      <td><div class="bar"><span style="width: {{pct .ScoreValue}}%"></span></div></td>
      <td>{{.Security}}{{if .SubIndustry}}<div class="muted">{{.SubIndustry}}</div>{{end}}
        {{if .Headlines}}<ul class="news">{{range .Headlines}}<li><a href="{{.Link}}">{{.Title}}</a>{{if .SentimentLabel}} <span class="muted">{{.SentimentLabel}}</span>{{end}}</li>{{end}}</ul>{{end}}
      </td>
      <td>{{.Sector}}</td>
      <td>{{.Headquarters}}{{if .Founded}}<div class="muted">Founded {{.Founded}}</div>{{end}}</td>
      <td class="num {{.ChangeClass}}">{{.Change}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
  {{end}}
</div>
{{end}}

<div class="footer">
  <p>Scores are relative (0-100) within each list and reflect what similar investors hold. They are not investment advice.</p>
</div>

</body>
</html>`
