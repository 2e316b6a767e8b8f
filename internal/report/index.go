package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
)

// indexTemplate renders the dashboard page: a grouped session list on
// the left and a Chart.js history chart with a tag filter on the right.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>YALAPM Reports</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2em; background: #f4f4f9; color: #333; }
  h1, h2, h3 { color: #444; }
  .container { display: flex; flex-wrap: wrap; gap: 2em; }
  .reports-list { flex: 1; min-width: 350px; }
  .chart-container { flex: 2; min-width: 400px; background: #fff; padding: 1em; border-radius: 8px; box-shadow: 0 0 10px rgba(0,0,0,0.1); }
  ul { list-style-type: none; padding: 0; }
  li { margin-bottom: 0.5em; padding: 0.5em; background: #fff; border-radius: 4px; }
  a { text-decoration: none; color: #007bff; }
  a:hover { text-decoration: underline; }
  .tag-group { margin-bottom: 1.5em; border: 1px solid #ddd; padding: 1em; border-radius: 8px; background: #fafafa; }
  .chart-controls { margin-bottom: 1em; }
  .chart-controls label { font-weight: bold; margin-right: 10px; }
  .chart-controls select { padding: 5px; border-radius: 4px; border: 1px solid #ccc; }
</style>
</head>
<body>
<h1>YALAPM Session Reports Dashboard</h1>
<div class="container">
  <div class="reports-list">
    <h2>Saved Sessions</h2>
{{- range .Tags}}
    <div class="tag-group">
      <h3>Tag: {{.Name}}</h3>
      <ul>
{{- range .Reports}}
        <li><a href="{{.Filename}}">{{.WrittenAt.Format "2006-01-02 15:04"}}</a> - Avg APM: {{.AverageAPM}}</li>
{{- end}}
      </ul>
    </div>
{{- end}}
  </div>
  <div class="chart-container">
    <div class="chart-controls">
      <label for="tagFilter">Filter Chart by Tag:</label>
      <select id="tagFilter">
        <option value="all">All Tags</option>
{{- range .Tags}}
        <option value="{{.Name}}">{{.Name}}</option>
{{- end}}
      </select>
    </div>
    <h2>Historical APM Performance</h2>
    <canvas id="apmChart"></canvas>
  </div>
</div>
<script>
  const reportsByTag = {{.ByTagJSON}};
  const allReports = {{.AllJSON}};
  let apmChart;

  function updateChart(selectedTag) {
    let sourceData = selectedTag === 'all' ? allReports : (reportsByTag[selectedTag] || []);
    sourceData = sourceData.slice().sort((a, b) => new Date(a.report_datetime) - new Date(b.report_datetime));
    apmChart.data.labels = sourceData.map(r => new Date(r.report_datetime).toLocaleString());
    apmChart.data.datasets[0].data = sourceData.map(r => r.average_apm);
    apmChart.data.datasets[1].data = sourceData.map(r => r.average_veapm);
    apmChart.update();
  }

  document.addEventListener('DOMContentLoaded', () => {
    const ctx = document.getElementById('apmChart').getContext('2d');
    apmChart = new Chart(ctx, {
      type: 'line',
      data: {
        labels: [],
        datasets: [
          { label: 'Average APM', data: [], borderColor: 'rgba(75, 192, 192, 1)', tension: 0.1 },
          { label: 'Average veAPM', data: [], borderColor: 'rgba(255, 99, 132, 1)', tension: 0.1 }
        ]
      },
      options: {
        responsive: true,
        scales: {
          x: { title: { display: true, text: 'Report Date' } },
          y: { title: { display: true, text: 'APM' } }
        }
      }
    });
    updateChart('all');
    document.getElementById('tagFilter').addEventListener('change', (e) => updateChart(e.target.value));
  });
</script>
</body>
</html>
`))

type indexTag struct {
	Name    string
	Reports []*Report
}

type indexData struct {
	Tags      []indexTag
	ByTagJSON template.JS
	AllJSON   template.JS
}

// RebuildIndex regenerates index.html from every report document
// currently on disk.
func (s *Store) RebuildIndex() error {
	grouped, err := s.ByTag()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	data := indexData{}
	var all []*Report
	for _, name := range names {
		data.Tags = append(data.Tags, indexTag{Name: name, Reports: grouped[name]})
		all = append(all, grouped[name]...)
	}
	if all == nil {
		all = []*Report{}
	}

	byTagJSON, err := json.Marshal(grouped)
	if err != nil {
		return fmt.Errorf("failed to encode index data: %w", err)
	}
	allJSON, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode index data: %w", err)
	}
	data.ByTagJSON = template.JS(byTagJSON)
	data.AllJSON = template.JS(allJSON)

	f, err := os.Create(s.IndexPath())
	if err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := indexTemplate.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to render index: %w", err)
	}
	return f.Close()
}
