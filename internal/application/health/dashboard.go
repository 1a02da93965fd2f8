package health

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(health CollectResult) string {
	b, _ := json.Marshal(health)
	// embedded in a JS template literal
	payload := strings.NewReplacer("\\", "\\\\", "`", "\\`", "$", "\\$").Replace(string(b))

	headline := "All Systems Operational"
	if health.Status != "ok" {
		headline = "System Issues Detected"
	}

	lastRun := "never"
	if r := health.Reconciler; r != nil {
		lastRun = fmt.Sprintf("%s · %d profiles · %d new", r.FinishedAt.UTC().Format("2006-01-02 15:04:05Z"), r.Profiles, r.NewNotifications)
		if r.Error != "" {
			lastRun += " · " + r.Error
		}
	}

	var deps strings.Builder
	for _, name := range []string{"database", "redis"} {
		d := health.Dependencies[name]
		class := "err"
		if d.Status == "connected" {
			class = "ok"
		}
		ping := "--"
		if p, ok := d.PingMs.(*int64); ok && p != nil {
			ping = fmt.Sprint(*p)
		}
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span id="pill-%s" class="pill %s">%s · <span id="ping-%s">%s</span> ms</span></div>`,
			name, name, class, html.EscapeString(d.Status), name, ping)
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Riftmarket · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    body { font-family: system-ui, sans-serif; background: #f6f7fb; color: #1c2233; margin: 0; padding: 40px 20px; }
    .wrap { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; margin: 0 0 8px; letter-spacing: -1px; }
    .sub { color: #64748b; font-weight: 600; margin-bottom: 28px; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; }
    .card { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 8px 30px rgba(28,34,51,0.06); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: #94a3b8; margin-bottom: 16px; }
    .big { font-size: 34px; font-weight: 900; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; font-weight: 600; }
    .pill { padding: 3px 10px; border-radius: 8px; font-size: 11px; font-weight: 800; }
    .ok { background: #e6f6f1; color: #0f7a5c; }
    .err { background: #fdecec; color: #d02b2b; }
    .foot { margin-top: 20px; font-family: monospace; font-size: 13px; color: #475569; }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="wrap">
    <h1 id="headline">` + headline + `</h1>
    <div class="sub">Trade matching API · <a href="/health/json">/health/json</a> · <a href="/health/errors">/health/errors</a></div>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
        <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
        <div class="row"><span>Success Rate</span><span id="success-rate">` + health.Traffic.SuccessRate + `%</span></div>
        <div class="row"><span>Avg Latency</span><span id="avg-time">` + fmt.Sprint(health.Traffic.AvgResponseTime) + `ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big" id="uptime">` + fmt.Sprint(health.Runtime.UptimeSeconds) + `s</div>
        <div class="row"><span>Heap Used</span><span>` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
        <div class="row"><span>Goroutines</span><span>` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
        <div class="row"><span>Go</span><span>` + html.EscapeString(health.Runtime.GoVersion) + `</span></div>
      </div>
      <div class="card">
        <div class="label">Connectivity</div>
        ` + deps.String() + `
      </div>
    </div>
    <div class="foot">Last batch reconcile: <span id="reconciler">` + html.EscapeString(lastRun) + `</span></div>
  </div>
  <script>
    const initial = JSON.parse(` + "`" + payload + "`" + `);
    async function tick() {
      try {
        const d = await (await fetch('/health/json')).json();
        document.getElementById('total-req').innerText = d.traffic.totalRequests;
        document.getElementById('failed-count').innerText = d.traffic.failedCount;
        document.getElementById('success-rate').innerText = d.traffic.successRate + '%';
        document.getElementById('headline').innerText = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
      } catch (e) {}
    }
    if (initial.status) setInterval(tick, 15000);
  </script>
</body>
</html>`
}
