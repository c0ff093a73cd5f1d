package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/doorbell-bridge/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Doorbell Bridge</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.idle { color: green; font-weight: bold; }
.cooling { color: orange; font-weight: bold; }
.muted { color: #888; }
.ok { color: green; }
.fail { color: red; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Doorbell Bridge</h1>

<h2>State</h2>
<table>
<tr><th>Controller</th><td class="{{if eq (stateOrUnknown (printf "%s" .State)) "IDLE"}}idle{{else}}cooling{{end}}">{{stateOrUnknown (printf "%s" .State)}}</td></tr>
<tr><th>Chime</th><td class="{{if .Muted}}muted{{else}}ok{{end}}">{{if .Muted}}muted{{else}}enabled{{end}}</td></tr>
</table>

<h2>Last Press</h2>
<table>
{{with .Last}}<tr><th>Time</th><td>{{.Time.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Source</th><td>{{.Source}}</td></tr>
<tr><th>Chime</th><td>{{if .Rang}}rang{{else}}skipped (muted){{end}}</td></tr>
<tr><th>Webhook</th><td class="{{if eq (printf "%s" .Outcome) "DELIVERED"}}ok{{else}}fail{{end}}">{{.Outcome}}{{if .Status}} ({{.Status}}){{end}}</td></tr>
<tr><th>ID</th><td>{{.ID}}</td></tr>{{else}}<tr><th>Time</th><td>none yet</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Webhook</th><td>{{.Config.WebhookHost}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .Config.Broker}}{{if .MQTTConnected}}connected{{else}}disconnected{{end}}{{else}}disabled{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Button presses</th><td>{{.Counts.Button}}</td></tr>
<tr><th>Test presses</th><td>{{.Counts.Test}}</td></tr>
<tr><th>Muted presses</th><td>{{.Counts.Muted}}</td></tr>
<tr><th>Suppressed edges</th><td>{{.Counts.Suppressed}}</td></tr>
<tr><th>Rings</th><td>{{.Rings}}</td></tr>
<tr><th>Delivered</th><td>{{.Dispatches.Delivered}}</td></tr>
<tr><th>Failed</th><td>{{.Failed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Chime code</th><td>{{.Config.Address}}/{{.Config.Unit}} @ {{.Config.PeriodUs}}us</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Cool-down</th><td>{{.Config.CooldownMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
{{if .Config.Version}}<tr><th>Version</th><td>{{.Config.Version}}</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	d := snap.Dispatches
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Failed int
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Failed:   d.RequestBuildFailed + d.SendFailed + d.RemoteRejected,
	}
	indexTmpl.Execute(w, data)
}
