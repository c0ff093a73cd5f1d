package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	State         string         `json:"state"`
	Muted         bool           `json:"muted"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"counts"`
	Last          *LastEventJSON `json:"last_event,omitempty"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of press, ring and dispatch counts.
type CountsJSON struct {
	Button             int `json:"button"`
	Test               int `json:"test"`
	Muted              int `json:"muted"`
	Suppressed         int `json:"suppressed"`
	Rings              int `json:"rings"`
	Delivered          int `json:"delivered"`
	RequestBuildFailed int `json:"request_build_failed"`
	SendFailed         int `json:"send_failed"`
	RemoteRejected     int `json:"remote_rejected"`
}

// LastEventJSON is the JSON representation of the last handled press.
type LastEventJSON struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	Source     string `json:"source"`
	Muted      bool   `json:"muted"`
	Rang       bool   `json:"rang"`
	Outcome    string `json:"outcome"`
	Status     int    `json:"http_status,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of bridge config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	CooldownMs  int64  `json:"cooldown_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Address     uint32 `json:"address"`
	Unit        uint8  `json:"unit"`
	PeriodUs    uint32 `json:"period_us"`
	WebhookHost string `json:"webhook_host"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr,omitempty"`
	Version     string `json:"version,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		State:         state,
		Muted:         snap.Muted,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Button:             snap.Counts.Button,
			Test:               snap.Counts.Test,
			Muted:              snap.Counts.Muted,
			Suppressed:         snap.Counts.Suppressed,
			Rings:              snap.Rings,
			Delivered:          snap.Dispatches.Delivered,
			RequestBuildFailed: snap.Dispatches.RequestBuildFailed,
			SendFailed:         snap.Dispatches.SendFailed,
			RemoteRejected:     snap.Dispatches.RemoteRejected,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			CooldownMs:  snap.Config.CooldownMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Address:     snap.Config.Address,
			Unit:        snap.Config.Unit,
			PeriodUs:    snap.Config.PeriodUs,
			WebhookHost: snap.Config.WebhookHost,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Version:     snap.Config.Version,
		},
	}

	if snap.Last != nil {
		inner.Last = &LastEventJSON{
			ID:         snap.Last.ID,
			Timestamp:  snap.Last.Time.UTC().Format(time.RFC3339),
			Source:     string(snap.Last.Source),
			Muted:      snap.Last.Muted,
			Rang:       snap.Last.Rang,
			Outcome:    string(snap.Last.Outcome),
			Status:     snap.Last.Status,
			DurationMs: snap.Last.Duration.Milliseconds(),
		}
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
