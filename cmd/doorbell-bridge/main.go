// Command doorbell-bridge watches a door button on GPIO, rings a wireless chime
// and posts a notification to a webhook.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/doorbell-bridge/internal/chime"
	"github.com/sweeney/doorbell-bridge/internal/config"
	"github.com/sweeney/doorbell-bridge/internal/gpio"
	"github.com/sweeney/doorbell-bridge/internal/logging"
	"github.com/sweeney/doorbell-bridge/internal/logic"
	"github.com/sweeney/doorbell-bridge/internal/metrics"
	"github.com/sweeney/doorbell-bridge/internal/mqtt"
	"github.com/sweeney/doorbell-bridge/internal/notify"
	"github.com/sweeney/doorbell-bridge/internal/status"
	"github.com/sweeney/doorbell-bridge/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	config.LoadEnv(logging.New("info", "text"), config.DefaultEnvFiles...)

	printState := flag.Bool("print-state", false, "Print current input levels and exit")
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("invalid configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger, *printState); err != nil {
		logger.WithError(err).Fatal("fatal")
	}
}

func run(cfg config.Config, logger *logrus.Logger, printState bool) error {
	chip, err := gpio.OpenChip(cfg.Chip, logger)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := chip.Close(); err != nil {
			logger.WithError(err).Warn("gpio release")
		}
	}()

	button, err := chip.Input(cfg.PinButton)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	test, err := optionalInput(chip, cfg.PinTest)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	mute, err := optionalInput(chip, cfg.PinMute)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}

	if printState {
		fmt.Printf("button: %s, test: %s, mute: %s\n", levelString(button), levelString(test), levelString(mute))
		return nil
	}

	data, err := chip.Output(cfg.PinData)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	enable, err := chip.Output(cfg.PinEnable)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}

	webhook, err := notify.NewWebhook(notify.Options{
		URL:     cfg.WebhookURL,
		TTS:     cfg.TTS,
		CAFile:  cfg.CAFile,
		Timeout: cfg.HTTPTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("init webhook: %w", err)
	}

	pool, err := cfg.Pool()
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	transmitter := chime.NewTransmitter(data, chime.BusyWait{}, cfg.Message(), cfg.Period, logger)
	collector := metrics.New(version)

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		CooldownMs:  cfg.Cooldown.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Address:     cfg.Address,
		Unit:        cfg.Unit,
		PeriodUs:    cfg.Period,
		WebhookHost: webhookHost(cfg.WebhookURL),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		Version:     version,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker, logger)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
		tracker.SetMQTTConnected(p.IsConnected())
	}

	b := &bridge{
		button:     logic.NewPinState(button),
		enable:     enable,
		ringer:     transmitter,
		dispatcher: webhook,
		pool:       pool,
		metrics:    collector,
		tracker:    tracker,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		log:        logger,
		cooldown:   cfg.Cooldown,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if test != nil {
		b.test = logic.NewPinState(test)
	}
	if mute != nil {
		b.mute = logic.NewPinState(mute)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	b.publish(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	})

	logger.WithFields(logrus.Fields{
		"version":  version,
		"address":  cfg.Address,
		"unit":     cfg.Unit,
		"period":   cfg.Period,
		"burst":    transmitter.BurstDuration(),
		"poll":     cfg.Poll,
		"cooldown": cfg.Cooldown,
		"webhook":  webhookHost(cfg.WebhookURL),
		"messages": pool.Len(),
	}).Info("started")

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return runLoop(gctx, b, ticker.C, sigCh)
	})

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, collector.Handler())
		g.Go(func() error {
			logger.WithField("addr", cfg.HTTPAddr).Info("http status server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// bridge holds everything the control loop owns or reports to.
type bridge struct {
	button *logic.PinState
	test   *logic.PinState // nil when disabled
	mute   *logic.PinState // nil when disabled
	enable gpio.Output

	ringer     chime.Ringer
	dispatcher notify.Dispatcher
	pool       *notify.Pool

	metrics    *metrics.Collector
	tracker    *status.Tracker
	publisher  mqtt.Publisher // nil when MQTT is disabled
	mqttStatus mqtt.ConnectionStatus
	log        logrus.FieldLogger

	cooldown  time.Duration
	heartbeat time.Duration
	now       func() time.Time
	newID     func() string
}

func runLoop(ctx context.Context, b *bridge, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctrl := logic.NewController(b.cooldown, b.now())

	for {
		select {
		case <-ctx.Done():
			b.shutdown("CANCELLED")
			return nil

		case s := <-sig:
			b.log.WithField("signal", s).Info("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			b.shutdown(signalName)
			return nil

		case <-tick:
			t := b.now()

			// Sample both triggers every tick so neither edge detector goes stale.
			press := b.button.FallingEdge()
			test := false
			if b.test != nil {
				test = b.test.FallingEdge()
			}
			muted := b.mute != nil && b.mute.IsLow()

			suppressed := ctrl.EventCountsSnapshot().Suppressed
			ev := ctrl.Process(logic.Input{Press: press, Test: test, Muted: muted, Time: t})
			if n := ctrl.EventCountsSnapshot().Suppressed - suppressed; n > 0 {
				b.log.WithField("until", ctrl.CooldownUntil()).Debug("press ignored during cool-down")
				b.metrics.ObserveSuppressed(n)
			}
			b.metrics.SetMuted(muted)

			if ev != nil {
				b.handle(ctx, *ev)
			}

			if hb := ctrl.CheckHeartbeat(t, b.heartbeat); hb != nil {
				b.log.WithFields(logrus.Fields{
					"uptime": hb.Uptime,
					"button": hb.Counts.Button,
					"test":   hb.Counts.Test,
					"muted":  hb.Counts.Muted,
				}).Info("heartbeat")
				if net := readNetworkInfo(); net != nil {
					b.tracker.SetNetwork(net)
				}
				b.updateTracker(ctrl, muted)
				snap := b.tracker.Snapshot()
				b.publish(mqtt.SystemEvent{
					Timestamp:  hb.Timestamp,
					Event:      mqtt.EventHeartbeat,
					RawPayload: status.FormatStatusEvent(snap, mqtt.EventHeartbeat, ""),
				})
			}

			b.updateTracker(ctrl, muted)
		}
	}
}

// handle acts on one press: notify first, then ring unless muted.
func (b *bridge) handle(ctx context.Context, ev logic.Event) {
	id := b.newID()
	log := b.log.WithFields(logrus.Fields{
		"event_id": id,
		"source":   ev.Source,
		"muted":    ev.Muted,
	})
	log.Info("press")
	b.metrics.ObservePress(ev)

	start := b.now()
	res := b.dispatcher.Send(ctx, b.pool.Pick(), nil)
	elapsed := b.now().Sub(start)
	b.metrics.ObserveDispatch(res, elapsed)

	entry := log.WithFields(logrus.Fields{"outcome": res.Outcome, "duration": elapsed})
	if res.Status != 0 {
		entry = entry.WithField("http_status", res.Status)
	}
	if res.OK() {
		entry.Info("notification delivered")
	} else {
		entry.WithError(res.Err).Warn("notification failed")
	}

	rang := false
	if !ev.Muted {
		b.ring(log)
		rang = true
	}

	b.tracker.RecordEvent(status.LastEvent{
		ID:       id,
		Time:     ev.Time,
		Source:   ev.Source,
		Muted:    ev.Muted,
		Rang:     rang,
		Outcome:  res.Outcome,
		Status:   res.Status,
		Duration: elapsed,
	})
}

// ring keys the transmitter for exactly one burst.
func (b *bridge) ring(log logrus.FieldLogger) {
	if err := b.enable.Set(true); err != nil {
		log.WithError(err).Error("transmitter enable failed")
	}
	start := b.now()
	b.ringer.Ring()
	elapsed := b.now().Sub(start)
	if err := b.enable.Set(false); err != nil {
		log.WithError(err).Error("transmitter disable failed")
	}
	b.metrics.ObserveRing(elapsed)
	log.WithField("duration", elapsed).Info("chime rung")
}

func (b *bridge) updateTracker(ctrl *logic.Controller, muted bool) {
	b.tracker.Update(ctrl.State(), muted, ctrl.EventCountsSnapshot())
	if b.mqttStatus != nil {
		b.tracker.SetMQTTConnected(b.mqttStatus.IsConnected())
	}
}

func (b *bridge) shutdown(reason string) {
	if b.mqttStatus != nil {
		b.tracker.SetMQTTConnected(b.mqttStatus.IsConnected())
	}
	snap := b.tracker.Snapshot()
	b.publish(mqtt.SystemEvent{
		Timestamp:  b.now(),
		Event:      mqtt.EventShutdown,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventShutdown, reason),
	})
}

// publish sends a lifecycle event. Failures are logged, never fatal.
func (b *bridge) publish(ev mqtt.SystemEvent) {
	if b.publisher == nil {
		return
	}
	log := b.log.WithField("event", ev.Event)
	if err := b.publisher.PublishSystem(ev); err != nil {
		log.WithError(err).Warn("mqtt publish failed")
		return
	}
	log.Debug("mqtt published")
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func optionalInput(chip *gpio.Chip, pin int) (*gpio.Line, error) {
	if pin == gpio.Disabled {
		return nil, nil
	}
	return chip.Input(pin)
}

func levelString(l *gpio.Line) string {
	switch {
	case l == nil:
		return "disabled"
	case l.IsHigh():
		return "HIGH"
	default:
		return "LOW"
	}
}

// webhookHost returns the host part of the webhook URL. The path carries
// the webhook token and is never logged or displayed.
func webhookHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
