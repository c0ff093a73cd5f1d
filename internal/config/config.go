// Package config assembles the bridge configuration from flags, the
// environment and env files. A Config is validated once at startup and is
// not modified afterwards.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"time"

	"github.com/sweeney/doorbell-bridge/internal/chime"
	"github.com/sweeney/doorbell-bridge/internal/gpio"
	"github.com/sweeney/doorbell-bridge/internal/logic"
	"github.com/sweeney/doorbell-bridge/internal/notify"
)

// DefaultPoll is the input poll interval and therefore the edge resolution.
const DefaultPoll = 50 * time.Millisecond

// Config is the complete bridge configuration.
type Config struct {
	// Webhook
	WebhookURL  string
	TTS         bool
	CAFile      string
	HTTPTimeout time.Duration
	MessageFile string

	// GPIO (BCM offsets on Chip; gpio.Disabled for optional inputs)
	Chip      string
	PinButton int
	PinTest   int
	PinMute   int
	PinData   int
	PinEnable int

	// Chime
	Address uint32
	Unit    uint8
	Period  uint32

	// Control loop
	Poll     time.Duration
	Cooldown time.Duration

	// Telemetry and status
	Broker    string
	Heartbeat time.Duration
	HTTPAddr  string

	LogLevel  string
	LogFormat string
}

// Parse registers the bridge flags on fs, parses args and validates the result.
// Every flag defaults to its environment variable, then to a built-in value.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	var c Config
	var address, unit, period uint

	fs.StringVar(&c.WebhookURL, "webhook-url", GetEnv("DOORBELL_WEBHOOK_URL", ""), "Webhook URL notifications are posted to")
	fs.BoolVar(&c.TTS, "tts", GetEnvBool("DOORBELL_TTS", false), "Ask the webhook to read messages aloud")
	fs.StringVar(&c.CAFile, "ca-file", GetEnv("DOORBELL_CA_FILE", ""), "PEM bundle of trusted CAs for the webhook host (empty uses system roots)")
	fs.DurationVar(&c.HTTPTimeout, "http-timeout", GetEnvDuration("DOORBELL_HTTP_TIMEOUT", notify.DefaultTimeout), "Webhook request timeout")
	fs.StringVar(&c.MessageFile, "messages", GetEnv("DOORBELL_MESSAGES", ""), "YAML file with the notification message pool (empty uses built-in)")

	fs.StringVar(&c.Chip, "chip", GetEnv("DOORBELL_GPIO_CHIP", "gpiochip0"), "GPIO chip device")
	fs.IntVar(&c.PinButton, "pin-button", GetEnvInt("DOORBELL_PIN_BUTTON", gpio.DefaultPinButton), "BCM pin number for the door button")
	fs.IntVar(&c.PinTest, "pin-test", GetEnvInt("DOORBELL_PIN_TEST", gpio.DefaultPinTest), "BCM pin number for the test trigger (-1 to disable)")
	fs.IntVar(&c.PinMute, "pin-mute", GetEnvInt("DOORBELL_PIN_MUTE", gpio.DefaultPinMute), "BCM pin number for the mute switch (-1 to disable)")
	fs.IntVar(&c.PinData, "pin-data", GetEnvInt("DOORBELL_PIN_DATA", gpio.DefaultPinData), "BCM pin number for the transmitter data line")
	fs.IntVar(&c.PinEnable, "pin-enable", GetEnvInt("DOORBELL_PIN_ENABLE", gpio.DefaultPinEnable), "BCM pin number for the transmitter enable line")

	fs.UintVar(&address, "address", GetEnvUint("DOORBELL_CHIME_ADDRESS", chime.DefaultAddress), "Chime device address (26 bits)")
	fs.UintVar(&unit, "unit", GetEnvUint("DOORBELL_CHIME_UNIT", chime.DefaultUnit), "Chime unit code (4 bits)")
	fs.UintVar(&period, "period", GetEnvUint("DOORBELL_CHIME_PERIOD", chime.DefaultPeriod), "Chime timing period in microseconds")

	fs.DurationVar(&c.Poll, "poll", GetEnvDuration("DOORBELL_POLL", DefaultPoll), "GPIO polling interval")
	fs.DurationVar(&c.Cooldown, "cooldown", GetEnvDuration("DOORBELL_COOLDOWN", logic.DefaultCooldown), "Ignore further presses for this long after a ring")

	fs.StringVar(&c.Broker, "broker", GetEnv("DOORBELL_MQTT_BROKER", ""), "MQTT broker for lifecycle telemetry (empty to disable)")
	fs.DurationVar(&c.Heartbeat, "heartbeat", GetEnvDuration("DOORBELL_HEARTBEAT", 15*time.Minute), "Heartbeat interval (0 to disable)")
	fs.StringVar(&c.HTTPAddr, "http", GetEnv("DOORBELL_HTTP_ADDR", ":8080"), "HTTP status address (empty to disable)")

	fs.StringVar(&c.LogLevel, "log-level", GetEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", GetEnv("LOG_FORMAT", "text"), "Log format (text, json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if address > chime.AddressMax {
		return Config{}, fmt.Errorf("address %d exceeds %d bits", address, chime.AddressBits)
	}
	if unit > chime.UnitMax {
		return Config{}, fmt.Errorf("unit %d exceeds %d bits", unit, chime.UnitBits)
	}
	if period == 0 || period > 1<<16 {
		return Config{}, fmt.Errorf("period %dus out of range", period)
	}
	c.Address = uint32(address)
	c.Unit = uint8(unit)
	c.Period = uint32(period)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration for values the bridge cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.WebhookURL == "" {
		errs = append(errs, errors.New("webhook URL is required"))
	} else if u, err := url.Parse(c.WebhookURL); err != nil {
		errs = append(errs, fmt.Errorf("webhook URL: %w", err))
	} else if u.Scheme != "https" && u.Scheme != "http" {
		errs = append(errs, fmt.Errorf("webhook URL: unsupported scheme %q", u.Scheme))
	}

	if c.Poll <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Cooldown < 0 {
		errs = append(errs, errors.New("cooldown must not be negative"))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, errors.New("heartbeat must not be negative"))
	}
	if c.Period == 0 {
		errs = append(errs, errors.New("chime period must be positive"))
	}

	pins := map[int]string{}
	checkPin := func(name string, pin int, optional bool) {
		if pin == gpio.Disabled && optional {
			return
		}
		if pin < 0 {
			errs = append(errs, fmt.Errorf("%s pin %d is invalid", name, pin))
			return
		}
		if other, ok := pins[pin]; ok {
			errs = append(errs, fmt.Errorf("%s pin %d already used by %s", name, pin, other))
			return
		}
		pins[pin] = name
	}
	checkPin("button", c.PinButton, false)
	checkPin("test", c.PinTest, true)
	checkPin("mute", c.PinMute, true)
	checkPin("data", c.PinData, false)
	checkPin("enable", c.PinEnable, false)

	return errors.Join(errs...)
}

// Message returns the chime message.
func (c Config) Message() chime.Message {
	return chime.Message{Address: c.Address, Unit: c.Unit}
}

// Pool loads the message pool from MessageFile, or the built-in pool.
func (c Config) Pool() (*notify.Pool, error) {
	if c.MessageFile == "" {
		return notify.NewPool(notify.DefaultMessages)
	}
	return notify.LoadPool(c.MessageFile)
}
