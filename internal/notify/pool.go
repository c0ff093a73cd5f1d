package notify

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMessages is the built-in message pool.
var DefaultMessages = []string{
	"Ding dong! Someone is at the door.",
	"Knock knock! There's someone at the front door.",
	"The doorbell just rang.",
	"Visitor alert: someone pressed the doorbell.",
	"Somebody is waiting outside.",
	"Doorbell! Maybe it's the parcel you've been waiting for.",
	"Someone's at the door, go and say hello.",
	"Ring ring! Front door.",
}

// Pool is an ordered list of candidate notification messages.
type Pool struct {
	messages []string
	intn     func(n int) int
}

// NewPool creates a pool over messages, which must not be empty.
func NewPool(messages []string) (*Pool, error) {
	if len(messages) == 0 {
		return nil, errors.New("message pool is empty")
	}
	return &Pool{messages: append([]string(nil), messages...), intn: rand.Intn}, nil
}

// WithSource replaces the index source, for deterministic tests.
// intn must return a value in [0, n).
func (p *Pool) WithSource(intn func(n int) int) *Pool {
	p.intn = intn
	return p
}

// Pick returns a message chosen uniformly at random.
func (p *Pool) Pick() string {
	return p.messages[p.intn(len(p.messages))]
}

// Messages returns a copy of the pool contents.
func (p *Pool) Messages() []string {
	return append([]string(nil), p.messages...)
}

// Len returns the pool size.
func (p *Pool) Len() int {
	return len(p.messages)
}

type poolFile struct {
	Messages []string `yaml:"messages"`
}

// LoadPool reads a YAML file of the form:
//
//	messages:
//	  - "Ding dong!"
//	  - "Someone is at the door."
//
// Blank entries are dropped.
func LoadPool(path string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message file: %w", err)
	}
	return ParsePool(data)
}

// ParsePool parses the YAML message file format.
func ParsePool(data []byte) (*Pool, error) {
	var f poolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse message file: %w", err)
	}

	var messages []string
	for _, m := range f.Messages {
		if strings.TrimSpace(m) != "" {
			messages = append(messages, m)
		}
	}
	return NewPool(messages)
}
