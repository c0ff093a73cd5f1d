package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Payload is the webhook request body.
type Payload struct {
	Content string
	TTS     bool
	// Embed is a single embed object, or nil for none.
	Embed json.RawMessage
}

// Render renders the payload into buf in the webhook's wire layout:
//
//	{"content": "<text>", "tts": <bool>, "embeds": [<embed>]}
//
// Content is escaped as a JSON string, without HTML escaping. An embed
// that is not valid JSON is rejected rather than spliced in.
func (p Payload) Render(buf *bytes.Buffer) error {
	if len(p.Embed) > 0 && !json.Valid(p.Embed) {
		return fmt.Errorf("embed is not valid JSON")
	}

	var content bytes.Buffer
	enc := json.NewEncoder(&content)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p.Content); err != nil {
		return fmt.Errorf("encode content: %w", err)
	}

	buf.WriteString(`{"content": `)
	buf.Write(bytes.TrimSuffix(content.Bytes(), []byte("\n")))
	buf.WriteString(`, "tts": `)
	buf.WriteString(strconv.FormatBool(p.TTS))
	buf.WriteString(`, "embeds": [`)
	buf.Write(p.Embed)
	buf.WriteString(`]}`)
	return nil
}

// Bytes renders the payload into a new slice.
func (p Payload) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
