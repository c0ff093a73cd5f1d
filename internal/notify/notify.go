// Package notify delivers doorbell notifications to a webhook over HTTPS.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Outcome classifies one dispatch attempt.
type Outcome string

const (
	Delivered          Outcome = "DELIVERED"
	RequestBuildFailed Outcome = "REQUEST_BUILD_FAILED"
	SendFailed         Outcome = "SEND_FAILED"
	RemoteRejected     Outcome = "REMOTE_REJECTED"
)

// Outcomes lists every outcome, in a stable order.
var Outcomes = []Outcome{Delivered, RequestBuildFailed, SendFailed, RemoteRejected}

var (
	ErrRequestBuild   = errors.New("build request")
	ErrSend           = errors.New("send request")
	ErrRemoteRejected = errors.New("remote rejected")
)

// Result is the outcome of one dispatch. Dispatch never returns a bare
// error; failures are carried in Err and classified by Outcome.
type Result struct {
	Outcome Outcome
	// Status is the HTTP status code when a response was received.
	Status int
	// Body holds the start of the response body for RemoteRejected.
	Body string
	Err  error
}

// OK reports whether the notification was delivered.
func (r Result) OK() bool {
	return r.Outcome == Delivered
}

func (r Result) String() string {
	switch r.Outcome {
	case RemoteRejected:
		return fmt.Sprintf("%s(%d)", r.Outcome, r.Status)
	default:
		return string(r.Outcome)
	}
}

// Dispatcher sends notifications. Implementations are not required to be
// safe for concurrent use by more than one in-flight dispatch.
type Dispatcher interface {
	// Send posts content with an optional embed (nil for none).
	Send(ctx context.Context, content string, embed json.RawMessage) Result
}

// SendMessage sends content without an embed.
func SendMessage(ctx context.Context, d Dispatcher, content string) Result {
	return d.Send(ctx, content, nil)
}

// SendEmbed sends an embed with empty content.
func SendEmbed(ctx context.Context, d Dispatcher, embed json.RawMessage) Result {
	return d.Send(ctx, "", embed)
}
