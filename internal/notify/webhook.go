package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// maxBodyCapture bounds how much of a rejected response is kept for logging.
const maxBodyCapture = 512

// DefaultTimeout bounds one webhook round trip at the transport layer.
const DefaultTimeout = 15 * time.Second

// Options configures a Webhook.
type Options struct {
	URL string
	TTS bool
	// CAFile is a PEM bundle of trusted roots. Empty uses the system pool.
	CAFile string
	// Timeout for the whole request; 0 uses DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the client built from CAFile and Timeout.
	HTTPClient *http.Client
}

// Webhook posts notifications to a single fixed URL.
type Webhook struct {
	url    string
	tts    bool
	client *http.Client
	log    logrus.FieldLogger

	// mu guards buf, the transmit buffer reused across dispatches.
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewWebhook creates a webhook client. It fails only if the CA bundle
// cannot be loaded.
func NewWebhook(opts Options, log logrus.FieldLogger) (*Webhook, error) {
	client := opts.HTTPClient
	if client == nil {
		var err error
		client, err = newHTTPClient(opts.CAFile, opts.Timeout)
		if err != nil {
			return nil, err
		}
	}

	log.WithField("tts", opts.TTS).Info("notify: webhook client initialized")

	return &Webhook{
		url:    opts.URL,
		tts:    opts.TTS,
		client: client,
		log:    log,
	}, nil
}

func newHTTPClient(caFile string, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca file %s: no certificates found", caFile)
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// Send posts the payload and classifies the result. It never panics and
// never retries.
func (w *Webhook) Send(ctx context.Context, content string, embed json.RawMessage) Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Reset()
	payload := Payload{Content: content, TTS: w.tts, Embed: embed}
	if err := payload.Render(&w.buf); err != nil {
		return w.fail(Result{Outcome: RequestBuildFailed, Err: fmt.Errorf("%w: %w", ErrRequestBuild, err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(w.buf.Bytes()))
	if err != nil {
		return w.fail(Result{Outcome: RequestBuildFailed, Err: fmt.Errorf("%w: %w", ErrRequestBuild, err)})
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return w.fail(Result{Outcome: SendFailed, Err: fmt.Errorf("%w: %w", ErrSend, err)})
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyCapture))
		return Result{Outcome: Delivered, Status: resp.StatusCode}
	}

	res := Result{
		Outcome: RemoteRejected,
		Status:  resp.StatusCode,
		Err:     fmt.Errorf("%w: status %d", ErrRemoteRejected, resp.StatusCode),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyCapture))
	if err != nil {
		w.log.WithError(err).Debug("notify: read rejected response body")
	}
	res.Body = string(body)
	return w.fail(res)
}

func (w *Webhook) fail(res Result) Result {
	entry := w.log.WithField("outcome", res.Outcome)
	if res.Status != 0 {
		entry = entry.WithField("status", res.Status)
	}
	if res.Body != "" {
		entry = entry.WithField("body", res.Body)
	}
	entry.WithError(res.Err).Warn("notify: dispatch failed")
	return res
}
