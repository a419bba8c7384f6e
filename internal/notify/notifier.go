// Package notify delivers events to external webhook destinations and,
// optionally, to the message broker.  Delivery is best effort: every
// destination gets its own goroutine and timeout, failures are logged and
// never retried, and callers are never blocked.
package notify

import (
    "bytes"
    "context"
    "encoding/json"
    "io"
    "net/http"
    "net/url"
    "sync"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/config"
    "github.com/jrdriving/jrdriving-api/internal/queue"
)

// Publisher forwards an encoded event to a broker.
type Publisher interface {
    Publish(ctx context.Context, kind queue.Kind, body []byte) error
}

// Notifier fans events out to the webhook URLs configured per kind.
type Notifier struct {
    log     logrus.FieldLogger
    client  *http.Client
    routes  map[queue.Kind][]string
    timeout time.Duration
    broker  Publisher

    wg sync.WaitGroup
}

// New builds a Notifier from the webhook lists.  broker may be nil.
func New(hooks config.WebhookConfig, timeout time.Duration, broker Publisher, log logrus.FieldLogger) *Notifier {
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    return &Notifier{
        log:     log,
        client:  &http.Client{},
        timeout: timeout,
        broker:  broker,
        routes: map[queue.Kind][]string{
            queue.QuoteCreated:               hooks.QuoteCreated,
            queue.DriverApplicationSubmitted: hooks.DriverApplication,
            queue.MissionStatusChanged:       hooks.MissionStatusChange,
            queue.PasswordResetRequested:     hooks.PasswordReset,
        },
    }
}

// Notify encodes payload once and starts one delivery per destination.  It
// returns immediately.  With no destination it does nothing.  Kinds that are
// not brokered never reach the broker.
func (n *Notifier) Notify(kind queue.Kind, payload any) {
    urls := n.routes[kind]
    broker := n.broker
    if !kind.Brokered() {
        broker = nil
    }
    if len(urls) == 0 && broker == nil {
        return
    }
    body, err := json.Marshal(payload)
    if err != nil {
        n.log.WithError(err).WithField("kind", string(kind)).Error("notify: encode payload")
        return
    }
    for _, u := range urls {
        n.wg.Add(1)
        go func(u string) {
            defer n.wg.Done()
            n.post(kind, u, body)
        }(u)
    }
    if broker != nil {
        n.wg.Add(1)
        go func() {
            defer n.wg.Done()
            ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
            defer cancel()
            _ = broker.Publish(ctx, kind, body)
        }()
    }
}

// Wait blocks until every delivery started so far has finished.
func (n *Notifier) Wait() { n.wg.Wait() }

func (n *Notifier) post(kind queue.Kind, dest string, body []byte) {
    lg := n.log.WithFields(logrus.Fields{"kind": string(kind), "destination": redact(dest)})

    ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
    defer cancel()

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, bytes.NewReader(body))
    if err != nil {
        lg.WithError(err).Warn("notify: bad webhook url")
        return
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Event-Kind", string(kind))

    start := time.Now()
    resp, err := n.client.Do(req)
    if err != nil {
        lg.WithError(err).Warn("notify: webhook unreachable")
        return
    }
    defer resp.Body.Close()
    _, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

    lg = lg.WithFields(logrus.Fields{"status": resp.StatusCode, "latency_ms": time.Since(start).Milliseconds()})
    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        lg.Warn("notify: webhook returned non-success status")
        return
    }
    lg.Debug("notify: delivered")
}

// redact reduces a webhook URL to scheme and host for logging.
func redact(raw string) string {
    u, err := url.Parse(raw)
    if err != nil || u.Host == "" {
        return "invalid"
    }
    return u.Scheme + "://" + u.Host
}
