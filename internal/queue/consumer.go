package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// LogFileName is the file, inside the consumer directory, that receives one
// line per consumed event.
const LogFileName = "events.log"

// Consumer reads lifecycle, quote and recruitment events from their durable
// queues and appends a one-line summary of each to Dir/events.log.
// Password reset events are never consumed here; they carry a secret.
type Consumer struct {
    URL   string
    Dir   string
    Kinds []Kind
    Log   logrus.FieldLogger

    mu sync.Mutex // serialises file appends
}

// NewConsumer returns a consumer for every brokered event kind.
func NewConsumer(url, dir string, log logrus.FieldLogger) *Consumer {
    return &Consumer{
        URL:   url,
        Dir:   dir,
        Kinds: BrokeredKinds(),
        Log:   log,
    }
}

// Run connects to the broker and consumes until ctx is cancelled.  Broker
// outages are retried with capped exponential backoff, so Run only returns
// ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).WithField("retry_in", backoff.String()).Warn("event consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.WithError(err).Warn("event consumer: consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

type taggedDelivery struct {
    kind Kind
    d    amqp.Delivery
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("event consumer: set QoS failed")
    }

    merged := make(chan taggedDelivery)
    done := make(chan struct{})
    defer close(done)

    var wg sync.WaitGroup
    for _, k := range c.Kinds {
        if _, err := ch.QueueDeclare(string(k), true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", k, err)
        }
        msgs, err := ch.Consume(string(k), "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", k, err)
        }
        wg.Add(1)
        go func(k Kind, msgs <-chan amqp.Delivery) {
            defer wg.Done()
            for d := range msgs {
                select {
                case merged <- taggedDelivery{kind: k, d: d}:
                case <-done:
                    return
                }
            }
        }(k, msgs)
    }
    closed := make(chan struct{})
    go func() {
        wg.Wait()
        close(closed)
    }()

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-closed:
            return errors.New("deliveries channel closed")
        case t := <-merged:
            at := t.d.Timestamp
            if at.IsZero() {
                at = time.Now()
            }
            if err := c.Handle(t.kind, t.d.Body, at); err != nil {
                c.Log.WithError(err).WithField("kind", string(t.kind)).Warn("event consumer: handle message failed")
                _ = t.d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = t.d.Ack(false)
        }
    }
}

// Handle formats one event and appends it to the log file.
func (c *Consumer) Handle(kind Kind, body []byte, at time.Time) error {
    line, err := FormatLine(kind, body, at)
    if err != nil {
        return err
    }
    c.mu.Lock()
    defer c.mu.Unlock()

    if err := os.MkdirAll(c.Dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.Dir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.Dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

type fileRef struct {
    FileName string `json:"fileName"`
}

// FormatLine renders a single newline-terminated log line for an event.
// Attachment content and contact details are left out.
func FormatLine(kind Kind, body []byte, at time.Time) (string, error) {
    ts := at.UTC().Format(time.RFC3339)
    switch kind {
    case MissionStatusChanged:
        var ev MissionStatusEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        driver := "none"
        if ev.DriverID != nil {
            driver = fmt.Sprint(*ev.DriverID)
        }
        prev := ev.PreviousStatus
        if prev == "" {
            prev = "?"
        }
        return fmt.Sprintf("[%s] %s | mission=%s | status=%s->%s | priority=%s | driver_id=%s | client_id=%d\n",
            ts, kind, ev.MissionNumber, prev, ev.Status, ev.Priority, driver, ev.ClientID), nil

    case QuoteCreated:
        var ev struct {
            Quote struct {
                ID                uint64 `json:"id"`
                FullName          string `json:"fullName"`
                VehicleType       string `json:"vehicleType"`
                DepartureLocation string `json:"departureLocation"`
                ArrivalLocation   string `json:"arrivalLocation"`
            } `json:"quote"`
            Attachments []fileRef `json:"attachments"`
        }
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] %s | quote_id=%d | name=%q | route=%q | vehicle=%q | attachments=%s\n",
            ts, kind, ev.Quote.ID, ev.Quote.FullName,
            ev.Quote.DepartureLocation+" -> "+ev.Quote.ArrivalLocation, ev.Quote.VehicleType,
            fileList(ev.Attachments)), nil

    case DriverApplicationSubmitted:
        var ev struct {
            ID              uint64    `json:"id"`
            FullName        string    `json:"fullName"`
            YearsExperience int       `json:"yearsExperience"`
            Regions         []string  `json:"regions"`
            Attachments     []fileRef `json:"attachments"`
        }
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] %s | application_id=%d | name=%q | experience=%dy | regions=[%s] | attachments=%s\n",
            ts, kind, ev.ID, ev.FullName, ev.YearsExperience, strings.Join(ev.Regions, ","),
            fileList(ev.Attachments)), nil
    }
    return "", fmt.Errorf("unsupported event kind %q", kind)
}

func fileList(files []fileRef) string {
    names := make([]string, len(files))
    for i, f := range files {
        names[i] = f.FileName
    }
    return "[" + strings.Join(names, ",") + "]"
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
