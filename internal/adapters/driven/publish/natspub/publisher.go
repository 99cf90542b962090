// Package natspub publishes crawl records to NATS subjects.
//
// Change records go to <prefix>.changes.<operation> and document records to
// <prefix>.documents. Every message carries the run id in a header and a
// Nats-Msg-Id of <run>-<seq> so JetStream streams can deduplicate redeliveries.
package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

const (
	// DefaultPrefix is the subject prefix when none is configured.
	DefaultPrefix = "sharepoint"

	// HeaderRunID carries the crawl run id.
	HeaderRunID = "Sercha-Run-Id"

	// flushTimeout bounds the final flush on Close.
	flushTimeout = 10 * time.Second
)

// Ensure Publisher implements the interface.
var _ driven.RecordSink = (*Publisher)(nil)

// conn is the subset of *nats.Conn used by the publisher.
type conn interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Publisher is a RecordSink publishing each record as one NATS message.
type Publisher struct {
	nc     conn
	owned  bool
	prefix string
	runID  string

	mu  sync.Mutex
	seq int
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("sercha-sp"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	p := newPublisher(nc, prefix)
	p.owned = true
	return p, nil
}

// NewPublisher wraps an existing connection. Close flushes but does not close it.
func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return newPublisher(nc, prefix)
}

func newPublisher(nc conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{nc: nc, prefix: prefix, runID: uuid.NewString()}
}

// RunID returns the id stamped on every message of this publisher.
func (p *Publisher) RunID() string {
	return p.runID
}

// WriteChange publishes a change record.
func (p *Publisher) WriteChange(_ context.Context, record domain.ChangeRecord) error {
	return p.publish(fmt.Sprintf("%s.changes.%s", p.prefix, record.Operation), record)
}

// WriteDocument publishes a document record.
func (p *Publisher) WriteDocument(_ context.Context, record domain.DocumentRecord) error {
	return p.publish(p.prefix+".documents", record)
}

func (p *Publisher) publish(subject string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(HeaderRunID, p.runID)
	msg.Header.Set(nats.MsgIdHdr, p.runID+"-"+strconv.Itoa(seq))

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes an owned connection.
func (p *Publisher) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	err := p.nc.FlushWithContext(ctx)
	if err != nil {
		logger.Warn("nats: flush failed: %v", err)
	}
	if p.owned {
		p.nc.Close()
	}
	if err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}
