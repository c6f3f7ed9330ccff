// Package natsadapter relays fetch progress over NATS so UI clients can
// watch a long-running area fetch without polling.
package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/safestreets/safestreets/internal/core/domain"
)

// ProgressSubjectPrefix is followed by the fetch job id. Subscribers use
// "crime.fetch.progress.>" to watch every job.
const ProgressSubjectPrefix = "crime.fetch.progress."

// Publisher implements ports.ProgressPublisher. Progress events are
// ephemeral fan-out; plain core NATS, no JetStream.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// PublishProgress pushes one progress update for a fetch job.
func (p *Publisher) PublishProgress(ctx context.Context, progress domain.FetchProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return p.conn.Publish(ProgressSubjectPrefix+progress.JobID, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (the WebSocket
// relay needs its own).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
