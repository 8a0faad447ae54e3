package database

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnectNats dials the NATS server used for notification dispatch. An empty
// URL is not an error: the notifier degrades to its log sink without a broker.
func ConnectNats(url string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}

	return conn, nil
}
