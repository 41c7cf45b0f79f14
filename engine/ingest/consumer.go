package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/RecallWorks/recall-engine/engine/domain"
	"github.com/RecallWorks/recall-engine/pkg/natsutil"
)

const (
	// IngestSubject is the NATS subject for incoming transcripts.
	IngestSubject = "recall.ingest"
	// DLQSubject is the dead letter queue subject for failed transcripts.
	DLQSubject = "recall.ingest.dlq"
	// MaxRetries before a transcript is sent to the DLQ.
	MaxRetries = 3
)

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Doc     domain.TranscriptDoc `json:"doc"`
	Error   string               `json:"error"`
	Retries int                  `json:"retries"`
}

// StartConsumer subscribes the service to IngestSubject and runs each
// transcript through the ingestion pipeline. Failed documents are republished
// with an incremented X-Retry-Count header; after MaxRetries they go to the
// DLQ with the error attached.
func (s *Service) StartConsumer(nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe(IngestSubject, func(msg *nats.Msg) {
		var doc domain.TranscriptDoc
		if err := json.Unmarshal(msg.Data, &doc); err != nil {
			s.logger.Error("ingest: unmarshal failed", "error", err)
			return
		}

		ctx := natsutil.Extract(msg)

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		docID, err := s.StoreDocument(ctx, doc)
		if err != nil {
			retries++
			s.logger.Error("ingest: pipeline failed",
				"error", err,
				"channel_id", doc.ChannelID,
				"retry", retries,
			)

			if retries >= MaxRetries {
				dlq := dlqMessage{
					Doc:     doc,
					Error:   err.Error(),
					Retries: retries,
				}
				if err := natsutil.Publish(ctx, nc, DLQSubject, dlq); err != nil {
					s.logger.Error("ingest: DLQ publish failed", "error", err)
				}
			} else {
				retryMsg := nats.NewMsg(IngestSubject)
				retryMsg.Data = msg.Data
				retryMsg.Header = nats.Header{}
				retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
				if err := nc.PublishMsg(retryMsg); err != nil {
					s.logger.Error("ingest: retry publish failed", "error", err)
				}
			}
		} else {
			s.logger.Info("ingest: consumed transcript", "doc_id", docID)
		}

		if msg.Reply != "" {
			_ = msg.Ack()
		}
	})
}
