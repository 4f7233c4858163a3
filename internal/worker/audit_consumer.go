// Package worker holds background consumers fed from RabbitMQ.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-admin-panel/internal/application"
)

// ErrBadMessage marks a delivery that can never be processed and should be dropped.
var ErrBadMessage = errors.New("bad audit message")

var knownEvents = map[string]bool{
	application.EventRoleAssigned: true,
	application.EventRoleRevoked:  true,
	application.EventRoleCreated:  true,
	application.EventRoleUpdated:  true,
	application.EventRoleDeleted:  true,
	application.EventUserDeleted:  true,
}

// AuditConsumer records audit events in the log and, when configured, in an
// Elasticsearch index.
type AuditConsumer struct {
	Logger *logrus.Logger
	ES     *elasticsearch.Client
	Index  string
}

// Decode parses and checks one message body.
func Decode(body []byte) (application.AuditEvent, error) {
	var ev application.AuditEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if !knownEvents[ev.Type] {
		return ev, fmt.Errorf("%w: unknown type %q", ErrBadMessage, ev.Type)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return ev, nil
}

// Handle processes one delivery. ErrBadMessage means drop, any other error means retry.
func (c *AuditConsumer) Handle(ctx context.Context, body []byte) error {
	ev, err := Decode(body)
	if err != nil {
		return err
	}
	c.Logger.WithFields(logrus.Fields{
		"event":       ev.Type,
		"actor_id":    ev.ActorID,
		"user_id":     ev.UserID,
		"role_id":     ev.RoleID,
		"occurred_at": ev.OccurredAt.Format(time.RFC3339Nano),
	}).Info("audit")

	if c.ES == nil || c.Index == "" {
		return nil
	}
	doc, _ := json.Marshal(ev)
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := esapi.IndexRequest{Index: c.Index, Body: strings.NewReader(string(doc))}.Do(cctx, c.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}
