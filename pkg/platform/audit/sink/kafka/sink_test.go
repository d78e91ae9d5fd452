package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformkafka "dhruva/internal/platform/kafka"
	audit "dhruva/pkg/platform/audit"
)

type recordingProducer struct{ msgs []platformkafka.Message }

func (r *recordingProducer) Produce(_ context.Context, m platformkafka.Message) error {
	r.msgs = append(r.msgs, m)
	return nil
}

func TestSink_AppendPublishesJSONKeyedBySubject(t *testing.T) {
	prod := &recordingProducer{}
	sink := New(prod, "dhruva.audit")

	err := sink.Append(context.Background(), audit.Event{
		ID: "01J", Category: audit.CategoryLedger, Action: audit.ActionIssuerAuthorized, Subject: "0xbbb",
	})
	require.NoError(t, err)
	require.Len(t, prod.msgs, 1)

	msg := prod.msgs[0]
	assert.Equal(t, "dhruva.audit", msg.Topic)
	assert.Equal(t, []byte("0xbbb"), msg.Key)
	assert.Equal(t, audit.ActionIssuerAuthorized, msg.Headers["action"])

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "01J", decoded.ID)
}
