package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"identhub/internal/audit"
)

type recordingProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (p *recordingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func (p *recordingProducer) Close() { p.closed = true }

func TestSinkWrite(t *testing.T) {
	producer := &recordingProducer{}
	sink := NewWithProducer(producer, "identhub.audit")

	ev := audit.Event{SessionID: "s1", Action: audit.ActionStepEntered, Step: "bank/iban"}
	require.NoError(t, sink.Write(context.Background(), ev))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "identhub.audit", rec.Topic)
	assert.Equal(t, "s1", string(rec.Key))
	assert.Equal(t, "action", rec.Headers[0].Key)

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, "bank/iban", decoded.Step)

	sink.Close()
	assert.True(t, producer.closed)
}

func TestSinkWriteError(t *testing.T) {
	sink := NewWithProducer(&recordingProducer{err: errors.New("leader not available")}, "t")
	err := sink.Write(context.Background(), audit.Event{SessionID: "s1"})
	assert.ErrorContains(t, err, "leader not available")
}
