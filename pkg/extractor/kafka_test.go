package extractor

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kafkaConfig(extra map[string]interface{}) *config.Config {
	values := map[string]interface{}{
		KafkaBrokersKey: []string{"localhost:9092"},
		KafkaTopicKey:   "metadata",
		KafkaTimeoutKey: "200ms",
	}
	for k, v := range extra {
		values[k] = v
	}
	return config.FromMap(values)
}

func mockKafka(t *testing.T, msgs ...string) *KafkaExtractor {
	consumer := mocks.NewConsumer(t, nil)
	consumer.SetTopicMetadata(map[string][]int32{"metadata": {0}})
	pc := consumer.ExpectConsumePartition("metadata", 0, sarama.OffsetOldest)
	for _, m := range msgs {
		pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(m)})
	}
	return &KafkaExtractor{
		newConsumer: func([]string, *sarama.Config) (sarama.Consumer, error) { return consumer, nil },
	}
}

func TestKafkaExtractor(t *testing.T) {
	e := mockKafka(t, `{"name":"orders","schema":"shop"}`, `not json`, `{"name":"users"}`)
	ctx := context.Background()
	require.NoError(t, e.Init(ctx, kafkaConfig(nil)))

	start := time.Now()
	records, err := Drain(ctx, e)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, map[string]any{"name": "orders", "schema": "shop"}, records[0])
	assert.Equal(t, "users", records[1].(map[string]any)["name"])
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	rec, err := e.Extract(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, e.Close())
}

func TestKafkaExtractorMaxMessages(t *testing.T) {
	e := mockKafka(t, `{"a":1}`, `{"a":2}`, `{"a":3}`)
	ctx := context.Background()
	require.NoError(t, e.Init(ctx, kafkaConfig(map[string]interface{}{
		KafkaMaxMessagesKey: 2,
		KafkaTimeoutKey:     "10s",
	})))

	records, err := Drain(ctx, e)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	closeWithin(t, e, 3*time.Second)
}

func TestKafkaExtractorCloseWithPendingMessages(t *testing.T) {
	e := mockKafka(t, `{"a":1}`, `{"a":2}`, `{"a":3}`, `{"a":4}`)
	ctx := context.Background()
	require.NoError(t, e.Init(ctx, kafkaConfig(map[string]interface{}{KafkaTimeoutKey: "10s"})))

	rec, err := e.Extract(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, rec)

	closeWithin(t, e, 3*time.Second)
	closeWithin(t, e, time.Second)
}

func closeWithin(t *testing.T, e *KafkaExtractor, d time.Duration) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- e.Close() }()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(d):
		t.Fatalf("Close did not return within %s", d)
	}
}

func TestKafkaExtractorConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"no brokers", config.FromMap(map[string]interface{}{KafkaTopicKey: "t"})},
		{"no topic", config.FromMap(map[string]interface{}{KafkaBrokersKey: []string{"b:9092"}})},
		{"bad offset", kafkaConfig(map[string]interface{}{KafkaOffsetKey: "middle"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &KafkaExtractor{}
			require.Error(t, e.Init(context.Background(), tt.cfg))
		})
	}
}
