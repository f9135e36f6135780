package extractor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/metrics"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Kafka extractor configuration.
const (
	KafkaScope          = "kafka_source"
	KafkaBrokersKey     = "brokers"
	KafkaTopicKey       = "topic"
	KafkaOffsetKey      = "initial_offset"
	KafkaTimeoutKey     = "consumer_timeout"
	KafkaMaxMessagesKey = "max_messages"
	KafkaClientIDKey    = "client_id"
)

// KafkaExtractor consumes JSON messages from every partition of one topic
// until the consumer timeout elapses (or max_messages is reached) and hands
// each message on as a map[string]any.
type KafkaExtractor struct {
	topic       string
	offset      int64
	timeout     time.Duration
	maxMessages int

	consumer   sarama.Consumer
	partitions []sarama.PartitionConsumer
	messages   chan *sarama.ConsumerMessage
	stop       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	deadline   time.Time
	count      int
	done       bool

	// newConsumer is replaced in tests.
	newConsumer func(brokers []string, cfg *sarama.Config) (sarama.Consumer, error)
	logger      *zap.Logger
}

// Scope implements Extractor.
func (e *KafkaExtractor) Scope() string { return KafkaScope }

// Init connects to the brokers and opens a consumer per partition.
func (e *KafkaExtractor) Init(_ context.Context, cfg *config.Config) error {
	e.logger = logger.Get().With(zap.String("component", KafkaScope))

	brokers := cfg.GetStringSlice(KafkaBrokersKey, nil)
	if len(brokers) == 0 {
		return errors.New(errors.ErrorTypeConfig, "kafka_source: brokers are required")
	}
	topic, err := cfg.RequireString(KafkaTopicKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, KafkaScope)
	}
	e.topic = topic
	e.timeout = cfg.GetDuration(KafkaTimeoutKey, 30*time.Second)
	e.maxMessages = cfg.GetInt(KafkaMaxMessagesKey, 0)

	switch o := cfg.GetString(KafkaOffsetKey, "oldest"); o {
	case "oldest":
		e.offset = sarama.OffsetOldest
	case "newest":
		e.offset = sarama.OffsetNewest
	default:
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("kafka_source: unknown initial_offset %q", o))
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.GetString(KafkaClientIDKey, "databuilder")
	saramaCfg.Consumer.Offsets.Initial = e.offset

	if e.newConsumer == nil {
		e.newConsumer = sarama.NewConsumer
	}
	consumer, err := e.newConsumer(brokers, saramaCfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to create Kafka consumer")
	}
	e.consumer = consumer

	ids, err := consumer.Partitions(topic)
	if err != nil {
		_ = e.Close()
		return errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("list partitions of %s", topic))
	}

	e.messages = make(chan *sarama.ConsumerMessage)
	e.stop = make(chan struct{})
	for _, id := range ids {
		pc, err := consumer.ConsumePartition(topic, id, e.offset)
		if err != nil {
			_ = e.Close()
			return errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("consume %s/%d", topic, id))
		}
		e.partitions = append(e.partitions, pc)
		e.wg.Add(1)
		go e.forward(pc, e.stop)
	}

	e.logger.Info("kafka extractor initialized",
		zap.String("topic", topic),
		zap.Int("partitions", len(ids)),
		zap.Duration("timeout", e.timeout))
	return nil
}

// forward fans one partition into the shared message channel until stop is
// closed.
func (e *KafkaExtractor) forward(pc sarama.PartitionConsumer, stop <-chan struct{}) {
	defer e.wg.Done()
	for {
		select {
		case msg, ok := <-pc.Messages():
			if !ok {
				return
			}
			select {
			case e.messages <- msg:
			case <-stop:
				return
			}
		case <-stop:
			return
		}
	}
}

// Extract returns the next decoded message or nil once the timeout elapses.
// Messages that are not JSON objects are skipped.
func (e *KafkaExtractor) Extract(ctx context.Context) (any, error) {
	if e.done || e.messages == nil {
		return nil, nil
	}
	if e.deadline.IsZero() {
		e.deadline = time.Now().Add(e.timeout)
	}

	for {
		if e.maxMessages > 0 && e.count >= e.maxMessages {
			e.done = true
			return nil, nil
		}

		timer := time.NewTimer(time.Until(e.deadline))
		select {
		case msg := <-e.messages:
			timer.Stop()
			var rec map[string]any
			if err := json.Unmarshal(msg.Value, &rec); err != nil {
				metrics.Skipped.WithLabelValues(KafkaScope, "non_json").Inc()
				e.logger.Warn("skipping non-JSON message",
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				continue
			}
			e.count++
			return rec, nil
		case <-timer.C:
			e.done = true
			e.logger.Info("kafka consumer timeout reached", zap.Int("messages", e.count))
			return nil, nil
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// Close stops the forwarders, then the partition consumers and the consumer.
// Messages still in flight are dropped. Close may be called more than once.
func (e *KafkaExtractor) Close() error {
	if e.stop != nil {
		e.stopOnce.Do(func() { close(e.stop) })
	}
	e.wg.Wait()

	var firstErr error
	for _, pc := range e.partitions {
		if err := pc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.partitions = nil

	if e.consumer != nil {
		if err := e.consumer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.consumer = nil
	}
	return firstErr
}
