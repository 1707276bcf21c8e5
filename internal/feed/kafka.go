package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/HerbHall/qualitywatch/pkg/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const kafkaWriteTimeout = 10 * time.Second

// decodePoints accepts either one JSON point or an array of points.
func decodePoints(value []byte) ([]models.DataPoint, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return nil, fmt.Errorf("empty message")
	}
	if value[0] == '[' {
		var points []models.DataPoint
		if err := json.Unmarshal(value, &points); err != nil {
			return nil, fmt.Errorf("decode point batch: %w", err)
		}
		return points, nil
	}
	var p models.DataPoint
	if err := json.Unmarshal(value, &p); err != nil {
		return nil, fmt.Errorf("decode point: %w", err)
	}
	return []models.DataPoint{p}, nil
}

// consumer reads points from a Kafka topic and hands them to ingest.
type consumer struct {
	reader *kafka.Reader
	ingest func(ctx context.Context, points []models.DataPoint) (int, error)
	logger *zap.Logger
	wg     sync.WaitGroup
}

func newConsumer(cfg KafkaConfig, ingest func(context.Context, []models.DataPoint) (int, error), logger *zap.Logger) *consumer {
	return &consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1e3,
			MaxBytes: 10e6,
		}),
		ingest: ingest,
		logger: logger,
	}
}

// start runs the read loop until ctx is cancelled.
func (c *consumer) start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.reader.Close()
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Warn("kafka read error", zap.Error(err))
				continue
			}
			points, err := decodePoints(msg.Value)
			if err != nil {
				c.logger.Warn("dropping undecodable kafka message",
					zap.Int64("offset", msg.Offset),
					zap.Int("partition", msg.Partition),
					zap.Error(err),
				)
				continue
			}
			if _, err := c.ingest(ctx, points); err != nil {
				c.logger.Warn("kafka ingest failed", zap.Int64("offset", msg.Offset), zap.Error(err))
			}
		}
	}()
}

func (c *consumer) wait() { c.wg.Wait() }

// probeWriter publishes latency probes onto the ingest topic so they travel
// the same path as real points.
type probeWriter struct {
	writer *kafka.Writer
}

func newProbeWriter(cfg KafkaConfig) *probeWriter {
	return &probeWriter{writer: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: kafkaWriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}}
}

func (w *probeWriter) publish(ctx context.Context, probe models.DataPoint) error {
	value, err := json.Marshal(probe)
	if err != nil {
		return fmt.Errorf("marshal probe: %w", err)
	}
	if err := w.writer.WriteMessages(ctx, kafka.Message{Key: []byte(probe.ProbeID), Value: value}); err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	return nil
}

func (w *probeWriter) close() error { return w.writer.Close() }
