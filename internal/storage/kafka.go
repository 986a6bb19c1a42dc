package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/gosight/gameperf/internal/config"
	"github.com/gosight/gameperf/internal/report"
)

// Topic names looked up in config.KafkaConfig.Topics.
const (
	TopicReports = "reports"
	TopicAlerts  = "alerts"
)

// Kafka publishes reports and one alert per recommendation.
type Kafka struct {
	writers map[string]*kafka.Writer
}

func NewKafka(cfg config.KafkaConfig) *Kafka {
	writers := make(map[string]*kafka.Writer)

	for name, topic := range cfg.Topics {
		writers[name] = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchSize:              1,
			BatchTimeout:           time.Millisecond * 10,
			AllowAutoTopicCreation: true,
		}
	}

	return &Kafka{writers: writers}
}

func (k *Kafka) Name() string {
	return "kafka"
}

func (k *Kafka) Store(ctx context.Context, r *report.Report) error {
	var errs []error

	if w, ok := k.writers[TopicReports]; ok {
		msg, err := reportMessage(r)
		if err == nil {
			err = w.WriteMessages(ctx, msg)
		}
		errs = append(errs, err)
	}

	if w, ok := k.writers[TopicAlerts]; ok && len(r.Recommendations) > 0 {
		msgs, err := alertMessages(r, time.Now())
		if err == nil {
			err = w.WriteMessages(ctx, msgs...)
		}
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (k *Kafka) Close() error {
	for _, w := range k.writers {
		w.Close()
	}
	return nil
}

func reportMessage(r *report.Report) (kafka.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(r.Page),
		Value: data,
	}, nil
}

func alertMessages(r *report.Report, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(r.Recommendations))

	for _, rec := range r.Recommendations {
		alert := map[string]interface{}{
			"run_id":         r.RunID,
			"type":           "recommendation",
			"page":           r.Page,
			"timestamp":      r.Timestamp,
			"recommendation": rec,
			"fps_avg":        r.Metrics.FPS.Avg,
			"published_at":   now.UnixMilli(),
		}

		data, err := json.Marshal(alert)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(r.Page),
			Value: data,
		})
	}

	return msgs, nil
}
