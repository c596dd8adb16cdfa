package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/emrgen/lexicon/internal/model"
	"github.com/sirupsen/logrus"
)

var _ ContributionQueue = (*KafkaContributionQueue)(nil)

type KafkaContributionQueue struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaContributionQueue(brokers, topic string) (*KafkaContributionQueue, error) {
	if topic == "" {
		topic = DefaultContributionTopic
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("publishing contributions to kafka topic %s", topic)

	return &KafkaContributionQueue{producer: producer, topic: topic}, nil
}

func (k *KafkaContributionQueue) Publish(ctx context.Context, c *model.Contribution) error {
	msg, err := newMessage(k.topic, c)
	if err != nil {
		return err
	}

	delivery := make(chan kafka.Event, 1)
	if err = k.producer.Produce(msg, delivery); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected kafka event %v", ev)
		}
		return m.TopicPartition.Error
	}
}

func (k *KafkaContributionQueue) Close() error {
	if left := k.producer.Flush(5000); left > 0 {
		logrus.Warnf("kafka: %d contribution events not delivered", left)
	}
	k.producer.Close()
	return nil
}

func newMessage(topic string, c *model.Contribution) (*kafka.Message, error) {
	event := NewEvent(c)
	value, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Key()),
		Value:          value,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
		},
	}, nil
}
