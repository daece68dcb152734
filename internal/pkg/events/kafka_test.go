package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"
)

func TestKafkaPublisherSendsJSONWithKey(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewSaramaConfig("test"))
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "studentdesk.student.created" {
			t.Errorf("unexpected topic %q", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "s1" {
			t.Errorf("unexpected key %q", key)
		}
		raw, _ := msg.Value.Encode()
		var decoded map[string]interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
		if decoded["type"] != "student.created" {
			t.Errorf("unexpected payload %s", raw)
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "studentdesk", zerolog.Nop())
	if err := pub.Publish(context.Background(), New(StudentCreated, "s1", map[string]string{"id": "s1"})); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaPublisherReportsFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewSaramaConfig("test"))
	brokerDown := errors.New("broker down")
	producer.ExpectSendMessageAndFail(brokerDown)

	pub := NewKafkaPublisherWithProducer(producer, "", zerolog.Nop())
	err := pub.Publish(context.Background(), New(UserDeleted, "u1", nil))
	if !errors.Is(err, brokerDown) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if got := pub.Topic(UserDeleted); got != "user.deleted" {
		t.Fatalf("unexpected topic %q", got)
	}
	_ = pub.Close()
}
