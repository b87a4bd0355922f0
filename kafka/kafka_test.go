package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
)

func TestPublisherSendsEventsWithHeaders(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	event := domain.NewEvent(domain.EventOrderCreated, "order-1", at, map[string]string{"order_id": "order-1"})

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicKitchenEvents {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "order-1" {
			return errors.New("wrong key " + string(key))
		}
		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[string(h.Key)] = string(h.Value)
		}
		if headers[HeaderEventType] != domain.EventOrderCreated || headers[HeaderEventID] != event.ID {
			return errors.New("missing event headers")
		}
		body, _ := msg.Value.Encode()
		var decoded domain.Event
		if err := json.Unmarshal(body, &decoded); err != nil {
			return err
		}
		if decoded.ID != event.ID || decoded.Type != event.Type {
			return errors.New("body does not round trip")
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewPublisherWithProducer(producer, TopicKitchenEvents)
	if err := publisher.Publish(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if err := publisher.Publish(context.Background(), event); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Errorf("error = %v, want out of brokers", err)
	}
	if err := publisher.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

type fakePlanner struct {
	calls []command.PlanMaterialsCommand
	err   error
}

func (p *fakePlanner) Handle(_ context.Context, cmd command.PlanMaterialsCommand) (*command.PlanResult, error) {
	p.calls = append(p.calls, cmd)
	if p.err != nil {
		return nil, p.err
	}
	result := &command.PlanResult{}
	if cmd.TargetDate != nil {
		result.TargetDate = *cmd.TargetDate
	}
	return result, nil
}

func triggerMessage(t *testing.T, eventType string, event PlanningTriggerEvent) *sarama.ConsumerMessage {
	t.Helper()
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	msg := &sarama.ConsumerMessage{Topic: TopicPlanningTrigger, Value: body}
	if eventType != "" {
		msg.Headers = []*sarama.RecordHeader{
			{Key: []byte(HeaderEventType), Value: []byte(eventType)},
			{Key: []byte(HeaderEventID), Value: []byte("evt-1")},
		}
	}
	return msg
}

func TestConsumerRunsPlanner(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	planner := &fakePlanner{}
	consumer := newConsumer("kitchen-planner", []string{TopicPlanningTrigger})
	consumer.RegisterHandler(EventTypePlanningRequested, PlanningTriggerHandler(planner, loc))
	ctx := context.Background()

	err := consumer.handleMessage(ctx, triggerMessage(t, EventTypePlanningRequested, PlanningTriggerEvent{TargetDate: "2025-03-04"}))
	if err != nil {
		t.Fatal(err)
	}
	if len(planner.calls) != 1 {
		t.Fatalf("planner called %d times", len(planner.calls))
	}
	got := planner.calls[0]
	want := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	if got.Trigger != command.TriggerKafka || got.TargetDate == nil || !got.TargetDate.Equal(want) {
		t.Errorf("unexpected command %+v", got)
	}

	if err := consumer.handleMessage(ctx, triggerMessage(t, EventTypePlanningRequested, PlanningTriggerEvent{})); err != nil {
		t.Fatal(err)
	}
	if planner.calls[1].TargetDate != nil {
		t.Errorf("empty target date should plan for tomorrow: %+v", planner.calls[1])
	}
}

func TestConsumerRejects(t *testing.T) {
	planner := &fakePlanner{}
	consumer := newConsumer("kitchen-planner", []string{TopicPlanningTrigger})
	consumer.RegisterHandler(EventTypePlanningRequested, PlanningTriggerHandler(planner, time.UTC))
	ctx := context.Background()

	tests := []struct {
		name string
		msg  *sarama.ConsumerMessage
	}{
		{"no event type", triggerMessage(t, "", PlanningTriggerEvent{})},
		{"unregistered type", triggerMessage(t, "order.created", PlanningTriggerEvent{})},
		{"bad date", triggerMessage(t, EventTypePlanningRequested, PlanningTriggerEvent{TargetDate: "tomorrow"})},
		{"bad body", &sarama.ConsumerMessage{
			Value:   []byte("{"),
			Headers: []*sarama.RecordHeader{{Key: []byte(HeaderEventType), Value: []byte(EventTypePlanningRequested)}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := consumer.handleMessage(ctx, tt.msg); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if len(planner.calls) != 0 {
		t.Errorf("planner ran on rejected messages: %+v", planner.calls)
	}

	planner.err = domain.BusinessRule(domain.CodeNotFound, "no suppliers")
	err := consumer.handleMessage(ctx, triggerMessage(t, EventTypePlanningRequested, PlanningTriggerEvent{}))
	if !errors.Is(err, domain.ErrBusinessRule) {
		t.Errorf("planner error not surfaced: %v", err)
	}
}
