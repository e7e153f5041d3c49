// Package messaging accepts print requests from a RabbitMQ queue.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiwari-pos/printer/internal/order"
	"github.com/kiwari-pos/printer/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	KindKitchen = "kitchen"
	KindCheck   = "check"
)

// ErrMalformed marks a request that can never succeed.
var ErrMalformed = errors.New("malformed print request")

// Request is one queued print request.
type Request struct {
	Kind  string       `json:"kind"`
	Order *order.Order `json:"order,omitempty"`
	Check *order.Check `json:"check,omitempty"`
}

// Printer is the print service as seen from the queue.
// Satisfied by *service.PrintService.
type Printer interface {
	PrintKitchenOrder(ctx context.Context, o order.Order) (*service.KitchenResult, error)
	PrintCustomerCheck(ctx context.Context, c order.Check) (*service.CheckResult, error)
}

// Handler decodes and executes print requests.
type Handler struct {
	printer Printer
}

// NewHandler creates a Handler.
func NewHandler(printer Printer) *Handler {
	return &Handler{printer: printer}
}

// Handle executes one message body.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch req.Kind {
	case KindKitchen:
		if req.Order == nil {
			return fmt.Errorf("%w: kitchen request without order", ErrMalformed)
		}
		res, err := h.printer.PrintKitchenOrder(ctx, *req.Order)
		if err != nil {
			return err
		}
		slog.Info("queued order printed", "order_id", req.Order.ID, "status", res.Status, "summary", res.Summary)
		return nil

	case KindCheck:
		if req.Check == nil {
			return fmt.Errorf("%w: check request without check", ErrMalformed)
		}
		if _, err := h.printer.PrintCustomerCheck(ctx, *req.Check); err != nil {
			if errors.Is(err, service.ErrEmptyCheck) {
				return fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			return err
		}
		slog.Info("queued check printed", "order_id", req.Check.OrderID)
		return nil

	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformed, req.Kind)
	}
}

// acknowledger is the ack side of a delivery. Satisfied by amqp.Delivery.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// settle runs the handler and acks or nacks. Failed requests are dropped
// rather than requeued; only a request refused during shutdown is put back.
// A print already under way is not cut short by ctx.
func (h *Handler) settle(ctx context.Context, body []byte, d acknowledger) {
	err := h.Handle(ctx, body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			slog.Error("ack print request", "error", ackErr)
		}
		return
	}

	requeue := ctx.Err() != nil && !errors.Is(err, ErrMalformed)
	slog.Error("print request failed", "error", err, "requeue", requeue)
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		slog.Error("nack print request", "error", nackErr)
	}
}

// Consumer reads print requests from one durable queue.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	handler  *Handler
}

// NewConsumer creates a Consumer.
func NewConsumer(url, queue string, prefetch int, handler *Handler) *Consumer {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &Consumer{url: url, queue: queue, prefetch: prefetch, handler: handler}
}

// Run consumes until ctx is done or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	slog.Info("consuming print requests", "queue", c.queue, "prefetch", c.prefetch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("queue %s: delivery channel closed", c.queue)
			}
			c.handler.settle(ctx, d.Body, d)
		}
	}
}
