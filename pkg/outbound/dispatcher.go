package outbound

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/metrics"
)

// Dispatcher wraps the transport with the delivery policy: an interactive
// send that fails is always retried as plain text with the same body, so
// the user receives some reply rather than silent loss. If the text
// fallback also fails the reply is considered lost and only logged; there
// is no retry queue.
type Dispatcher struct {
	transport Transport
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

func NewDispatcher(transport Transport, logger *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		logger:    logger,
		metrics:   m,
	}
}

func (d *Dispatcher) SendText(ctx context.Context, sessionID, recipient, text string) bool {
	err := d.transport.Send(ctx, Message{
		Recipient: recipient,
		SessionID: sessionID,
		Kind:      KindText,
		Body:      text,
	})
	if err != nil {
		d.metrics.DeliveryFailures.Inc()
		d.logger.WithError(err).WithField("recipient", recipient).Error("Text send failed, reply lost")
		return false
	}
	d.metrics.RepliesSent.WithLabelValues(KindText).Inc()
	return true
}

func (d *Dispatcher) SendInteractive(ctx context.Context, sessionID, recipient, text string, options []Option) bool {
	err := d.transport.Send(ctx, Message{
		Recipient: recipient,
		SessionID: sessionID,
		Kind:      KindInteractive,
		Body:      text,
		Options:   options,
	})
	if err == nil {
		d.metrics.RepliesSent.WithLabelValues(KindInteractive).Inc()
		return true
	}

	d.metrics.InteractiveFallbacks.Inc()
	d.logger.WithError(err).WithField("recipient", recipient).Warn("Interactive send failed, falling back to text")
	return d.SendText(ctx, sessionID, recipient, text)
}
