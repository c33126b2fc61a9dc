package services

import (
	"fmt"

	"honeymart/internal/models"
	"honeymart/internal/utils"
	"honeymart/pkg/logger"
	"honeymart/pkg/mailer"
)

type OrderEvent string

const (
	EventOrderPlaced    OrderEvent = "placed"
	EventOrderShipped   OrderEvent = "shipped"
	EventOrderDelivered OrderEvent = "delivered"
	EventOrderCancelled OrderEvent = "cancelled"
	EventOrderRefunded  OrderEvent = "refunded"
	EventReturnApproved OrderEvent = "return_approved"
	EventReturnRejected OrderEvent = "return_rejected"
)

// NotificationService sends transactional order mail. Every send is
// fire-and-forget: a failed notification is logged and never propagates
// into the transaction that triggered it.
type NotificationService interface {
	NotifyOrderEvent(user *models.User, order *models.Order, event OrderEvent)
}

type notificationService struct {
	mailer  mailer.Mailer
	appName string
	logger  *logger.Logger
}

func NewNotificationService(m mailer.Mailer, appName string, log *logger.Logger) NotificationService {
	return &notificationService{
		mailer:  m,
		appName: appName,
		logger:  log,
	}
}

func (s *notificationService) NotifyOrderEvent(user *models.User, order *models.Order, event OrderEvent) {
	if user == nil || user.Email == "" {
		return
	}

	subject, body := s.compose(user, order, event)

	go func() {
		if err := s.mailer.Send(user.Email, subject, body); err != nil {
			s.logger.WithError(err).
				WithOrderID(order.ID).
				WithField("event", string(event)).
				Warn("order notification failed")
		}
	}()
}

func (s *notificationService) compose(user *models.User, order *models.Order, event OrderEvent) (string, string) {
	orderRef := order.ID.Hex()
	name := user.FirstName
	if name == "" {
		name = "there"
	}

	var subject, headline string
	switch event {
	case EventOrderPlaced:
		subject = fmt.Sprintf("%s: order %s confirmed", s.appName, orderRef)
		headline = "Thanks for your order! We have received it and will start packing shortly."
	case EventOrderShipped:
		subject = fmt.Sprintf("%s: order %s shipped", s.appName, orderRef)
		awb := ""
		if order.Delivery != nil {
			awb = order.Delivery.AWBNumber
		}
		headline = fmt.Sprintf("Your order is on its way. Track it with AWB %s.", awb)
	case EventOrderDelivered:
		subject = fmt.Sprintf("%s: order %s delivered", s.appName, orderRef)
		headline = "Your order has been delivered. Enjoy!"
	case EventOrderCancelled:
		subject = fmt.Sprintf("%s: order %s cancelled", s.appName, orderRef)
		headline = "Your order has been cancelled."
	case EventOrderRefunded:
		subject = fmt.Sprintf("%s: refund issued for order %s", s.appName, orderRef)
		headline = fmt.Sprintf("A refund of %s has been issued to your payment method.", utils.FormatCurrency(order.TotalAmount, utils.DefaultCurrency))
	case EventReturnApproved:
		subject = fmt.Sprintf("%s: return approved for order %s", s.appName, orderRef)
		headline = "Your return request has been approved."
	case EventReturnRejected:
		subject = fmt.Sprintf("%s: return update for order %s", s.appName, orderRef)
		headline = "Your return request could not be approved."
	default:
		subject = fmt.Sprintf("%s: update on order %s", s.appName, orderRef)
		headline = "There is an update on your order."
	}

	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>%s</p><p>Order total: %s</p><p>Regards,<br>%s</p>",
		name, headline, utils.FormatCurrency(order.TotalAmount, utils.DefaultCurrency), s.appName,
	)

	return subject, body
}
