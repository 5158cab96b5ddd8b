// internal/services/order_events.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/keygen-bridge/internal/config"
	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/models"
)

const (
	EventOrderPlaced   = "order.placed"
	EventOrderCanceled = "order.canceled"
	EventOrderRefunded = "order.refunded"
)

var ErrUnknownEvent = errors.New("unknown order event")

// LicenseNotifier tells a customer about a newly issued license.
type LicenseNotifier interface {
	SendLicenseIssued(to, orderID, licenseKey string) error
}

// OrderEventService turns order lifecycle events into license operations. It
// is the only writer of mirror status after creation.
type OrderEventService struct {
	licenses *LicenseService
	orders   OrderStore
	mirror   MirrorStore
	notifier LicenseNotifier
	options  config.PluginOptions
	log      *logrus.Entry
}

func NewOrderEventService(licenses *LicenseService, orders OrderStore, mirror MirrorStore, notifier LicenseNotifier, options config.PluginOptions) *OrderEventService {
	if options.PolicyMetadataKey == "" {
		options.PolicyMetadataKey = "keygen_policy"
	}
	if options.ProductMetadataKey == "" {
		options.ProductMetadataKey = "keygen_product"
	}
	return &OrderEventService{
		licenses: licenses,
		orders:   orders,
		mirror:   mirror,
		notifier: notifier,
		options:  options,
		log:      logrus.WithField("component", "order_events"),
	}
}

// Handle dispatches an event by name.
func (s *OrderEventService) Handle(ctx context.Context, event, orderID string) error {
	switch event {
	case EventOrderPlaced:
		return s.OrderPlaced(ctx, orderID)
	case EventOrderCanceled:
		return s.OrderCanceled(ctx, orderID)
	case EventOrderRefunded:
		return s.OrderRefunded(ctx, orderID)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
}

// OrderPlaced issues one license per item that maps to a policy or product.
// Items that already have a mirror row are skipped so a redelivered event
// does not issue twice.
func (s *OrderEventService) OrderPlaced(ctx context.Context, orderID string) error {
	order, err := s.orders.FindWithItems(ctx, orderID)
	if err != nil {
		return s.fail(EventOrderPlaced, orderID, err)
	}

	existing, err := s.mirror.FindByOrder(ctx, order.ID)
	if err != nil {
		return s.fail(EventOrderPlaced, orderID, err)
	}
	issued := make(map[string]bool, len(existing))
	for _, row := range existing {
		issued[row.ItemID()] = true
	}

	customerID := ""
	if order.CustomerID != nil {
		customerID = *order.CustomerID
	}

	for _, item := range order.Items {
		policyID, productID := s.resolveTarget(item)
		if policyID == "" && productID == "" {
			continue
		}
		if issued[item.ID] {
			s.log.WithFields(logrus.Fields{"order_id": order.ID, "item_id": item.ID}).Info("[keygen] license already issued, skipping")
			continue
		}

		metadata := map[string]interface{}{
			"orderId":     order.ID,
			"orderItemId": item.ID,
		}
		if item.VariantID != "" {
			metadata["variantId"] = item.VariantID
		}

		result, err := s.licenses.CreateLicense(ctx, &CreateLicenseRequest{
			OrderID:     order.ID,
			OrderItemID: item.ID,
			CustomerID:  customerID,
			PolicyID:    policyID,
			ProductID:   productID,
			Metadata:    metadata,
		})
		if err != nil {
			return s.fail(EventOrderPlaced, orderID, err)
		}

		s.log.Infof("[keygen] license created for order %s / item %s: %s", order.ID, item.ID, result.Record.Key())

		if order.Email != "" && s.notifier != nil {
			if err := s.notifier.SendLicenseIssued(order.Email, order.ID, result.Record.Key()); err != nil {
				s.log.WithError(err).WithField("order_id", order.ID).Warn("[keygen] license email not sent")
			}
		}
	}

	return nil
}

// resolveTarget picks the policy and product for an item: item metadata
// first, then the mapping file, then the configured defaults.
func (s *OrderEventService) resolveTarget(item models.OrderItem) (policyID, productID string) {
	mapped := s.options.Mapping.Lookup(item.VariantID, item.ProductID)
	policyID = firstNonBlank(item.Metadata.String(s.options.PolicyMetadataKey), mapped.Policy, s.options.DefaultPolicyID)
	productID = firstNonBlank(item.Metadata.String(s.options.ProductMetadataKey), mapped.Product, s.options.DefaultProductID)
	return policyID, productID
}

// OrderCanceled suspends every license of the order that can still move to
// suspended.
func (s *OrderEventService) OrderCanceled(ctx context.Context, orderID string) error {
	return s.transition(ctx, EventOrderCanceled, orderID, models.LicenseStatusSuspended, s.licenses.SuspendLicense)
}

// OrderRefunded revokes every license of the order that is not revoked yet.
func (s *OrderEventService) OrderRefunded(ctx context.Context, orderID string) error {
	return s.transition(ctx, EventOrderRefunded, orderID, models.LicenseStatusRevoked, s.licenses.RevokeLicense)
}

type remoteAction func(ctx context.Context, remoteID string) (json.RawMessage, error)

func (s *OrderEventService) transition(ctx context.Context, event, orderID string, next models.LicenseStatus, action remoteAction) error {
	rows, err := s.mirror.FindByOrder(ctx, orderID)
	if err != nil {
		return s.fail(event, orderID, err)
	}

	for _, row := range rows {
		if row.RemoteID() == "" || !row.Status.CanTransitionTo(next) {
			continue
		}

		if _, err := action(ctx, row.RemoteID()); err != nil {
			return s.fail(event, orderID, err)
		}
		if err := s.mirror.UpdateStatus(ctx, row.ID, next); err != nil {
			return s.fail(event, orderID, err)
		}

		s.log.Infof("[keygen] license %s for order %s / item %s: %s", next, orderID, row.ItemID(), row.RemoteID())
	}
	return nil
}

// ApplyRemoteStatus records a status change reported by the licensing
// service for every mirror row of that license.
func (s *OrderEventService) ApplyRemoteStatus(ctx context.Context, remoteID string, next models.LicenseStatus) (int, error) {
	if !next.Valid() {
		return 0, fmt.Errorf("invalid license status %q", next)
	}

	rows, err := s.mirror.FindByRemoteID(ctx, remoteID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range rows {
		if !row.Status.CanTransitionTo(next) {
			continue
		}
		if err := s.mirror.UpdateStatus(ctx, row.ID, next); err != nil {
			return updated, err
		}
		updated++
	}

	if updated > 0 {
		s.log.WithFields(logrus.Fields{"license_id": remoteID, "status": next}).Info("[keygen] mirror updated from remote event")
	}
	return updated, nil
}

func (s *OrderEventService) fail(event, orderID string, err error) error {
	if seats, ok := keygen.AsSeatsExhausted(err); ok {
		s.log.WithField("seats", seats.Seats).Errorf("[keygen] seats exhausted for order %s", orderID)
	} else if keygen.IsAuthError(err) {
		s.log.Errorf("[keygen] auth error on %s: %s", event, err)
	} else {
		s.log.Errorf("[keygen] failed on %s: %s", event, err)
	}
	return err
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
