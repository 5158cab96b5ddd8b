// internal/services/license_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/models"
	"github.com/javajoker/keygen-bridge/internal/utils"
)

const overviewConcurrency = 4

var ErrMachineNotFound = errors.New("machine not found")

// RemoteLicenseClient is the part of the licensing service client the
// lifecycle manager depends on.
type RemoteLicenseClient interface {
	CreateLicense(ctx context.Context, in keygen.CreateLicenseInput) (*keygen.License, json.RawMessage, error)
	SuspendLicense(ctx context.Context, licenseID string) (json.RawMessage, error)
	RevokeLicense(ctx context.Context, licenseID string) (json.RawMessage, error)
	GetLicenseWithMachines(ctx context.Context, licenseID string) (*keygen.LicenseDetails, error)
	ActivateMachine(ctx context.Context, in keygen.ActivateInput) (*keygen.Activation, error)
	DeleteMachine(ctx context.Context, machineID string) error
	CreateDownloadLink(ctx context.Context, in keygen.DownloadLinkInput) (*keygen.DownloadLink, error)
}

// LicenseService issues licenses remotely and keeps the mirror row for each.
// Status changes after creation are written by OrderEventService.
type LicenseService struct {
	remote RemoteLicenseClient
	mirror MirrorStore
	log    *logrus.Entry
}

type CreateLicenseRequest struct {
	OrderID     string                 `json:"orderId" validate:"required"`
	OrderItemID string                 `json:"orderItemId,omitempty"`
	CustomerID  string                 `json:"customerId,omitempty"`
	PolicyID    string                 `json:"policyId,omitempty" validate:"required_without=ProductID"`
	ProductID   string                 `json:"productId,omitempty" validate:"required_without=PolicyID"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
}

// IssuedLicense is the mirror row written for a new license plus the raw
// remote payload.
type IssuedLicense struct {
	Record *models.KeygenLicense `json:"record"`
	Raw    json.RawMessage       `json:"raw"`
}

type DeviceInfo struct {
	Fingerprint string `json:"fingerprint" validate:"required,fingerprint"`
	Platform    string `json:"platform,omitempty"`
	AppVersion  string `json:"appVersion,omitempty"`
	Name        string `json:"name,omitempty"`
}

type ActivateDeviceRequest struct {
	ProductID string     `json:"productId" validate:"required"`
	Device    DeviceInfo `json:"device"`
}

type DeviceActivation struct {
	LicenseID string
	*keygen.Activation
}

type DownloadRequest struct {
	AssetID  string `json:"assetId" validate:"required"`
	Filename string `json:"filename,omitempty"`
}

// CustomerLicense is a mirror row merged with the remote seat view.
type CustomerLicense struct {
	ID          string           `json:"id"`
	Key         string           `json:"key"`
	Status      string           `json:"status"`
	PolicyID    string           `json:"policy_id,omitempty"`
	ProductID   string           `json:"product_id,omitempty"`
	MaxMachines int              `json:"max_machines"`
	Machines    []keygen.Machine `json:"machines"`
}

func NewLicenseService(remote RemoteLicenseClient, mirror MirrorStore) *LicenseService {
	return &LicenseService{
		remote: remote,
		mirror: mirror,
		log:    logrus.WithField("component", "license_service"),
	}
}

// CreateLicense issues a license and records it with status created. Nothing
// is written when the remote call fails.
func (s *LicenseService) CreateLicense(ctx context.Context, req *CreateLicenseRequest) (*IssuedLicense, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	license, raw, err := s.remote.CreateLicense(ctx, keygen.CreateLicenseInput{
		PolicyID:  req.PolicyID,
		ProductID: req.ProductID,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	record := &models.KeygenLicense{
		OrderID:         req.OrderID,
		OrderItemID:     models.StringPtr(req.OrderItemID),
		CustomerID:      models.StringPtr(req.CustomerID),
		KeygenLicenseID: models.StringPtr(license.ID),
		LicenseKey:      models.StringPtr(license.Key),
		Status:          models.LicenseStatusCreated,
		KeygenPolicyID:  models.StringPtr(req.PolicyID),
		KeygenProductID: models.StringPtr(req.ProductID),
		Notes:           models.StringPtr(req.Notes),
	}
	if err := s.mirror.Create(ctx, record); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_id":   req.OrderID,
			"license_id": license.ID,
		}).Error("[keygen] license issued but mirror write failed")
		return nil, err
	}

	return &IssuedLicense{Record: record, Raw: raw}, nil
}

// SuspendLicense suspends remotely only; the caller owns the mirror row.
func (s *LicenseService) SuspendLicense(ctx context.Context, remoteID string) (json.RawMessage, error) {
	return s.remote.SuspendLicense(ctx, remoteID)
}

// RevokeLicense revokes remotely only; the caller owns the mirror row.
func (s *LicenseService) RevokeLicense(ctx context.Context, remoteID string) (json.RawMessage, error) {
	return s.remote.RevokeLicense(ctx, remoteID)
}

func (s *LicenseService) GetLicenseWithMachines(ctx context.Context, remoteID string) (*keygen.LicenseDetails, error) {
	return s.remote.GetLicenseWithMachines(ctx, remoteID)
}

func (s *LicenseService) DeleteMachine(ctx context.Context, machineID string) error {
	return s.remote.DeleteMachine(ctx, machineID)
}

// DeleteCustomerMachine removes a device only when it is attached to one of
// the customer's licenses.
func (s *LicenseService) DeleteCustomerMachine(ctx context.Context, customerID, machineID string) error {
	rows, _, err := s.mirror.ListByCustomer(ctx, MirrorQuery{CustomerID: customerID})
	if err != nil {
		return err
	}

	for _, row := range rows {
		if row.RemoteID() == "" || row.Status == models.LicenseStatusRevoked {
			continue
		}
		details, err := s.remote.GetLicenseWithMachines(ctx, row.RemoteID())
		if err != nil {
			return err
		}
		for _, m := range details.Machines {
			if m.ID == machineID {
				return s.remote.DeleteMachine(ctx, machineID)
			}
		}
	}
	return ErrMachineNotFound
}

func (s *LicenseService) LicensesForOrder(ctx context.Context, orderID string) ([]models.KeygenLicense, error) {
	return s.mirror.FindByOrder(ctx, orderID)
}

func (s *LicenseService) ListCustomerLicenses(ctx context.Context, q MirrorQuery) ([]models.KeygenLicense, int64, error) {
	return s.mirror.ListByCustomer(ctx, q)
}

func (s *LicenseService) GetCustomerLicense(ctx context.Context, customerID, remoteID string) (*models.KeygenLicense, error) {
	return s.mirror.FindForCustomer(ctx, customerID, remoteID)
}

// ActivateDevice registers a device on the customer's license for a product.
func (s *LicenseService) ActivateDevice(ctx context.Context, customerID string, req *ActivateDeviceRequest) (*DeviceActivation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	row, err := s.mirror.FindForCustomerProduct(ctx, customerID, req.ProductID)
	if err != nil {
		return nil, err
	}

	var meta map[string]interface{}
	if req.Device.AppVersion != "" {
		meta = map[string]interface{}{"appVersion": req.Device.AppVersion}
	}

	activation, err := s.remote.ActivateMachine(ctx, keygen.ActivateInput{
		LicenseID:   row.RemoteID(),
		Fingerprint: req.Device.Fingerprint,
		Platform:    req.Device.Platform,
		Name:        req.Device.Name,
		Meta:        meta,
	})
	if err != nil {
		return nil, err
	}

	return &DeviceActivation{LicenseID: row.RemoteID(), Activation: activation}, nil
}

// CreateCustomerDownload issues a download link for a license the customer owns.
func (s *LicenseService) CreateCustomerDownload(ctx context.Context, customerID, remoteID string, req *DownloadRequest) (*keygen.DownloadLink, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.mirror.FindForCustomer(ctx, customerID, remoteID); err != nil {
		return nil, err
	}

	return s.remote.CreateDownloadLink(ctx, keygen.DownloadLinkInput{
		LicenseID: remoteID,
		AssetID:   req.AssetID,
		Filename:  req.Filename,
	})
}

// CustomerOverview lists every license of a customer with its machines. A
// failed remote read falls back to the mirror row without machines.
func (s *LicenseService) CustomerOverview(ctx context.Context, customerID string) ([]CustomerLicense, error) {
	rows, _, err := s.mirror.ListByCustomer(ctx, MirrorQuery{CustomerID: customerID})
	if err != nil {
		return nil, err
	}

	out := make([]CustomerLicense, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)

	for i := range rows {
		i, row := i, rows[i]
		out[i] = CustomerLicense{
			ID:        row.ID.String(),
			Key:       row.Key(),
			Status:    string(row.Status),
			PolicyID:  row.PolicyID(),
			ProductID: row.ProductID(),
			Machines:  []keygen.Machine{},
		}
		if row.RemoteID() == "" {
			continue
		}
		out[i].ID = row.RemoteID()

		g.Go(func() error {
			details, err := s.remote.GetLicenseWithMachines(gctx, row.RemoteID())
			if err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return err
				}
				s.log.WithError(err).WithField("license_id", row.RemoteID()).Warn("[keygen] falling back to mirror data")
				return nil
			}
			if details.Status != "" {
				out[i].Status = details.Status
			}
			out[i].MaxMachines = details.MaxMachines
			out[i].Machines = details.Machines
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
