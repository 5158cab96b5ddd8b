package handlers

import (
	"context"
	"encoding/json"

	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/models"
	"github.com/javajoker/keygen-bridge/internal/services"
)

type fakeLicenses struct {
	rows        []models.KeygenLicense
	total       int64
	lastQuery   services.MirrorQuery
	activateErr error
	downloadErr error
	deleteErr   error
	detailsErr  error
	created     []services.CreateLicenseRequest
	deleted     []string
}

func (f *fakeLicenses) CreateLicense(_ context.Context, req *services.CreateLicenseRequest) (*services.IssuedLicense, error) {
	f.created = append(f.created, *req)
	return &services.IssuedLicense{
		Record: &models.KeygenLicense{OrderID: req.OrderID, Status: models.LicenseStatusCreated},
		Raw:    json.RawMessage(`{"data":{"id":"lic_1"}}`),
	}, nil
}

func (f *fakeLicenses) LicensesForOrder(_ context.Context, orderID string) ([]models.KeygenLicense, error) {
	var out []models.KeygenLicense
	for _, r := range f.rows {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLicenses) CustomerOverview(_ context.Context, customerID string) ([]services.CustomerLicense, error) {
	return []services.CustomerLicense{{ID: "lic_1", Status: "ACTIVE", MaxMachines: 2, Machines: []keygen.Machine{}}}, nil
}

func (f *fakeLicenses) DeleteMachine(_ context.Context, machineID string) error {
	f.deleted = append(f.deleted, machineID)
	return f.deleteErr
}

func (f *fakeLicenses) ListCustomerLicenses(_ context.Context, q services.MirrorQuery) ([]models.KeygenLicense, int64, error) {
	f.lastQuery = q
	return f.rows, f.total, nil
}

func (f *fakeLicenses) GetCustomerLicense(_ context.Context, customerID, remoteID string) (*models.KeygenLicense, error) {
	for _, r := range f.rows {
		if r.CustomerID != nil && *r.CustomerID == customerID && r.RemoteID() == remoteID {
			return &r, nil
		}
	}
	return nil, services.ErrLicenseNotFound
}

func (f *fakeLicenses) GetLicenseWithMachines(_ context.Context, remoteID string) (*keygen.LicenseDetails, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return &keygen.LicenseDetails{ID: remoteID, MaxMachines: 2, Machines: []keygen.Machine{{ID: "m_1"}}}, nil
}

func (f *fakeLicenses) ActivateDevice(_ context.Context, customerID string, req *services.ActivateDeviceRequest) (*services.DeviceActivation, error) {
	if f.activateErr != nil {
		return nil, f.activateErr
	}
	return &services.DeviceActivation{
		LicenseID:  "lic_1",
		Activation: &keygen.Activation{MachineID: "m_2", Seats: keygen.Seats{Max: 2, Used: 2}},
	}, nil
}

func (f *fakeLicenses) CreateCustomerDownload(_ context.Context, customerID, remoteID string, req *services.DownloadRequest) (*keygen.DownloadLink, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return &keygen.DownloadLink{URL: "https://cdn.example.com/" + req.AssetID, TTLSeconds: 900}, nil
}

func (f *fakeLicenses) DeleteCustomerMachine(_ context.Context, customerID, machineID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, machineID)
	return nil
}

type fakeCatalog struct {
	productFilter string
	err           error
	created       []keygen.PolicyInput
	clones        []keygen.CloneInput
}

func (f *fakeCatalog) ListPolicies(_ context.Context, productID string) ([]keygen.NamedResource, error) {
	f.productFilter = productID
	return []keygen.NamedResource{{ID: "pol_1", Name: "Pro"}}, f.err
}

func (f *fakeCatalog) ListEntitlements(context.Context) ([]keygen.NamedResource, error) {
	return []keygen.NamedResource{{ID: "ent_1", Code: "EXPORT"}}, f.err
}

func (f *fakeCatalog) CreatePolicy(_ context.Context, in keygen.PolicyInput) (*keygen.NamedResource, error) {
	f.created = append(f.created, in)
	return &keygen.NamedResource{ID: "pol_new", Name: in.Name}, f.err
}

func (f *fakeCatalog) ClonePolicy(_ context.Context, in keygen.CloneInput) (*keygen.NamedResource, error) {
	f.clones = append(f.clones, in)
	return &keygen.NamedResource{ID: "pol_clone"}, f.err
}

func (f *fakeCatalog) LookupResource(_ context.Context, kind, id string) (*keygen.NamedResource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &keygen.NamedResource{ID: id, Type: kind, Name: id}, nil
}

type dispatched struct {
	Event, OrderID string
}

type fakeEvents struct {
	handled []dispatched
	remote  []services.RemoteEvent
	err     error
}

func (f *fakeEvents) Handle(_ context.Context, event, orderID string) error {
	if f.err != nil {
		return f.err
	}
	f.handled = append(f.handled, dispatched{event, orderID})
	return nil
}

func (f *fakeEvents) HandleRemoteEvent(_ context.Context, event *services.RemoteEvent) (int, error) {
	f.remote = append(f.remote, *event)
	return 1, f.err
}

type fakePayments struct {
	err       error
	signature string
}

func (f *fakePayments) HandleWebhook(_ context.Context, payload []byte, signature string) (*services.PaymentEventResult, error) {
	f.signature = signature
	if f.err != nil {
		return nil, f.err
	}
	return &services.PaymentEventResult{StripeEventID: "evt_1", OrderEvent: services.EventOrderPlaced, OrderID: "order_1"}, nil
}
