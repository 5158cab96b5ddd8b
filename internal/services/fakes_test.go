package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/models"
)

type statusUpdate struct {
	ID     uuid.UUID
	Status models.LicenseStatus
}

type fakeMirror struct {
	mu      sync.Mutex
	rows    []models.KeygenLicense
	updates []statusUpdate
	err     error
}

func (f *fakeMirror) Create(_ context.Context, l *models.KeygenLicense) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	f.rows = append(f.rows, *l)
	return nil
}

func (f *fakeMirror) UpdateStatus(_ context.Context, id uuid.UUID, status models.LicenseStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusUpdate{ID: id, Status: status})
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = status
			return nil
		}
	}
	return ErrLicenseNotFound
}

func (f *fakeMirror) filter(match func(models.KeygenLicense) bool) []models.KeygenLicense {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.KeygenLicense
	for _, r := range f.rows {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeMirror) FindByOrder(_ context.Context, orderID string) ([]models.KeygenLicense, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.filter(func(r models.KeygenLicense) bool { return r.OrderID == orderID }), nil
}

func (f *fakeMirror) FindByRemoteID(_ context.Context, remoteID string) ([]models.KeygenLicense, error) {
	return f.filter(func(r models.KeygenLicense) bool { return r.RemoteID() == remoteID }), nil
}

func (f *fakeMirror) ListByCustomer(_ context.Context, q MirrorQuery) ([]models.KeygenLicense, int64, error) {
	rows := f.filter(func(r models.KeygenLicense) bool {
		return r.CustomerID != nil && *r.CustomerID == q.CustomerID
	})
	total := int64(len(rows))
	if q.Limit > 0 {
		if q.Offset >= len(rows) {
			return []models.KeygenLicense{}, total, nil
		}
		end := q.Offset + q.Limit
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[q.Offset:end]
	}
	return rows, total, nil
}

func (f *fakeMirror) FindForCustomer(_ context.Context, customerID, remoteID string) (*models.KeygenLicense, error) {
	rows := f.filter(func(r models.KeygenLicense) bool {
		return r.CustomerID != nil && *r.CustomerID == customerID && r.RemoteID() == remoteID
	})
	if len(rows) == 0 {
		return nil, ErrLicenseNotFound
	}
	return &rows[0], nil
}

func (f *fakeMirror) FindForCustomerProduct(_ context.Context, customerID, productID string) (*models.KeygenLicense, error) {
	rows := f.filter(func(r models.KeygenLicense) bool {
		return r.CustomerID != nil && *r.CustomerID == customerID && r.ProductID() == productID && r.RemoteID() != ""
	})
	if len(rows) == 0 {
		return nil, ErrLicenseNotFound
	}
	return &rows[0], nil
}

type fakeRemote struct {
	mu sync.Mutex

	createErr   error
	actionErr   error
	detailsErr  map[string]error
	activateErr error
	created     []keygen.CreateLicenseInput
	suspended   []string
	revoked     []string
	activations []keygen.ActivateInput
	links       []keygen.DownloadLinkInput
	deleted     []string
}

func (f *fakeRemote) CreateLicense(_ context.Context, in keygen.CreateLicenseInput) (*keygen.License, json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	f.created = append(f.created, in)
	id := "lic-" + string(rune('0'+len(f.created)))
	return &keygen.License{ID: id, Key: "KEY-" + id, Status: "ACTIVE"}, json.RawMessage(`{"data":{"id":"` + id + `"}}`), nil
}

func (f *fakeRemote) SuspendLicense(_ context.Context, id string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	f.suspended = append(f.suspended, id)
	return json.RawMessage(`{}`), nil
}

func (f *fakeRemote) RevokeLicense(_ context.Context, id string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	f.revoked = append(f.revoked, id)
	return json.RawMessage(`{}`), nil
}

func (f *fakeRemote) GetLicenseWithMachines(_ context.Context, id string) (*keygen.LicenseDetails, error) {
	if err := f.detailsErr[id]; err != nil {
		return nil, err
	}
	return &keygen.LicenseDetails{
		ID:          id,
		Status:      "ACTIVE",
		MaxMachines: 3,
		Machines:    []keygen.Machine{{ID: "m-" + id, Fingerprint: "fp"}},
	}, nil
}

func (f *fakeRemote) ActivateMachine(_ context.Context, in keygen.ActivateInput) (*keygen.Activation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activateErr != nil {
		return nil, f.activateErr
	}
	f.activations = append(f.activations, in)
	return &keygen.Activation{MachineID: "machine-1", Seats: keygen.Seats{Max: 3, Used: 1}}, nil
}

func (f *fakeRemote) DeleteMachine(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) CreateDownloadLink(_ context.Context, in keygen.DownloadLinkInput) (*keygen.DownloadLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, in)
	return &keygen.DownloadLink{URL: "https://cdn.example.com/" + in.AssetID, TTLSeconds: 900}, nil
}

type fakeOrders struct {
	orders map[string]*models.Order
}

func (f *fakeOrders) FindWithItems(_ context.Context, id string) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, ErrOrderNotFound
}

type sentEmail struct {
	To, OrderID, Key string
}

type fakeNotifier struct {
	sent []sentEmail
}

func (f *fakeNotifier) SendLicenseIssued(to, orderID, key string) error {
	f.sent = append(f.sent, sentEmail{To: to, OrderID: orderID, Key: key})
	return nil
}

func mirrorRow(orderID, itemID, remoteID string, status models.LicenseStatus) models.KeygenLicense {
	return models.KeygenLicense{
		BaseModel:       models.BaseModel{ID: uuid.New()},
		OrderID:         orderID,
		OrderItemID:     models.StringPtr(itemID),
		KeygenLicenseID: models.StringPtr(remoteID),
		Status:          status,
	}
}
