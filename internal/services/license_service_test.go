package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/keygen-bridge/internal/keygen"
	"github.com/javajoker/keygen-bridge/internal/models"
)

func TestCreateLicenseWritesCreatedMirrorRow(t *testing.T) {
	remote := &fakeRemote{}
	mirror := &fakeMirror{}
	svc := NewLicenseService(remote, mirror)

	issued, err := svc.CreateLicense(context.Background(), &CreateLicenseRequest{
		OrderID:     "order_1",
		OrderItemID: "item_1",
		CustomerID:  "cus_1",
		PolicyID:    "pol_1",
	})
	require.NoError(t, err)

	require.Len(t, mirror.rows, 1)
	row := mirror.rows[0]
	assert.Equal(t, models.LicenseStatusCreated, row.Status)
	assert.Equal(t, "lic-1", row.RemoteID())
	assert.Equal(t, "KEY-lic-1", row.Key())
	assert.Equal(t, "pol_1", row.PolicyID())
	assert.Nil(t, row.KeygenProductID)
	assert.Equal(t, issued.Record.ID, row.ID)
	assert.JSONEq(t, `{"data":{"id":"lic-1"}}`, string(issued.Raw))
}

func TestCreateLicenseRemoteFailureWritesNothing(t *testing.T) {
	remote := &fakeRemote{createErr: errors.New("[keygen] create license request failed: dial tcp: connection refused")}
	mirror := &fakeMirror{}
	svc := NewLicenseService(remote, mirror)

	_, err := svc.CreateLicense(context.Background(), &CreateLicenseRequest{OrderID: "order_1", ProductID: "prod_1"})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "[keygen] create license request failed:")
	assert.Empty(t, mirror.rows)
}

func TestCreateLicenseRequiresPolicyOrProduct(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewLicenseService(remote, &fakeMirror{})

	_, err := svc.CreateLicense(context.Background(), &CreateLicenseRequest{OrderID: "order_1"})
	require.Error(t, err)
	assert.Empty(t, remote.created)
}

func TestSuspendAndRevokeDoNotTouchMirror(t *testing.T) {
	remote := &fakeRemote{}
	mirror := &fakeMirror{rows: []models.KeygenLicense{mirrorRow("order_1", "item_1", "lic-1", models.LicenseStatusCreated)}}
	svc := NewLicenseService(remote, mirror)

	_, err := svc.SuspendLicense(context.Background(), "lic-1")
	require.NoError(t, err)
	_, err = svc.RevokeLicense(context.Background(), "lic-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"lic-1"}, remote.suspended)
	assert.Equal(t, []string{"lic-1"}, remote.revoked)
	assert.Empty(t, mirror.updates)
	assert.Equal(t, models.LicenseStatusCreated, mirror.rows[0].Status)
}

func TestActivateDeviceUsesCustomerLicense(t *testing.T) {
	remote := &fakeRemote{}
	row := mirrorRow("order_1", "item_1", "lic-9", models.LicenseStatusCreated)
	row.CustomerID = models.StringPtr("cus_1")
	row.KeygenProductID = models.StringPtr("prod_1")
	svc := NewLicenseService(remote, &fakeMirror{rows: []models.KeygenLicense{row}})

	result, err := svc.ActivateDevice(context.Background(), "cus_1", &ActivateDeviceRequest{
		ProductID: "prod_1",
		Device:    DeviceInfo{Fingerprint: "fp-1", Platform: "macos", AppVersion: "2.1.0"},
	})
	require.NoError(t, err)

	assert.Equal(t, "lic-9", result.LicenseID)
	assert.Equal(t, "machine-1", result.MachineID)
	require.Len(t, remote.activations, 1)
	assert.Equal(t, keygen.ActivateInput{
		LicenseID:   "lic-9",
		Fingerprint: "fp-1",
		Platform:    "macos",
		Meta:        map[string]interface{}{"appVersion": "2.1.0"},
	}, remote.activations[0])
}

func TestActivateDeviceWithoutLicense(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewLicenseService(remote, &fakeMirror{})

	_, err := svc.ActivateDevice(context.Background(), "cus_1", &ActivateDeviceRequest{
		ProductID: "prod_1",
		Device:    DeviceInfo{Fingerprint: "fp-1"},
	})
	assert.ErrorIs(t, err, ErrLicenseNotFound)
	assert.Empty(t, remote.activations)
}

func TestCreateCustomerDownloadChecksOwnership(t *testing.T) {
	remote := &fakeRemote{}
	row := mirrorRow("order_1", "item_1", "lic-1", models.LicenseStatusCreated)
	row.CustomerID = models.StringPtr("cus_1")
	svc := NewLicenseService(remote, &fakeMirror{rows: []models.KeygenLicense{row}})

	_, err := svc.CreateCustomerDownload(context.Background(), "cus_2", "lic-1", &DownloadRequest{AssetID: "asset"})
	assert.ErrorIs(t, err, ErrLicenseNotFound)

	link, err := svc.CreateCustomerDownload(context.Background(), "cus_1", "lic-1", &DownloadRequest{AssetID: "asset", Filename: "app.dmg"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/asset", link.URL)
	assert.Equal(t, []keygen.DownloadLinkInput{{LicenseID: "lic-1", AssetID: "asset", Filename: "app.dmg"}}, remote.links)
}

func TestCustomerOverviewFallsBackToMirror(t *testing.T) {
	rows := []models.KeygenLicense{
		mirrorRow("order_1", "item_1", "lic-ok", models.LicenseStatusCreated),
		mirrorRow("order_1", "item_2", "lic-down", models.LicenseStatusSuspended),
		mirrorRow("order_1", "item_3", "", models.LicenseStatusCreated),
	}
	for i := range rows {
		rows[i].CustomerID = models.StringPtr("cus_1")
	}
	remote := &fakeRemote{detailsErr: map[string]error{"lic-down": errors.New("503")}}
	svc := NewLicenseService(remote, &fakeMirror{rows: rows})

	overview, err := svc.CustomerOverview(context.Background(), "cus_1")
	require.NoError(t, err)
	require.Len(t, overview, 3)

	assert.Equal(t, "lic-ok", overview[0].ID)
	assert.Equal(t, "ACTIVE", overview[0].Status)
	assert.Equal(t, 3, overview[0].MaxMachines)
	assert.Len(t, overview[0].Machines, 1)

	assert.Equal(t, "lic-down", overview[1].ID)
	assert.Equal(t, "suspended", overview[1].Status)
	assert.Equal(t, 0, overview[1].MaxMachines)
	assert.Empty(t, overview[1].Machines)

	assert.Equal(t, rows[2].ID.String(), overview[2].ID)
	assert.NotNil(t, overview[2].Machines)
}

func TestDeleteCustomerMachineChecksOwnership(t *testing.T) {
	remote := &fakeRemote{}
	row := mirrorRow("order_1", "item_1", "lic-9", models.LicenseStatusCreated)
	row.CustomerID = models.StringPtr("cus_1")
	svc := NewLicenseService(remote, &fakeMirror{rows: []models.KeygenLicense{row}})

	err := svc.DeleteCustomerMachine(context.Background(), "cus_1", "m-other")
	assert.ErrorIs(t, err, ErrMachineNotFound)

	err = svc.DeleteCustomerMachine(context.Background(), "cus_2", "m-lic-9")
	assert.ErrorIs(t, err, ErrMachineNotFound)
	assert.Empty(t, remote.deleted)

	require.NoError(t, svc.DeleteCustomerMachine(context.Background(), "cus_1", "m-lic-9"))
	assert.Equal(t, []string{"m-lic-9"}, remote.deleted)
}
