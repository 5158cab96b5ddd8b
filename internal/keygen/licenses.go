// internal/keygen/licenses.go
package keygen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const machinePageSize = 100

// CreateLicenseInput carries the optional policy and product relationships.
type CreateLicenseInput struct {
	PolicyID  string
	ProductID string
	Metadata  map[string]interface{}
}

// LicenseDetails merges a license with its machines.
type LicenseDetails struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Status      string    `json:"status"`
	MaxMachines int       `json:"maxMachines"`
	Machines    []Machine `json:"machines"`
}

// CreateLicense issues a license remotely and returns its canonical view plus
// the raw payload.
func (c *Client) CreateLicense(ctx context.Context, in CreateLicenseInput) (*License, json.RawMessage, error) {
	body := licenseCreateRequest{
		Data: licenseCreateData{
			Type:       "licenses",
			Attributes: licenseCreateAttributes{Metadata: in.Metadata},
		},
	}
	if in.PolicyID != "" {
		body.Data.Relationships.Policy = &relationship{Data: resourceIdentifier{Type: "policies", ID: in.PolicyID}}
	}
	if in.ProductID != "" {
		body.Data.Relationships.Product = &relationship{Data: resourceIdentifier{Type: "products", ID: in.ProductID}}
	}

	resp, err := c.call(ctx, "create license", Request{Method: http.MethodPost, Path: "/licenses", Body: body}, nil)
	if err != nil {
		return nil, nil, err
	}

	license, err := normalizeLicense(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if license.ID == "" {
		return nil, nil, fmt.Errorf("%w: created license has no id", ErrMalformedResponse)
	}
	return license, rawJSON(resp.Body), nil
}

// SuspendLicense runs the remote suspend action. The local mirror is left
// untouched.
func (c *Client) SuspendLicense(ctx context.Context, licenseID string) (json.RawMessage, error) {
	resp, err := c.call(ctx, "suspend license", Request{
		Method: http.MethodPost,
		Path:   "/licenses/" + url.PathEscape(licenseID) + "/actions/suspend",
	}, nil)
	if err != nil {
		return nil, err
	}
	return rawJSON(resp.Body), nil
}

// RevokeLicense runs the remote revoke action. The local mirror is left
// untouched.
func (c *Client) RevokeLicense(ctx context.Context, licenseID string) (json.RawMessage, error) {
	resp, err := c.call(ctx, "revoke license", Request{
		Method: http.MethodDelete,
		Path:   "/licenses/" + url.PathEscape(licenseID) + "/actions/revoke",
	}, nil)
	if err != nil {
		return nil, err
	}
	return rawJSON(resp.Body), nil
}

func (c *Client) GetLicense(ctx context.Context, licenseID string) (*License, error) {
	resp, err := c.call(ctx, "get license", Request{
		Method: http.MethodGet,
		Path:   "/licenses/" + url.PathEscape(licenseID),
	}, nil)
	if err != nil {
		return nil, err
	}
	return normalizeLicense(resp.Body)
}

// ListMachines returns every machine registered on the license, following
// pages until a short page comes back.
func (c *Client) ListMachines(ctx context.Context, licenseID string) ([]Machine, error) {
	var machines []Machine
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("license", licenseID)
		query.Set("page[size]", strconv.Itoa(machinePageSize))
		query.Set("page[number]", strconv.Itoa(page))

		resp, err := c.call(ctx, "list machines", Request{Method: http.MethodGet, Path: "/machines", Query: query}, nil)
		if err != nil {
			return nil, err
		}

		batch, err := normalizeMachines(resp.Body)
		if err != nil {
			return nil, err
		}
		machines = append(machines, batch...)

		if len(batch) < machinePageSize {
			break
		}
	}
	if machines == nil {
		machines = []Machine{}
	}
	return machines, nil
}

// GetLicenseWithMachines reads the license and then its machines.
func (c *Client) GetLicenseWithMachines(ctx context.Context, licenseID string) (*LicenseDetails, error) {
	license, err := c.GetLicense(ctx, licenseID)
	if err != nil {
		return nil, err
	}

	machines, err := c.ListMachines(ctx, licenseID)
	if err != nil {
		return nil, err
	}

	return &LicenseDetails{
		ID:          license.ID,
		Key:         license.Key,
		Status:      license.Status,
		MaxMachines: license.MaxMachines,
		Machines:    machines,
	}, nil
}
