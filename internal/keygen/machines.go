// internal/keygen/machines.go
package keygen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// ActivateInput identifies the device to register on a license.
type ActivateInput struct {
	LicenseID   string
	Fingerprint string
	Platform    string
	Name        string
	Meta        map[string]interface{}
}

// Activation is the outcome of a successful machine registration.
type Activation struct {
	MachineID string `json:"machineId"`
	Seats     Seats  `json:"seats"`
}

// IdempotencyKey is stable for a license/fingerprint pair so a retried
// activation cannot register the same device twice.
func IdempotencyKey(licenseID, fingerprint string) string {
	return fmt.Sprintf("machine_%s_%s", licenseID, fingerprint)
}

// ActivateMachine registers a device if the license has a free seat.
//
// The seat check reads the license and its machines before creating anything
// and fails fast when the pool is full. The check races with other
// activations; a 409/422 from the service on create is reported as seat
// exhaustion using the counts read beforehand.
func (c *Client) ActivateMachine(ctx context.Context, in ActivateInput) (*Activation, error) {
	if in.LicenseID == "" || in.Fingerprint == "" {
		return nil, fmt.Errorf("[keygen] activate machine: license id and fingerprint are required")
	}

	license, err := c.GetLicense(ctx, in.LicenseID)
	if err != nil {
		return nil, err
	}

	machines, err := c.ListMachines(ctx, in.LicenseID)
	if err != nil {
		return nil, err
	}

	seats := Seats{Max: license.MaxMachines, Used: len(machines)}
	if seats.Max > 0 && seats.Used >= seats.Max {
		seatDenialsTotal.Inc()
		return nil, &SeatsExhaustedError{Seats: seats}
	}

	name := in.Name
	if name == "" {
		name = in.Fingerprint
	}
	body := machineCreateRequest{
		Data: machineCreateData{
			Type: "machines",
			Attributes: machineCreateAttributes{
				Fingerprint: in.Fingerprint,
				Platform:    in.Platform,
				Name:        name,
				Metadata:    compactMeta(in.Meta),
			},
			Relationships: machineCreateRelationship{
				License: relationship{Data: resourceIdentifier{Type: "licenses", ID: in.LicenseID}},
			},
		},
	}

	const op = "create machine"
	resp, err := c.RequestWithRetry(ctx, op, Request{
		Method:  http.MethodPost,
		Path:    "/machines",
		Body:    body,
		Headers: map[string]string{"Idempotency-Key": IdempotencyKey(in.LicenseID, in.Fingerprint)},
	})
	if err != nil {
		requestsTotal.WithLabelValues(op, outcomeTransport).Inc()
		return nil, fmt.Errorf("[keygen] %s request failed: %w", op, err)
	}

	if resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity {
		requestsTotal.WithLabelValues(op, outcomeHTTPError).Inc()
		seatDenialsTotal.Inc()
		c.log.WithFields(logrus.Fields{
			"license_id": in.LicenseID,
			"status":     resp.StatusCode,
		}).Info("[keygen] machine create rejected, treating as seat exhaustion")
		return nil, &SeatsExhaustedError{Seats: seats}
	}
	if err := classify(op, resp); err != nil {
		requestsTotal.WithLabelValues(op, outcomeHTTPError).Inc()
		return nil, err
	}
	requestsTotal.WithLabelValues(op, outcomeSuccess).Inc()

	var doc machineDocument
	if err := json.Unmarshal(resp.Body, &doc); err != nil || doc.Data.ID == "" {
		return nil, fmt.Errorf("%w: created machine has no id", ErrMalformedResponse)
	}

	return &Activation{
		MachineID: doc.Data.ID,
		Seats:     Seats{Max: seats.Max, Used: seats.Used + 1},
	}, nil
}

// DeleteMachine unbinds a device unconditionally.
func (c *Client) DeleteMachine(ctx context.Context, machineID string) error {
	_, err := c.call(ctx, "delete machine", Request{
		Method: http.MethodDelete,
		Path:   "/machines/" + url.PathEscape(machineID),
	}, nil)
	return err
}

func compactMeta(meta map[string]interface{}) map[string]interface{} {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
