// internal/keygen/normalize.go
package keygen

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// License is the canonical view of a remote license.
type License struct {
	ID          string                 `json:"id"`
	Key         string                 `json:"key"`
	Status      string                 `json:"status"`
	MaxMachines int                    `json:"maxMachines"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Machine is one activated device on a license.
type Machine struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Created     string `json:"created,omitempty"`
}

// DownloadLink is a time-limited asset URL.
type DownloadLink struct {
	URL                string    `json:"url"`
	ExpiresAt          time.Time `json:"expiresAt"`
	TTLSeconds         int       `json:"ttlSeconds"`
	ContentDisposition string    `json:"contentDisposition,omitempty"`
}

func normalizeLicense(body []byte) (*License, error) {
	var doc licenseDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: license: %v", ErrMalformedResponse, err)
	}

	attrs := doc.Data.Attributes
	license := &License{
		ID:       doc.Data.ID,
		Key:      attrs.Key,
		Status:   firstNonEmpty(attrs.Status, attrs.State, doc.Status, doc.State),
		Metadata: attrs.Metadata,
	}

	switch {
	case attrs.MaxMachines != nil:
		license.MaxMachines = *attrs.MaxMachines
	case doc.MaxMachines != nil:
		license.MaxMachines = *doc.MaxMachines
	}
	if license.MaxMachines < 0 {
		license.MaxMachines = 0
	}

	return license, nil
}

func normalizeMachine(r machineResource) Machine {
	return Machine{
		ID:          r.ID,
		Name:        r.Attributes.Name,
		Fingerprint: r.Attributes.Fingerprint,
		Platform:    r.Attributes.Platform,
		Created:     r.Attributes.Created,
	}
}

func normalizeMachines(body []byte) ([]Machine, error) {
	var doc machineListDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: machines: %v", ErrMalformedResponse, err)
	}

	machines := make([]Machine, 0, len(doc.Data))
	for _, r := range doc.Data {
		machines = append(machines, normalizeMachine(r))
	}
	return machines, nil
}

// normalizeDownloadLink accepts url/downloadUrl and expiresAt/expiry, either
// under data.attributes or at the top level. A missing expiry means
// issuedAt+defaultTTL.
func normalizeDownloadLink(body []byte, issuedAt time.Time, defaultTTL time.Duration, filename string) (*DownloadLink, error) {
	var doc linkDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: download link: %v", ErrMalformedResponse, err)
	}

	nested, top := doc.Data.Attributes, doc.linkAttributes

	link := &DownloadLink{
		URL:                firstNonEmpty(nested.URL, nested.DownloadURL, top.URL, top.DownloadURL),
		ContentDisposition: firstNonEmpty(nested.ContentDisposition, top.ContentDisposition),
	}
	if link.URL == "" {
		return nil, fmt.Errorf("%w: download link has no url", ErrMalformedResponse)
	}

	link.ExpiresAt = issuedAt.Add(defaultTTL)
	if raw := firstNonEmpty(nested.ExpiresAt, nested.Expiry, top.ExpiresAt, top.Expiry); raw != "" {
		expiresAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: download link expiry %q: %v", ErrMalformedResponse, raw, err)
		}
		link.ExpiresAt = expiresAt
	}
	link.TTLSeconds = int(link.ExpiresAt.Sub(issuedAt).Round(time.Second) / time.Second)
	if link.TTLSeconds < 0 {
		link.TTLSeconds = 0
	}

	if link.ContentDisposition == "" && filename != "" {
		link.ContentDisposition = fmt.Sprintf("attachment; filename=%q", filename)
	}

	return link, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
