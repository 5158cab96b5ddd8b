// internal/keygen/wire.go
package keygen

import "encoding/json"

// JSON:API request and response shapes exchanged with the licensing service.

type relationship struct {
	Data resourceIdentifier `json:"data"`
}

type resourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// -------- licenses

type licenseCreateRequest struct {
	Data licenseCreateData `json:"data"`
}

type licenseCreateData struct {
	Type          string                     `json:"type"`
	Attributes    licenseCreateAttributes    `json:"attributes"`
	Relationships licenseCreateRelationships `json:"relationships"`
}

type licenseCreateAttributes struct {
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type licenseCreateRelationships struct {
	Policy  *relationship `json:"policy,omitempty"`
	Product *relationship `json:"product,omitempty"`
}

// licenseDocument accepts both the nested and the flattened seat cap and either
// status field name. normalizeLicense picks the canonical values.
type licenseDocument struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Key         string                 `json:"key"`
			Status      string                 `json:"status"`
			State       string                 `json:"state"`
			MaxMachines *int                   `json:"maxMachines"`
			Metadata    map[string]interface{} `json:"metadata"`
		} `json:"attributes"`
	} `json:"data"`
	MaxMachines *int   `json:"maxMachines"`
	Status      string `json:"status"`
	State       string `json:"state"`
}

// -------- machines

type machineCreateRequest struct {
	Data machineCreateData `json:"data"`
}

type machineCreateData struct {
	Type          string                    `json:"type"`
	Attributes    machineCreateAttributes   `json:"attributes"`
	Relationships machineCreateRelationship `json:"relationships"`
}

type machineCreateAttributes struct {
	Fingerprint string                 `json:"fingerprint"`
	Platform    string                 `json:"platform,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type machineCreateRelationship struct {
	License relationship `json:"license"`
}

type machineResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Name        string `json:"name"`
		Fingerprint string `json:"fingerprint"`
		Platform    string `json:"platform"`
		Created     string `json:"created"`
	} `json:"attributes"`
}

type machineDocument struct {
	Data machineResource `json:"data"`
}

type machineListDocument struct {
	Data []machineResource `json:"data"`
}

// -------- download links

type linkCreateRequest struct {
	Data linkCreateData `json:"data"`
}

type linkCreateData struct {
	Type       string               `json:"type"`
	Attributes linkCreateAttributes `json:"attributes"`
}

type linkCreateAttributes struct {
	Filename string `json:"filename,omitempty"`
	TTL      int    `json:"ttl"`
}

type linkAttributes struct {
	URL                string `json:"url"`
	DownloadURL        string `json:"downloadUrl"`
	ExpiresAt          string `json:"expiresAt"`
	Expiry             string `json:"expiry"`
	ContentDisposition string `json:"contentDisposition"`
}

type linkDocument struct {
	Data struct {
		ID         string         `json:"id"`
		Attributes linkAttributes `json:"attributes"`
	} `json:"data"`
	linkAttributes
}

// -------- policies and entitlements

type policyAttributes struct {
	Name        string `json:"name,omitempty"`
	MaxMachines *int   `json:"maxMachines,omitempty"`
	Floating    *bool  `json:"floating,omitempty"`
	Duration    *int   `json:"duration,omitempty"`
	Code        string `json:"code,omitempty"`
}

type policyCreateRequest struct {
	Data policyCreateData `json:"data"`
}

type policyCreateData struct {
	Type          string                    `json:"type"`
	Attributes    policyAttributes          `json:"attributes"`
	Relationships policyCreateRelationships `json:"relationships"`
}

type policyCreateRelationships struct {
	Product relationship `json:"product"`
}

type namedResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"attributes"`
}

type namedListDocument struct {
	Data []namedResource `json:"data"`
}

type policyDocument struct {
	Data struct {
		ID         string           `json:"id"`
		Attributes policyAttributes `json:"attributes"`
	} `json:"data"`
}

type namedDocument struct {
	Data namedResource `json:"data"`
}

type entitlementAttachRequest struct {
	Data []resourceIdentifier `json:"data"`
}

func rawJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(body)
}
