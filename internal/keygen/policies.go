// internal/keygen/policies.go
package keygen

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// NamedResource is the id/name pair shown in admin pickers.
type NamedResource struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
	Type string `json:"type,omitempty"`
}

// PolicyInput describes a policy to create on a product.
type PolicyInput struct {
	ProductID      string   `json:"productId" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	MaxMachines    *int     `json:"maxMachines,omitempty" validate:"omitempty,min=0"`
	Floating       *bool    `json:"floating,omitempty"`
	Duration       *int     `json:"duration,omitempty" validate:"omitempty,min=0"`
	EntitlementIDs []string `json:"entitlementIds,omitempty"`
}

// PolicyOverrides replace fields of the source policy when cloning.
type PolicyOverrides struct {
	Name           *string  `json:"name,omitempty"`
	MaxMachines    *int     `json:"maxMachines,omitempty"`
	Floating       *bool    `json:"floating,omitempty"`
	Duration       *int     `json:"duration,omitempty"`
	EntitlementIDs []string `json:"entitlementIds,omitempty"`
}

type CloneInput struct {
	SourcePolicyID  string           `json:"sourcePolicyId" validate:"required"`
	TargetProductID string           `json:"targetProductId" validate:"required"`
	Overrides       *PolicyOverrides `json:"overrides,omitempty"`
}

// ListPolicies lists policies, optionally only those of one product.
func (c *Client) ListPolicies(ctx context.Context, productID string) ([]NamedResource, error) {
	var query url.Values
	if productID != "" {
		query = url.Values{"filter[product]": []string{productID}}
	}

	var doc namedListDocument
	if _, err := c.call(ctx, "list policies", Request{Method: http.MethodGet, Path: "/policies", Query: query}, &doc); err != nil {
		return nil, err
	}

	policies := make([]NamedResource, 0, len(doc.Data))
	for _, p := range doc.Data {
		policies = append(policies, NamedResource{ID: p.ID, Name: p.Attributes.Name})
	}
	return policies, nil
}

func (c *Client) ListEntitlements(ctx context.Context) ([]NamedResource, error) {
	var doc namedListDocument
	if _, err := c.call(ctx, "list entitlements", Request{Method: http.MethodGet, Path: "/entitlements"}, &doc); err != nil {
		return nil, err
	}

	entitlements := make([]NamedResource, 0, len(doc.Data))
	for _, e := range doc.Data {
		entitlements = append(entitlements, NamedResource{ID: e.ID, Code: e.Attributes.Code, Name: e.Attributes.Name})
	}
	return entitlements, nil
}

// CreatePolicy creates a policy and attaches the given entitlements.
func (c *Client) CreatePolicy(ctx context.Context, in PolicyInput) (*NamedResource, error) {
	created, err := c.createPolicy(ctx, in.ProductID, policyAttributes{
		Name:        in.Name,
		MaxMachines: in.MaxMachines,
		Floating:    in.Floating,
		Duration:    in.Duration,
	})
	if err != nil {
		return nil, err
	}

	if err := c.AttachEntitlements(ctx, created.ID, in.EntitlementIDs); err != nil {
		return nil, err
	}
	return created, nil
}

// ClonePolicy copies a policy onto another product. Entitlements come from the
// overrides when given, otherwise from the source policy.
func (c *Client) ClonePolicy(ctx context.Context, in CloneInput) (*NamedResource, error) {
	var src policyDocument
	if _, err := c.call(ctx, "get policy", Request{
		Method: http.MethodGet,
		Path:   "/policies/" + url.PathEscape(in.SourcePolicyID),
	}, &src); err != nil {
		return nil, err
	}

	attrs := policyAttributes{
		Name:        src.Data.Attributes.Name,
		MaxMachines: src.Data.Attributes.MaxMachines,
		Floating:    src.Data.Attributes.Floating,
		Duration:    src.Data.Attributes.Duration,
	}
	var entitlements []string
	if o := in.Overrides; o != nil {
		if o.Name != nil {
			attrs.Name = *o.Name
		}
		if o.MaxMachines != nil {
			attrs.MaxMachines = o.MaxMachines
		}
		if o.Floating != nil {
			attrs.Floating = o.Floating
		}
		if o.Duration != nil {
			attrs.Duration = o.Duration
		}
		entitlements = o.EntitlementIDs
	}

	created, err := c.createPolicy(ctx, in.TargetProductID, attrs)
	if err != nil {
		return nil, err
	}

	if entitlements == nil {
		var doc namedListDocument
		// A failed read leaves the clone without entitlements.
		if _, err := c.call(ctx, "list policy entitlements", Request{
			Method: http.MethodGet,
			Path:   "/policies/" + url.PathEscape(in.SourcePolicyID) + "/entitlements",
		}, &doc); err == nil {
			for _, e := range doc.Data {
				if e.ID != "" {
					entitlements = append(entitlements, e.ID)
				}
			}
		} else {
			c.log.WithError(err).WithField("policy_id", in.SourcePolicyID).Warn("[keygen] could not read source entitlements")
		}
	}

	if err := c.AttachEntitlements(ctx, created.ID, entitlements); err != nil {
		return nil, err
	}
	return &NamedResource{ID: created.ID}, nil
}

// AttachEntitlements is a no-op for an empty list.
func (c *Client) AttachEntitlements(ctx context.Context, policyID string, entitlementIDs []string) error {
	if policyID == "" || len(entitlementIDs) == 0 {
		return nil
	}

	body := entitlementAttachRequest{Data: make([]resourceIdentifier, 0, len(entitlementIDs))}
	for _, id := range entitlementIDs {
		body.Data = append(body.Data, resourceIdentifier{Type: "entitlements", ID: id})
	}

	_, err := c.call(ctx, "attach entitlements", Request{
		Method: http.MethodPost,
		Path:   "/policies/" + url.PathEscape(policyID) + "/relationships/entitlements",
		Body:   body,
	}, nil)
	return err
}

// LookupResource resolves a product or policy id to a display name, falling
// back to the id and then the policy code.
func (c *Client) LookupResource(ctx context.Context, kind, id string) (*NamedResource, error) {
	var path string
	switch kind {
	case "product":
		path = "/products/" + url.PathEscape(id)
	case "policy":
		path = "/policies/" + url.PathEscape(id)
	default:
		return nil, fmt.Errorf("[keygen] unknown resource type %q", kind)
	}

	var doc namedDocument
	if _, err := c.call(ctx, "get "+kind, Request{Method: http.MethodGet, Path: path}, &doc); err != nil {
		return nil, err
	}

	name := firstNonEmpty(doc.Data.Attributes.Name, doc.Data.ID)
	if name == "" && kind == "policy" {
		name = doc.Data.Attributes.Code
	}
	return &NamedResource{ID: id, Type: kind, Name: name}, nil
}

func (c *Client) createPolicy(ctx context.Context, productID string, attrs policyAttributes) (*NamedResource, error) {
	var doc namedDocument
	if _, err := c.call(ctx, "create policy", Request{
		Method: http.MethodPost,
		Path:   "/policies",
		Body: policyCreateRequest{
			Data: policyCreateData{
				Type:       "policies",
				Attributes: attrs,
				Relationships: policyCreateRelationships{
					Product: relationship{Data: resourceIdentifier{Type: "products", ID: productID}},
				},
			},
		},
	}, &doc); err != nil {
		return nil, err
	}
	if doc.Data.ID == "" {
		return nil, fmt.Errorf("%w: created policy has no id", ErrMalformedResponse)
	}
	return &NamedResource{ID: doc.Data.ID, Name: doc.Data.Attributes.Name}, nil
}
