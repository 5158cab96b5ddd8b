// internal/keygen/downloads.go
package keygen

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// DownloadLinkInput names the license-scoped asset to link to.
type DownloadLinkInput struct {
	LicenseID string
	AssetID   string
	Filename  string
}

// CreateDownloadLink returns a cached link for the same license, asset and
// filename while it is still valid, otherwise issues a new one.
func (c *Client) CreateDownloadLink(ctx context.Context, in DownloadLinkInput) (*DownloadLink, error) {
	if in.LicenseID == "" || in.AssetID == "" {
		return nil, fmt.Errorf("[keygen] create download link: license id and asset id are required")
	}

	key := LinkKey{LicenseID: in.LicenseID, AssetID: in.AssetID, Filename: in.Filename}
	if link, ok := c.links.Get(key); ok {
		return &link, nil
	}

	issuedAt := c.now()
	resp, err := c.call(ctx, "create download link", Request{
		Method: http.MethodPost,
		Path:   "/licenses/" + url.PathEscape(in.LicenseID) + "/artifacts/" + url.PathEscape(in.AssetID) + "/links",
		Body: linkCreateRequest{
			Data: linkCreateData{
				Type:       "links",
				Attributes: linkCreateAttributes{Filename: in.Filename, TTL: int(c.linkTTL.Seconds())},
			},
		},
	}, nil)
	if err != nil {
		return nil, err
	}

	link, err := normalizeDownloadLink(resp.Body, issuedAt, c.linkTTL, in.Filename)
	if err != nil {
		return nil, err
	}

	c.links.Put(key, *link)
	return link, nil
}
