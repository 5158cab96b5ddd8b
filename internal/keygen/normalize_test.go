package keygen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLicense(t *testing.T) {
	tests := []struct {
		name string
		body string
		want License
	}{
		{
			name: "nested fields",
			body: `{"data":{"id":"L1","attributes":{"key":"K","status":"ACTIVE","maxMachines":2}}}`,
			want: License{ID: "L1", Key: "K", Status: "ACTIVE", MaxMachines: 2},
		},
		{
			name: "state and top-level cap",
			body: `{"data":{"id":"L1","attributes":{"state":"EXPIRED"}},"maxMachines":4}`,
			want: License{ID: "L1", Status: "EXPIRED", MaxMachines: 4},
		},
		{
			name: "nested cap wins",
			body: `{"data":{"id":"L1","attributes":{"maxMachines":1}},"maxMachines":9,"status":"ACTIVE"}`,
			want: License{ID: "L1", Status: "ACTIVE", MaxMachines: 1},
		},
		{
			name: "negative cap is unlimited",
			body: `{"data":{"id":"L1","attributes":{"maxMachines":-1}}}`,
			want: License{ID: "L1", MaxMachines: 0},
		},
		{
			name: "null cap is unlimited",
			body: `{"data":{"id":"L1","attributes":{"maxMachines":null}}}`,
			want: License{ID: "L1", MaxMachines: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeLicense([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNormalizeLicenseMalformed(t *testing.T) {
	_, err := normalizeLicense([]byte(`<html>`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestNormalizeDownloadLink(t *testing.T) {
	issued := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		body        string
		wantURL     string
		wantExpires time.Time
		wantTTL     int
	}{
		{
			name:        "nested url with expiry",
			body:        `{"data":{"attributes":{"url":"https://a","expiresAt":"2025-03-01T10:05:00Z"}}}`,
			wantURL:     "https://a",
			wantExpires: issued.Add(5 * time.Minute),
			wantTTL:     300,
		},
		{
			name:        "nested downloadUrl",
			body:        `{"data":{"attributes":{"downloadUrl":"https://b","expiry":"2025-03-01T10:01:00Z"}}}`,
			wantURL:     "https://b",
			wantExpires: issued.Add(time.Minute),
			wantTTL:     60,
		},
		{
			name:        "top-level url without expiry",
			body:        `{"url":"https://c"}`,
			wantURL:     "https://c",
			wantExpires: issued.Add(900 * time.Second),
			wantTTL:     900,
		},
		{
			name:        "top-level downloadUrl",
			body:        `{"downloadUrl":"https://d","expiresAt":"2025-03-01T10:00:30Z"}`,
			wantURL:     "https://d",
			wantExpires: issued.Add(30 * time.Second),
			wantTTL:     30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := normalizeDownloadLink([]byte(tt.body), issued, 900*time.Second, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, link.URL)
			assert.True(t, tt.wantExpires.Equal(link.ExpiresAt))
			assert.Equal(t, tt.wantTTL, link.TTLSeconds)
			assert.Empty(t, link.ContentDisposition)
		})
	}
}

func TestNormalizeDownloadLinkKeepsUpstreamDisposition(t *testing.T) {
	link, err := normalizeDownloadLink([]byte(`{"url":"https://a","contentDisposition":"inline"}`), time.Now(), time.Minute, "app.zip")
	require.NoError(t, err)
	assert.Equal(t, "inline", link.ContentDisposition)
}

func TestNormalizeDownloadLinkBadExpiry(t *testing.T) {
	_, err := normalizeDownloadLink([]byte(`{"url":"https://a","expiresAt":"tomorrow"}`), time.Now(), time.Minute, "")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
