package webintel

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name    string
		page    *Page
		blocked bool
		source  string
	}{
		{
			name:    "cloudflare server header",
			page:    &Page{StatusCode: 403, Headers: http.Header{"Server": {"cloudflare"}}},
			blocked: true, source: "Cloudflare",
		},
		{
			name:    "cloudflare challenge body on 503",
			page:    &Page{StatusCode: 503, Body: []byte("<div id=cf-browser-verification>")},
			blocked: true, source: "Cloudflare",
		},
		{
			name:    "akamai reference page",
			page:    &Page{StatusCode: 403, Body: []byte("Access Denied. Reference #18.4d24")},
			blocked: true, source: "Akamai",
		},
		{
			name:    "datadome header",
			page:    &Page{StatusCode: 403, Headers: http.Header{"X-Datadome": {"1"}}},
			blocked: true, source: "DataDome",
		},
		{
			name:    "perimeterx body",
			page:    &Page{StatusCode: 403, Body: []byte(`<script src="https://client.perimeterx.net/x.js">`)},
			blocked: true, source: "PerimeterX",
		},
		{
			name: "plain 403 without signatures",
			page: &Page{StatusCode: 403, Body: []byte("forbidden")},
		},
		{
			name: "healthy page",
			page: &Page{StatusCode: 200, Body: []byte("<html>ok</html>")},
		},
		{
			name: "nil page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, source := DetectBlock(tt.page)
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.source, source)
		})
	}
}
