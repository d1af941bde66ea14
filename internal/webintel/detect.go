package webintel

import (
	"bytes"
	"net/http"
	"strings"
)

// DetectBlock checks a fetched page for bot-protection signatures and returns
// the protection vendor when one challenged the request. Blocked snapshots
// are recorded as such so the report can flag potentially incomplete website
// data.
func DetectBlock(p *Page) (blocked bool, source string) {
	if p == nil {
		return false, ""
	}
	for _, d := range []func(*Page) (bool, string){
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	} {
		if ok, src := d(p); ok {
			return true, src
		}
	}
	return false, ""
}

func header(p *Page, key string) string {
	if p.Headers == nil {
		return ""
	}
	return p.Headers.Get(key)
}

func bodyHasAny(p *Page, signatures ...string) bool {
	for _, s := range signatures {
		if bytes.Contains(p.Body, []byte(s)) {
			return true
		}
	}
	return false
}

func detectCloudflare(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(p, "Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bodyHasAny(p, "cf-browser-verification", "cf-turnstile", "Attention Required! | Cloudflare") {
		return true, "Cloudflare"
	}
	return false, ""
}

func detectAkamai(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(p, "Server")), "akamai") {
		return true, "Akamai"
	}
	if bodyHasAny(p, "Reference #") && bodyHasAny(p, "Access Denied") {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if header(p, "X-DataDome") != "" || header(p, "X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bodyHasAny(p, "geo.captcha-delivery.com", "datadome") {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(p *Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if header(p, "X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if bodyHasAny(p, "client.perimeterx.net", "px-captcha", "_pxBlock") {
		return true, "PerimeterX"
	}
	return false, ""
}
