package fingerprint

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestNewTransportUnknownProfile(t *testing.T) {
	_, err := NewTransport(Profile("netscape"), nil)
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestNewTransportGoProfile(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	rt, err := NewTransport(ProfileGo, nil)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	transport, ok := rt.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", rt)
	}
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	client := &http.Client{Transport: transport}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestNewTransportInstallsProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://127.0.0.1:8888")
	proxyFunc := func(*http.Request) (*url.URL, error) { return proxyURL, nil }

	rt, err := NewTransport(ProfileChrome, proxyFunc)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	transport, ok := rt.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", rt)
	}
	if transport.Proxy == nil {
		t.Fatal("expected proxy function installed")
	}
	got, err := transport.Proxy(&http.Request{})
	if err != nil || got.String() != "http://127.0.0.1:8888" {
		t.Errorf("proxy resolution = %v, %v", got, err)
	}
}

func TestHelloIDSelection(t *testing.T) {
	for _, p := range []Profile{ProfileChrome, ProfileFirefox, ProfileSafari, ""} {
		if _, err := helloID(p); err != nil {
			t.Errorf("helloID(%q): %v", p, err)
		}
	}
	if _, err := helloID(ProfileGo); err == nil {
		t.Error("helloID should not resolve the go profile")
	}
}
