package httpc

import (
	"net/http"
	"testing"
	"time"
)

func TestNewClientTimeouts(t *testing.T) {
	c := NewClient(2 * time.Second)
	if c.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport is %T, want *http.Transport", c.Transport)
	}
	if tr.TLSHandshakeTimeout != 2*time.Second {
		t.Errorf("TLSHandshakeTimeout = %v, want capped to 2s", tr.TLSHandshakeTimeout)
	}
}

func TestSharedClient(t *testing.T) {
	if Client.Timeout != DefaultTimeout {
		t.Errorf("shared client timeout = %v, want %v", Client.Timeout, DefaultTimeout)
	}
}
