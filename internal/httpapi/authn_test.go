package httpapi

import (
	"errors"
	"net/http"
	"testing"

	"vitalia.org/internal/auth"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer abc", "abc", false},
		{"  Bearer   abc  ", "abc", false},
		{"", "", true},
		{"Bearer ", "", true},
		{"Basic abc", "", true},
		{"abc", "", true},
		{"Bearer a b", "", true},
		{"Bearer abc\tdef", "", true},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.wantErr {
			if !errors.Is(err, auth.ErrMalformedCredential) {
				t.Fatalf("header %q: error = %v, want malformed credential", tc.header, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("header %q: %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("header %q: got %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestAnonymousRequestGets401(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/v1/profile", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestMalformedAuthorizationHeaderGets401(t *testing.T) {
	c := newTestAPI(t)
	for _, header := range []string{"Basic abc", "Bearer ", "nonsense"} {
		resp := c.get("/v1/profile", map[string]string{"Authorization": header})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

// A token split by interior whitespace fails at header parsing, before the
// codec ever sees it, and answers with the malformed-credential message.
func TestTokenWithInteriorWhitespaceIsMalformed(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/v1/profile", map[string]string{"Authorization": "Bearer a b"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["error"] != "malformed credential" {
		t.Fatalf("error = %v, want malformed credential", body["error"])
	}
}

func TestGarbageTokenGets401(t *testing.T) {
	c := newTestAPI(t)
	resp := c.get("/v1/profile", authHeaderFor("not-a-jwt"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRefreshTokenRejectedAsAccessCredential(t *testing.T) {
	c := newTestAPI(t)
	c.register("pat@example.com", "s3cret-pass", "")
	_, cookie := c.login("pat@example.com", "s3cret-pass")

	resp := c.get("/v1/profile", authHeaderFor(cookie.Value))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPatientForbiddenOnProviderSurface(t *testing.T) {
	c := newTestAPI(t)
	c.register("pat@example.com", "s3cret-pass", "")
	session, _ := c.login("pat@example.com", "s3cret-pass")

	resp := c.get("/v1/provider/dashboard", authHeaderFor(session.Access))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProviderForbiddenOnAdminSurface(t *testing.T) {
	c := newTestAPI(t)
	c.register("dr@example.com", "s3cret-pass", "provider")
	patientID := c.register("pat@example.com", "s3cret-pass", "")
	session, _ := c.login("dr@example.com", "s3cret-pass")

	resp := c.do(http.MethodPut, "/v1/users/"+patientID+"/role", map[string]string{
		"role": "provider",
	}, authHeaderFor(session.Access))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}
