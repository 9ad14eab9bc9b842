package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

const refreshCookieName = "refresh_token"

// smoke walks the full session lifecycle against a running API:
// register, login, authenticated read, cookie-borne refresh rotation,
// replay rejection, logout. Exits non-zero on the first deviation.
func main() {
	base := os.Getenv("VITALIA_SMOKE_ADDR")
	if base == "" {
		base = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	email := fmt.Sprintf("smoke-%d@example.com", rand.Int63())
	password := "smoke-test-pass"

	status, _, _ := call(client, http.MethodPost, base+"/v1/auth/register", map[string]string{
		"email":    email,
		"password": password,
	}, "", nil)
	if status != http.StatusCreated {
		log.Fatalf("register: status %d", status)
	}

	status, body, cookies := call(client, http.MethodPost, base+"/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "", nil)
	if status != http.StatusOK {
		log.Fatalf("login: status %d", status)
	}
	var session struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(body, &session); err != nil {
		log.Fatalf("login: decode: %v", err)
	}
	refresh := cookieNamed(cookies, refreshCookieName)
	if refresh == nil {
		log.Fatal("login did not set the refresh cookie")
	}
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	if _, ok := raw["refresh_token"]; ok {
		log.Fatal("login body must not carry the refresh token")
	}

	status, _, _ = call(client, http.MethodGet, base+"/v1/profile", nil, session.Access, nil)
	if status != http.StatusOK {
		log.Fatalf("profile: status %d", status)
	}

	status, _, cookies = call(client, http.MethodPost, base+"/v1/auth/refresh", nil, "", refresh)
	if status != http.StatusOK {
		log.Fatalf("refresh: status %d", status)
	}
	rotated := cookieNamed(cookies, refreshCookieName)
	if rotated == nil {
		log.Fatal("refresh did not set a new refresh cookie")
	}
	if rotated.Value == refresh.Value {
		log.Fatal("refresh did not rotate the token")
	}

	// Replaying the consumed cookie must fail.
	status, _, _ = call(client, http.MethodPost, base+"/v1/auth/refresh", nil, "", refresh)
	if status != http.StatusUnauthorized {
		log.Fatalf("replay: status %d, want 401", status)
	}

	status, _, _ = call(client, http.MethodPost, base+"/v1/auth/logout", nil, "", rotated)
	if status != http.StatusOK {
		log.Fatalf("logout: status %d", status)
	}

	status, _, _ = call(client, http.MethodPost, base+"/v1/auth/refresh", nil, "", rotated)
	if status != http.StatusUnauthorized {
		log.Fatalf("refresh after logout: status %d, want 401", status)
	}

	fmt.Printf("✅ session smoke test passed: user=%s\n", email)
}

func call(client *http.Client, method, url string, body any, token string, cookie *http.Cookie) (int, []byte, []*http.Cookie) {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.Bytes(), resp.Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
