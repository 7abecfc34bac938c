package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	ServerKey     = "defaultkey"
	DefaultTarget = "http://127.0.0.1:7350"
)

// TestClient talks to a running Nakama with the tower defense module loaded.
type TestClient struct {
	BaseURL string
	Token   string
	UserID  string
	http    *http.Client
}

// targetOrSkip returns the Nakama base URL or skips when none is configured.
func targetOrSkip(t *testing.T) string {
	t.Helper()
	target := os.Getenv("TD_NAKAMA_URL")
	if target == "" {
		t.Skip("TD_NAKAMA_URL not set; skipping Nakama integration test")
	}
	return target
}

// NewTestClient authenticates a fresh device account.
func NewTestClient(t *testing.T) *TestClient {
	t.Helper()
	tc := &TestClient{BaseURL: targetOrSkip(t), http: &http.Client{Timeout: 10 * time.Second}}

	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())
	body, err := json.Marshal(map[string]string{"id": deviceID})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+"/v2/account/authenticate/device?create=true", bytes.NewReader(body))
	require.NoError(t, err)
	req.SetBasicAuth(ServerKey, "")
	req.Header.Set("Content-Type", "application/json")

	var session struct {
		Token string `json:"token"`
	}
	tc.do(t, req, &session)
	require.NotEmpty(t, session.Token, "authenticate returned no token")
	tc.Token = session.Token

	var account struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	req, err = http.NewRequest(http.MethodGet, tc.BaseURL+"/v2/account", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tc.Token)
	tc.do(t, req, &account)
	tc.UserID = account.User.ID
	return tc
}

// RPC calls id with payload and decodes the returned payload into out.
// A non-200 response is returned as an error carrying the body.
func (tc *TestClient) RPC(t *testing.T, id string, payload any, out any) error {
	t.Helper()
	raw := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = string(b)
	}
	// The HTTP RPC gateway expects the payload as a JSON string.
	body, err := json.Marshal(raw)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+"/v2/rpc/"+id, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tc.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := tc.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc %s: status %d: %s", id, resp.StatusCode, data)
	}

	var envelope struct {
		Payload string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(envelope.Payload), out))
	}
	return nil
}

func (tc *TestClient) do(t *testing.T, req *http.Request, out any) {
	t.Helper()
	resp, err := tc.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equalf(t, http.StatusOK, resp.StatusCode, "%s %s: %s", req.Method, req.URL.Path, data)
	require.NoError(t, json.Unmarshal(data, out))
}
