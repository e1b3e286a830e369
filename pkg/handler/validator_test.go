package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func sign(signingKey, timestamp string, body []byte) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, string(body))
	h := hmac.New(sha256.New, []byte(signingKey))
	h.Write([]byte(baseString))
	return "v0=" + fmt.Sprintf("%x", h.Sum(nil))
}

func TestValidateSlackRequest(t *testing.T) {
	signingKey := "test-signing-key"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	body := []byte("command=%2Fask&text=deploy&channel_id=C1")
	validSig := sign(signingKey, timestamp, body)

	tests := []struct {
		name      string
		body      []byte
		timestamp string
		signature string
		sigKey    string
		wantErr   bool
	}{
		{
			name:      "valid signature",
			body:      body,
			timestamp: timestamp,
			signature: validSig,
			sigKey:    signingKey,
		},
		{
			name:      "invalid signature",
			body:      body,
			timestamp: timestamp,
			signature: "v0=invalidsig",
			sigKey:    signingKey,
			wantErr:   true,
		},
		{
			name:      "wrong signing key",
			body:      body,
			timestamp: timestamp,
			signature: validSig,
			sigKey:    "wrong-key",
			wantErr:   true,
		},
		{
			name:      "tampered body",
			body:      []byte("command=%2Fask&text=other&channel_id=C1"),
			timestamp: timestamp,
			signature: validSig,
			sigKey:    signingKey,
			wantErr:   true,
		},
		{
			name:      "old timestamp",
			body:      body,
			timestamp: strconv.FormatInt(time.Now().Unix()-400, 10),
			signature: validSig,
			sigKey:    signingKey,
			wantErr:   true,
		},
		{
			name:      "invalid timestamp format",
			body:      body,
			timestamp: "not-a-number",
			signature: validSig,
			sigKey:    signingKey,
			wantErr:   true,
		},
		{
			name:      "empty signature",
			body:      body,
			timestamp: timestamp,
			signature: "",
			sigKey:    signingKey,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{
				"x-slack-request-timestamp": tt.timestamp,
				"X-Slack-Signature":         tt.signature,
			}
			err := ValidateSlackRequest(tt.body, headers, tt.sigKey)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlackRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSlackRequestTimestampFreshness(t *testing.T) {
	signingKey := "test-key"
	body := []byte("test")
	now := time.Now().Unix()

	recentTS := strconv.FormatInt(now, 10)
	headers := map[string]string{
		"X-Slack-Request-Timestamp": recentTS,
		"X-Slack-Signature":         sign(signingKey, recentTS, body),
	}
	if err := ValidateSlackRequest(body, headers, signingKey); err != nil {
		t.Errorf("ValidateSlackRequest() failed with recent timestamp: %v", err)
	}

	oldTS := strconv.FormatInt(now-301, 10)
	headers = map[string]string{
		"X-Slack-Request-Timestamp": oldTS,
		"X-Slack-Signature":         sign(signingKey, oldTS, body),
	}
	if err := ValidateSlackRequest(body, headers, signingKey); err == nil {
		t.Error("ValidateSlackRequest() should reject timestamp older than 5 minutes")
	}
}
