package handler

import (
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// ValidateSlackRequest validates the Slack request signature and timestamp.
// headers may use any casing, as API Gateway delivers them.
// See: https://api.slack.com/authentication/verifying-requests-from-slack
func ValidateSlackRequest(body []byte, headers map[string]string, signingKey string) error {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}

	sv, err := slack.NewSecretsVerifier(h, signingKey)
	if err != nil {
		return fmt.Errorf("verify request: %w", err)
	}
	if _, err := sv.Write(body); err != nil {
		return fmt.Errorf("verify request: %w", err)
	}
	if err := sv.Ensure(); err != nil {
		return fmt.Errorf("verify request: %w", err)
	}

	return nil
}
