// Package office implements the collaborative-editing round-trip with an
// external OnlyOffice-compatible document server: signed session
// descriptors, the asynchronous save callback, and format conversion.
package office

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// signPayload signs an outbound payload with HMAC-SHA256. The payload is
// carried as the JWT claim set, so the signature covers the entire JSON
// body minus any pre-existing token field.
func signPayload(secret []byte, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", fmt.Errorf("payload is not an object: %w", err)
	}
	delete(claims, "token")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return signed, nil
}
