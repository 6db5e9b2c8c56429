package snowtrack

import "encoding/base64"

// encodeBase64URL returns the URL-safe base64 encoding of text with no
// padding characters, as the collector protocol expects for the cx and
// ue_px parameters.
func encodeBase64URL(text string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(text))
}

// decodeBase64URL reverses encodeBase64URL.
func decodeBase64URL(encoded string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
