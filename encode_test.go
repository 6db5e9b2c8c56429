package snowtrack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeBase64URL_KnownValue(t *testing.T) {
	require.Equal(t, "eyJrIjoidiJ9", encodeBase64URL(`{"k":"v"}`))
}

func TestEncodeBase64URL_NoPaddingAndURLSafe(t *testing.T) {
	// This input yields '+', '/' and '=' under standard base64.
	encoded := encodeBase64URL(`{"a":"?????>"}`)

	require.False(t, strings.ContainsAny(encoded, "+/="))
}

func TestEncodeBase64URL_RoundTrip(t *testing.T) {
	original := `{"schema":"iglu:com.acme/event/jsonschema/1-0-0","data":{"n":1}}`
	decoded, err := decodeBase64URL(encodeBase64URL(original))
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestDecodeBase64URL_Malformed(t *testing.T) {
	_, err := decodeBase64URL("not base64!!")
	require.Error(t, err)
}
