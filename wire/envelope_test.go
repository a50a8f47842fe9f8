package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuccess_RoundTrips(t *testing.T) {
	env := Success([]byte("payload"))
	require.Equal(t, StatusSuccess, env.Status)
	require.Equal(t, []byte("payload"), env.Payload)
	require.Empty(t, env.ErrorDescription)

	frame, err := EncodeEnvelope(env)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(frame)
	require.NoError(t, err)
	require.Equal(t, env, decoded)
}

func TestFail_CarriesErrorDescription(t *testing.T) {
	env := Fail(errors.New("boom"))
	require.Equal(t, StatusFail, env.Status)
	require.Nil(t, env.Payload)
	require.Equal(t, "boom", env.ErrorDescription)

	frame, err := EncodeEnvelope(env)
	require.NoError(t, err)

	decoded, err := DecodeEnvelope(frame)
	require.NoError(t, err)
	require.Equal(t, env, decoded)
}

func TestStatus_String(t *testing.T) {
	require.Equal(t, "SUCCESS", StatusSuccess.String())
	require.Equal(t, "FAIL", StatusFail.String())
}

func TestDecodeEnvelope_InvalidFrame(t *testing.T) {
	_, err := DecodeEnvelope([]byte("not a gob frame"))
	require.Error(t, err)
}
