package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vitta/pkg/domain-errors"
	s "vitta/pkg/string"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("1234")
	require.NoError(t, err)
	require.NotEqual(t, "1234", hash)

	assert.NoError(t, Verify("1234", hash))

	err = Verify("0000", hash)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidSecret))
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := Hash("")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP(6)
	require.NoError(t, err)
	assert.Len(t, otp, 6)
	assert.True(t, s.DigitsOnly(otp))

	_, err = GenerateOTP(0)
	assert.Error(t, err)
}
