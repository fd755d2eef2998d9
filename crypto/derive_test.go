package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindProgramAddressIsDeterministicAndOffCurve(t *testing.T) {
	program := AddressFromLabel("mountbreed/test-program")

	first, bump, err := FindProgramAddress(program, []byte("escrow-seed"))
	require.NoError(t, err)
	second, bumpAgain, err := FindProgramAddress(program, []byte("escrow-seed"))
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, bump, bumpAgain)
	require.False(t, IsOnCurve(first[:]))
	require.NoError(t, VerifyProgramAddress(first, bump, program, []byte("escrow-seed")))
}

func TestFindProgramAddressSeparatesDomains(t *testing.T) {
	program := AddressFromLabel("mountbreed/test-program")
	other := AddressFromLabel("mountbreed/other-program")

	escrow, _, err := FindProgramAddress(program, []byte("escrow-seed"))
	require.NoError(t, err)
	vault, _, err := FindProgramAddress(program, []byte("token-seed"))
	require.NoError(t, err)
	foreign, _, err := FindProgramAddress(other, []byte("escrow-seed"))
	require.NoError(t, err)

	require.NotEqual(t, escrow, vault)
	require.NotEqual(t, escrow, foreign)
}

func TestVerifyProgramAddressRejectsWrongBump(t *testing.T) {
	program := AddressFromLabel("mountbreed/test-program")
	addr, bump, err := FindProgramAddress(program, []byte("authority-seed"))
	require.NoError(t, err)

	err = VerifyProgramAddress(addr, bump-1, program, []byte("authority-seed"))
	require.ErrorIs(t, err, ErrBumpNotCanonical)
}

func TestCreateProgramAddressSeedLimits(t *testing.T) {
	program := AddressFromLabel("mountbreed/test-program")

	_, err := CreateProgramAddress(program, make([]byte, MaxSeedLength+1))
	require.ErrorIs(t, err, ErrSeedTooLong)

	seeds := make([][]byte, MaxSeeds+1)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, err = CreateProgramAddress(program, seeds...)
	require.ErrorIs(t, err, ErrTooManySeeds)
}

func TestWalletAddressesAreOnCurve(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	addr := key.Address()
	require.True(t, IsOnCurve(addr[:]))
}
