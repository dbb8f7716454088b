package secure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/api"
)

// TestWantEventsInterestTranslation exercises the bit-translation table
// secure.Transport's want-events feed into (spec §4.3): a want on read
// during a stalled accept must still resolve to OS-level read interest.
func TestWantEventsInterestTranslation(t *testing.T) {
	require.True(t, api.WantReadOnAccept.Interest().Readable())
	require.False(t, api.WantReadOnAccept.Interest().Writable())

	require.True(t, api.WantWriteOnRead.Interest().Writable())
	require.False(t, api.WantWriteOnRead.Interest().Readable())

	both := api.WantReadOnConnect | api.WantWriteOnConnect
	require.True(t, both.Interest().Readable())
	require.True(t, both.Interest().Writable())
}
