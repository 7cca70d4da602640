package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testResetGuild  = "guild-1"
	testResetMember = "member-1"
)

func clearPendingResets(t *testing.T) {
	t.Helper()
	pendingResetMut.Lock()
	pendingResets = make(map[string]pendingReset)
	pendingResetMut.Unlock()
}

func TestTakePendingResetValid(t *testing.T) {
	clearPendingResets(t)

	armPendingReset(testResetGuild, testResetMember)

	require.True(t, takePendingReset(testResetGuild, testResetMember))

	// The confirmation is single use.
	require.False(t, takePendingReset(testResetGuild, testResetMember))
}

func TestTakePendingResetExpired(t *testing.T) {
	clearPendingResets(t)

	pendingResetMut.Lock()
	pendingResets[testResetGuild] = pendingReset{
		requesterID: testResetMember,
		expires:     time.Now().Add(-time.Second),
	}
	pendingResetMut.Unlock()

	require.False(t, takePendingReset(testResetGuild, testResetMember))
}

func TestTakePendingResetWrongMember(t *testing.T) {
	clearPendingResets(t)

	armPendingReset(testResetGuild, testResetMember)

	require.False(t, takePendingReset(testResetGuild, "member-2"))

	// The failed claim consumed the confirmation, so the requester cannot
	// confirm afterwards either.
	require.False(t, takePendingReset(testResetGuild, testResetMember))
}

func TestTakePendingResetCancelled(t *testing.T) {
	clearPendingResets(t)

	armPendingReset(testResetGuild, testResetMember)
	cancelPendingReset(testResetGuild)

	require.False(t, takePendingReset(testResetGuild, testResetMember))
}

func TestTakePendingResetNone(t *testing.T) {
	clearPendingResets(t)

	require.False(t, takePendingReset(testResetGuild, testResetMember))
}

func TestTakePendingResetOtherGuildUnaffected(t *testing.T) {
	clearPendingResets(t)

	armPendingReset(testResetGuild, testResetMember)
	armPendingReset("guild-2", testResetMember)

	require.True(t, takePendingReset(testResetGuild, testResetMember))
	require.True(t, takePendingReset("guild-2", testResetMember))
}

func TestCatalogValueError(t *testing.T) {
	// Slot overrides have a floor of one, a stored zero would advertise a
	// capacity no session can have.
	require.NotEmpty(t, catalogValueError(0, 1))
	require.NotEmpty(t, catalogValueError(-1, 1))
	require.Empty(t, catalogValueError(1, 1))
	require.Empty(t, catalogValueError(6, 1))

	// Point overrides accept zero.
	require.Empty(t, catalogValueError(0, 0))
	require.NotEmpty(t, catalogValueError(-1, 0))
}
