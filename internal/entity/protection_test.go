package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tp(t time.Time) *time.Time { return &t }

// registeredLead returns a lead registered on the given day with no activity yet.
func registeredLead(t *testing.T, registered time.Time) *Lead {
	t.Helper()
	lead := NewLead("user-1", "owner@example.com", "ACME GmbH", registered.Add(-2*Day))
	next, err := DocumentFirstContact(lead, "Erika Mustermann", lead.Version, registered)
	require.NoError(t, err)
	return next
}

func TestComputeProtection_NoDeadlineIsProtected(t *testing.T) {
	lead := NewLead("user-1", "", "ACME", date(2025, 1, 1))

	p, err := ComputeProtection(lead, date(2025, 6, 1))

	require.NoError(t, err)
	assert.Equal(t, ProtectionProtected, p.Status)
	assert.Nil(t, p.DaysUntilExpiry)
	assert.Empty(t, p.WarningMessage)
}

func TestComputeProtection_WarningFiftyFiveDaysAfterRegistration(t *testing.T) {
	lead := registeredLead(t, date(2025, 1, 1))

	p, err := ComputeProtection(lead, date(2025, 2, 25))

	require.NoError(t, err)
	require.NotNil(t, p.DaysUntilExpiry)
	assert.Equal(t, 5, *p.DaysUntilExpiry)
	assert.Equal(t, ProtectionWarning, p.Status)
	assert.Contains(t, p.WarningMessage, "5 day")
}

func TestComputeProtection_ExpiredSixtyThreeDaysAfterRegistration(t *testing.T) {
	lead := registeredLead(t, date(2025, 1, 1))

	p, err := ComputeProtection(lead, date(2025, 3, 5))

	require.NoError(t, err)
	assert.Equal(t, ProtectionExpired, p.Status)
	assert.Equal(t, -3, *p.DaysUntilExpiry)
	assert.Contains(t, p.WarningMessage, "60")
}

func TestComputeProtection_Thresholds(t *testing.T) {
	deadline := date(2025, 3, 2)
	cases := []struct {
		name   string
		now    time.Time
		days   int
		status ProtectionStatus
	}{
		{"eight days left", deadline.Add(-8 * Day), 8, ProtectionProtected},
		{"exactly seven days", deadline.Add(-7 * Day), 7, ProtectionWarning},
		{"partial day rounds up", deadline.Add(-7*Day - time.Hour), 8, ProtectionProtected},
		{"one hour left", deadline.Add(-time.Hour), 1, ProtectionWarning},
		{"deadline instant", deadline, 0, ProtectionExpired},
		{"long past", deadline.Add(30 * Day), -30, ProtectionExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lead := &Lead{ProgressDeadline: tp(deadline)}
			p, err := ComputeProtection(lead, tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.status, p.Status)
			assert.Equal(t, tc.days, *p.DaysUntilExpiry)
		})
	}
}

func TestComputeProtection_WarningSentHoldsWarning(t *testing.T) {
	now := date(2025, 2, 1)
	lead := &Lead{
		ProgressDeadline:      tp(now.Add(40 * Day)),
		ProgressWarningSentAt: tp(now.Add(-3 * Day)),
	}

	p, err := ComputeProtection(lead, now)

	require.NoError(t, err)
	assert.Equal(t, ProtectionWarning, p.Status)
	assert.Contains(t, p.WarningMessage, "already sent")
	assert.Equal(t, 40, *p.DaysUntilExpiry)
}

func TestComputeProtection_WarningSentHoldLapsesAfterSevenDays(t *testing.T) {
	now := date(2025, 2, 1)
	lead := &Lead{
		ProgressDeadline:      tp(now.Add(40 * Day)),
		ProgressWarningSentAt: tp(now.Add(-8 * Day)),
	}

	p, err := ComputeProtection(lead, now)

	require.NoError(t, err)
	assert.Equal(t, ProtectionProtected, p.Status)
}

func TestComputeProtection_WarningSentNeverLoosensExpired(t *testing.T) {
	now := date(2025, 2, 1)
	lead := &Lead{
		ProgressDeadline:      tp(now.Add(-Day)),
		ProgressWarningSentAt: tp(now.Add(-Day)),
	}

	p, err := ComputeProtection(lead, now)

	require.NoError(t, err)
	assert.Equal(t, ProtectionExpired, p.Status)
}

func TestComputeProtection_Idempotent(t *testing.T) {
	lead := registeredLead(t, date(2025, 1, 1))
	now := date(2025, 2, 27)

	first, err := ComputeProtection(lead, now)
	require.NoError(t, err)
	second, err := ComputeProtection(lead, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeProtection_MonotonicAsDeadlineApproaches(t *testing.T) {
	lead := registeredLead(t, date(2025, 1, 1))
	rank := map[ProtectionStatus]int{ProtectionProtected: 0, ProtectionWarning: 1, ProtectionExpired: 2}

	prev := -1
	for now := date(2025, 1, 1); now.Before(date(2025, 3, 20)); now = now.Add(6 * time.Hour) {
		p, err := ComputeProtection(lead, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rank[p.Status], prev, "status loosened at %s", now)
		prev = rank[p.Status]
	}
}

func TestComputeProtection_InvalidTimestamps(t *testing.T) {
	now := date(2025, 2, 1)
	cases := map[string]*Lead{
		"zero deadline":         {ProgressDeadline: tp(time.Time{})},
		"deadline before start": {RegisteredAt: tp(now), ProgressDeadline: tp(now.Add(-Day))},
		"warning in future":     {ProgressDeadline: tp(now.Add(30 * Day)), ProgressWarningSentAt: tp(now.Add(Day))},
	}
	for name, lead := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeProtection(lead, now)
			var tsErr *InvalidTimestampError
			assert.True(t, errors.As(err, &tsErr))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("registered_at", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 1), got)

	got, err = ParseTimestamp("registered_at", "2025-01-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC), got)

	_, err = ParseTimestamp("registered_at", "01/02/2025")
	var tsErr *InvalidTimestampError
	require.True(t, errors.As(err, &tsErr))
	assert.Equal(t, "registered_at", tsErr.Field)
}

func TestComputePreClaim(t *testing.T) {
	lead := NewLead("user-1", "", "ACME", date(2025, 1, 1))

	status, err := ComputePreClaim(lead, date(2025, 1, 4))
	require.NoError(t, err)
	assert.Equal(t, 7, status.DaysRemaining)
	assert.False(t, status.Overdue)

	status, err = ComputePreClaim(lead, date(2025, 1, 12))
	require.NoError(t, err)
	assert.True(t, status.Overdue)
	assert.Equal(t, StatusPreClaim, lead.State.Status, "overdue pre-claim is advisory only")
}

func TestComputePreClaim_RegisteredLeadHasNoWindow(t *testing.T) {
	lead := registeredLead(t, date(2025, 1, 1))

	status, err := ComputePreClaim(lead, date(2025, 1, 20))

	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestEffectiveStatus_DerivesExpiryWithoutMutating(t *testing.T) {
	lead := registeredLead(t, date(2025, 1, 1))

	state, err := EffectiveStatus(lead, date(2025, 3, 5))

	require.NoError(t, err)
	assert.Equal(t, StatusExpired, state.Status)
	assert.Equal(t, StatusRegistered, lead.State.Status)
}

func TestEffectiveStatus_LostIsUntouched(t *testing.T) {
	lead := registeredLead(t, date(2025, 1, 1))
	lost, err := Transition(lead, StatusLost, lead.Version, date(2025, 1, 10))
	require.NoError(t, err)

	state, err := EffectiveStatus(lost, date(2025, 6, 1))

	require.NoError(t, err)
	assert.Equal(t, StatusLost, state.Status)
}
