package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestTenant_DaysRemainingInTrial(t *testing.T) {
	tests := []struct {
		name   string
		tenant Tenant
		want   int
	}{
		{
			name:   "no trial set",
			tenant: Tenant{},
			want:   0,
		},
		{
			name:   "trial expired",
			tenant: Tenant{TrialEndsAt: timePtr(time.Now().Add(-24 * time.Hour))},
			want:   0,
		},
		{
			name:   "ten days left",
			tenant: Tenant{TrialEndsAt: timePtr(time.Now().Add(10*24*time.Hour + time.Hour))},
			want:   10,
		},
		{
			name:   "under a day left",
			tenant: Tenant{TrialEndsAt: timePtr(time.Now().Add(3 * time.Hour))},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tenant.DaysRemainingInTrial())
		})
	}
}

func TestTenant_IsSubscriptionValid(t *testing.T) {
	future := timePtr(time.Now().Add(7 * 24 * time.Hour))
	past := timePtr(time.Now().Add(-7 * 24 * time.Hour))

	tests := []struct {
		name   string
		tenant Tenant
		want   bool
	}{
		{
			name:   "active subscription",
			tenant: Tenant{IsActive: true, SubscriptionStatus: SubscriptionActive},
			want:   true,
		},
		{
			name:   "trialing with time left",
			tenant: Tenant{IsActive: true, SubscriptionStatus: SubscriptionTrialing, TrialEndsAt: future},
			want:   true,
		},
		{
			name:   "trialing with no end date",
			tenant: Tenant{IsActive: true, SubscriptionStatus: SubscriptionTrialing},
			want:   true,
		},
		{
			name:   "trial expired",
			tenant: Tenant{IsActive: true, SubscriptionStatus: SubscriptionTrialing, TrialEndsAt: past},
			want:   false,
		},
		{
			name:   "past due",
			tenant: Tenant{IsActive: false, SubscriptionStatus: SubscriptionPastDue},
			want:   false,
		},
		{
			name:   "canceled",
			tenant: Tenant{IsActive: false, SubscriptionStatus: SubscriptionCanceled},
			want:   false,
		},
		{
			name:   "deactivated tenant with active status",
			tenant: Tenant{IsActive: false, SubscriptionStatus: SubscriptionActive},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tenant.IsSubscriptionValid())
		})
	}
}
