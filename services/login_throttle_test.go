package services

import (
	"context"
	"testing"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
)

func TestCooldownSecondsForFailCount(t *testing.T) {
	tests := []struct {
		failCount int
		want      int
	}{
		{0, 1},   // 2^0=1
		{1, 2},   // 2^1=2
		{2, 4},   // 2^2=4
		{3, 8},   // 2^3=8
		{4, 16},  // 2^4=16
		{5, 30},  // 2^5=32 -> cap 30
		{6, 30},  // 2^6=64 -> cap 30
		{10, 30}, // cap 30
	}
	for _, tt := range tests {
		got := CooldownSecondsForFailCount(tt.failCount)
		if got != tt.want {
			t.Errorf("CooldownSecondsForFailCount(%d) = %d, want %d", tt.failCount, got, tt.want)
		}
	}
}

// Integration tests for throttle (require DB). Skip if db.Pool is nil or -short.
func TestLoginThrottle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping throttle integration test in short mode")
	}
	if db.Pool == nil {
		t.Skip("skipping throttle integration test: no DB pool")
	}
	ctx := context.Background()
	const testAccountID int64 = 999999997
	role := CredentialRoleDriver

	defer func() {
		_ = RecordLoginSuccess(ctx, testAccountID, role)
	}()

	// Success resets cooldown.
	_ = RecordLoginSuccess(ctx, testAccountID, role)
	wait, err := LoginThrottleWaitSeconds(ctx, testAccountID, role)
	if err != nil {
		t.Fatalf("LoginThrottleWaitSeconds after success: %v", err)
	}
	if wait != 0 {
		t.Errorf("after success: wait = %d, want 0", wait)
	}

	// A failed attempt starts a cooldown within the cap.
	_ = RecordLoginFailed(ctx, testAccountID, role)
	wait, err = LoginThrottleWaitSeconds(ctx, testAccountID, role)
	if err != nil {
		t.Fatalf("LoginThrottleWaitSeconds after fail: %v", err)
	}
	if wait <= 0 {
		t.Errorf("after one fail: wait = %d, want > 0", wait)
	}
	if wait > ThrottleCooldownCapSeconds {
		t.Errorf("cooldown wait %d exceeds cap %d", wait, ThrottleCooldownCapSeconds)
	}

	// Once it expires, the account can try again.
	time.Sleep(time.Duration(wait+1) * time.Second)
	wait, _ = LoginThrottleWaitSeconds(ctx, testAccountID, role)
	if wait != 0 {
		t.Logf("after cooldown expired: wait = %d (expected 0)", wait)
	}

	// Fail then success resets the counter.
	_ = RecordLoginFailed(ctx, testAccountID, role)
	_ = RecordLoginSuccess(ctx, testAccountID, role)
	wait, _ = LoginThrottleWaitSeconds(ctx, testAccountID, role)
	if wait != 0 {
		t.Errorf("after fail then success: wait = %d, want 0", wait)
	}

	// The cooldown caps even after many failures.
	for i := 0; i < 8; i++ {
		_ = RecordLoginFailed(ctx, testAccountID, role)
	}
	wait, _ = LoginThrottleWaitSeconds(ctx, testAccountID, role)
	if wait > ThrottleCooldownCapSeconds {
		t.Errorf("after 8 fails: wait = %d, want <= %d", wait, ThrottleCooldownCapSeconds)
	}
}
