package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestZeroValueUsesDefaults(t *testing.T) {
	var to Timeouts
	ctx, cancel := to.MediumCtx(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("MediumCtx on zero Timeouts has no deadline")
	}
	if remaining := time.Until(deadline); remaining > DefaultMedium || remaining < DefaultMedium-time.Second {
		t.Errorf("deadline in %v, want about %v", remaining, DefaultMedium)
	}
}

func TestNegativeDisablesTimeout(t *testing.T) {
	to := Timeouts{Long: -1}
	ctx, cancel := to.LongCtx(context.Background())
	defer cancel()

	if _, ok := ctx.Deadline(); ok {
		t.Error("negative Long should not set a deadline")
	}
}

func TestScaled(t *testing.T) {
	to := Defaults().Scaled(30 * time.Second)
	if to.Short != 10*time.Second || to.Medium != 30*time.Second || to.Long != time.Minute {
		t.Errorf("Scaled(30s) = %+v", to)
	}
	if to.Store != DefaultStore {
		t.Errorf("Scaled changed Store to %v", to.Store)
	}

	same := Defaults().Scaled(0)
	if same != Defaults() {
		t.Errorf("Scaled(0) = %+v, want defaults", same)
	}
}
