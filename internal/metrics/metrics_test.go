package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	errKind := errors.New("widget missing")
	RegisterOutcome(errKind, "widget_missing")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil is ok", nil, "ok"},
		{"registered kind", errKind, "widget_missing"},
		{"wrapped kind", fmt.Errorf("lookup: %w", errKind), "widget_missing"},
		{"unknown error", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestRecordRelationshipMutation(t *testing.T) {
	before := testutil.ToFloat64(relationshipMutations.WithLabelValues("create", "ok"))
	RecordRelationshipMutation("create", nil)
	after := testutil.ToFloat64(relationshipMutations.WithLabelValues("create", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordInviteEvent(t *testing.T) {
	before := testutil.ToFloat64(inviteEvents.WithLabelValues("redeem", "error"))
	RecordInviteEvent("redeem", errors.New("boom"))
	after := testutil.ToFloat64(inviteEvents.WithLabelValues("redeem", "error"))
	assert.Equal(t, before+1, after)
}
