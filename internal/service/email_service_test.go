package service

import (
	"context"
	"testing"
)

func TestDisabledEmailServiceSkipsSend(t *testing.T) {
	svc, err := NewEmailService("us-east-1", "", "Family Tree", false)
	if err != nil {
		t.Fatalf("NewEmailService: %v", err)
	}
	if svc.IsEnabled() {
		t.Fatal("service without a sender address should be disabled")
	}

	var notifier InviteNotifier = svc
	if err := notifier.SendInviteEmail(context.Background(), "a@example.com", "Smith", "Family Member", "http://x/invite?token=t"); err != nil {
		t.Errorf("disabled service should not fail, got %v", err)
	}
}
