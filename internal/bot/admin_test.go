package bot

import (
	"testing"

	"partybot/internal/session"
)

const adminID int64 = 7

func TestPanelEntryDiscardsDraft(t *testing.T) {
	a, _ := newTestApp(adminID)
	a.wiz.Begin(adminID)

	if err := a.onAdminPanel(newFakeCtx(adminID, "")); err != nil {
		t.Fatalf("onAdminPanel: %v", err)
	}
	if _, ok := a.wiz.Draft(adminID); ok {
		t.Fatal("draft survived opening the panel")
	}
}

func TestPanelEntryClearsPendingInput(t *testing.T) {
	a, _ := newTestApp(adminID)
	a.sessions.SetPending(adminID, session.Pending{Kind: session.PendingBroadcast})

	if err := a.onAdminPanel(newFakeCtx(adminID, "")); err != nil {
		t.Fatalf("onAdminPanel: %v", err)
	}
	if p := a.sessions.Pending(adminID); p.Kind != session.PendingNone {
		t.Fatalf("pending = %v, want none", p.Kind)
	}

	// The next typed message must fall through to the unknown-text reply
	// instead of being sent to everyone.
	c := newFakeCtx(adminID, "hello all")
	if err := a.handleFlowText(c); err != nil {
		t.Fatalf("handleFlowText: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != textUnknownText {
		t.Fatalf("sent = %v, want %q", c.sent, textUnknownText)
	}
}

func TestPanelEntryDeniedForNonAdmin(t *testing.T) {
	a, _ := newTestApp(adminID)
	const stranger int64 = 5
	a.sessions.SetPending(stranger, session.Pending{Kind: session.PendingMemberLookup})

	c := newFakeCtx(stranger, "")
	if err := a.onAdminPanel(c); err != nil {
		t.Fatalf("onAdminPanel: %v", err)
	}
	if len(c.toasts) != 1 || c.toasts[0].Text != textNotPermitted {
		t.Fatalf("toasts = %v, want the not-permitted toast", c.toasts)
	}
	if p := a.sessions.Pending(stranger); p.Kind != session.PendingMemberLookup {
		t.Fatal("denied press must not touch session state")
	}
}
