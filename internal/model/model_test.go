package model

import (
	"testing"
	"time"
)

func TestDocumentContentTotal(t *testing.T) {
	content := DocumentContent{
		Items: []LineItem{
			{Description: "Consulting", Quantity: 2, Price: 50},
			{Description: "Materials", Quantity: 1, Price: 25},
			{Description: "", Quantity: 10, Price: 100},
		},
	}
	if got := content.Total(); got != 125.00 {
		t.Fatalf("Total() = %v, want 125.00", got)
	}
}

func TestDocumentContentNormalize(t *testing.T) {
	content := DocumentContent{
		Items: []LineItem{
			{Description: "Kept", Quantity: 1, Price: 10},
			{Description: "", Quantity: 5, Price: 5},
			{Description: "Also kept", Quantity: 2, Price: 3},
		},
	}
	content.Normalize()

	if len(content.Items) != 2 {
		t.Fatalf("Normalize() left %d items, want 2", len(content.Items))
	}
	if content.Items[0].Description != "Kept" || content.Items[1].Description != "Also kept" {
		t.Fatalf("Normalize() kept wrong items: %+v", content.Items)
	}
}

func TestDocumentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to DocumentStatus
		want     bool
	}{
		{StatusDraft, StatusPublished, true},
		{StatusDraft, StatusArchived, true},
		{StatusPublished, StatusArchived, true},
		{StatusPublished, StatusDraft, false},
		{StatusArchived, StatusPublished, false},
		{StatusArchived, StatusDraft, false},
		// Resubmitting the current status is a no-op, not a violation.
		{StatusDraft, StatusDraft, true},
		{StatusPublished, StatusPublished, true},
		{StatusArchived, StatusArchived, true},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestDefaultDocumentStatus(t *testing.T) {
	if got := DefaultDocumentStatus(DocInvoice); got != StatusDraft {
		t.Errorf("invoice starts as %s, want draft", got)
	}
	if got := DefaultDocumentStatus(DocReceipt); got != StatusPublished {
		t.Errorf("receipt starts as %s, want published", got)
	}
}

func TestPassStatusTransitions(t *testing.T) {
	terminal := []PassStatus{PassUsed, PassExpired, PassCancelled}
	for _, next := range terminal {
		if !PassActive.CanTransition(next) {
			t.Errorf("active pass should transition to %s", next)
		}
	}
	for _, from := range terminal {
		for _, next := range []PassStatus{PassActive, PassUsed, PassExpired, PassCancelled} {
			if from.CanTransition(next) {
				t.Errorf("%s pass must not transition to %s", from, next)
			}
		}
	}
}

func TestEvaluateScan(t *testing.T) {
	now := time.Now()
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	cases := []struct {
		name       string
		pass       EntryPass
		wantOK     bool
		wantReason string
	}{
		{
			name:       "active inside window",
			pass:       EntryPass{Status: PassActive, ValidFrom: &before, ValidUntil: &after},
			wantOK:     true,
			wantReason: ScanAccepted,
		},
		{
			name:       "active without window",
			pass:       EntryPass{Status: PassActive},
			wantOK:     true,
			wantReason: ScanAccepted,
		},
		{
			name:       "not yet valid",
			pass:       EntryPass{Status: PassActive, ValidFrom: &after},
			wantOK:     false,
			wantReason: ScanRejectedEarly,
		},
		{
			name:       "past window",
			pass:       EntryPass{Status: PassActive, ValidUntil: &before},
			wantOK:     false,
			wantReason: ScanRejectedLate,
		},
		{
			name:       "used pass",
			pass:       EntryPass{Status: PassUsed, ValidFrom: &before, ValidUntil: &after},
			wantOK:     false,
			wantReason: ScanRejectedStatus,
		},
		{
			name:       "cancelled pass inside window",
			pass:       EntryPass{Status: PassCancelled, ValidFrom: &before, ValidUntil: &after},
			wantOK:     false,
			wantReason: ScanRejectedStatus,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ok, reason := c.pass.EvaluateScan(now)
			if ok != c.wantOK || reason != c.wantReason {
				t.Fatalf("EvaluateScan() = (%v, %s), want (%v, %s)", ok, reason, c.wantOK, c.wantReason)
			}
		})
	}
}
