package models

import (
	"testing"
	"time"
)

func TestReferenceRequestIsValid(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending and unexpired", func(t *testing.T) {
		req := &ReferenceRequest{Status: RequestStatusPending, ExpiresAt: now.Add(time.Hour)}
		if !req.IsValid(now) {
			t.Error("expected valid")
		}
		if req.Status != RequestStatusPending {
			t.Errorf("status changed to %q", req.Status)
		}
	})

	t.Run("past deadline flips to expired", func(t *testing.T) {
		req := &ReferenceRequest{Status: RequestStatusPending, ExpiresAt: now.Add(-time.Minute)}
		if req.IsValid(now) {
			t.Error("expected invalid")
		}
		if req.Status != RequestStatusExpired {
			t.Errorf("expected status expired, got %q", req.Status)
		}
		// Repeated checks converge on the same answer.
		if req.IsValid(now) {
			t.Error("expected invalid on second check")
		}
		if req.Status != RequestStatusExpired {
			t.Errorf("expected status to stay expired, got %q", req.Status)
		}
	})

	t.Run("completed is never valid", func(t *testing.T) {
		req := &ReferenceRequest{Status: RequestStatusCompleted, ExpiresAt: now.Add(time.Hour)}
		if req.IsValid(now) {
			t.Error("expected invalid")
		}
		if req.Status != RequestStatusCompleted {
			t.Errorf("completed status must not change, got %q", req.Status)
		}
	})
}

func TestSurveyRequestIsValid(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending and unexpired", func(t *testing.T) {
		req := &SurveyRequest{Status: RequestStatusPending, ExpiresAt: now.Add(TokenTTL)}
		if !req.IsValid(now) {
			t.Error("expected valid")
		}
	})

	t.Run("expires exactly at deadline boundary", func(t *testing.T) {
		req := &SurveyRequest{Status: RequestStatusPending, ExpiresAt: now}
		// Not after the deadline yet.
		if !req.IsValid(now) {
			t.Error("expected valid at the boundary")
		}
		if req.IsValid(now.Add(time.Second)) {
			t.Error("expected invalid past the boundary")
		}
		if req.Status != RequestStatusExpired {
			t.Errorf("expected status expired, got %q", req.Status)
		}
	})

	t.Run("superseded request is invalid without mutation", func(t *testing.T) {
		req := &SurveyRequest{Status: RequestStatusExpired, ExpiresAt: now.Add(time.Hour)}
		if req.IsValid(now) {
			t.Error("expected invalid")
		}
		if req.Status != RequestStatusExpired {
			t.Errorf("status changed to %q", req.Status)
		}
	})
}

func TestCandidateGetSignal(t *testing.T) {
	score := func(n int) *int { return &n }

	tests := []struct {
		name      string
		refs      []Reference
		wantLabel string
		wantScore *int
	}{
		{
			name:      "no completed references",
			refs:      []Reference{{Status: ReferenceStatusPending}},
			wantLabel: "No Data",
		},
		{
			name: "strong average",
			refs: []Reference{
				{Status: ReferenceStatusCompleted, Score: score(80)},
				{Status: ReferenceStatusCompleted, Score: score(90)},
			},
			wantLabel: "Strong",
			wantScore: score(85),
		},
		{
			name: "moderate at threshold",
			refs: []Reference{
				{Status: ReferenceStatusCompleted, Score: score(55)},
			},
			wantLabel: "Moderate",
			wantScore: score(55),
		},
		{
			name: "concerns below threshold",
			refs: []Reference{
				{Status: ReferenceStatusCompleted, Score: score(54)},
			},
			wantLabel: "Concerns",
			wantScore: score(54),
		},
		{
			name: "incomplete references excluded from average",
			refs: []Reference{
				{Status: ReferenceStatusCompleted, Score: score(80)},
				{Status: ReferenceStatusNoAnswer, Score: score(0)},
				{Status: ReferenceStatusCompleted}, // completed but unscored
			},
			wantLabel: "Strong",
			wantScore: score(80),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Candidate{References: tt.refs}
			sig := c.GetSignal()
			if sig.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", sig.Label, tt.wantLabel)
			}
			if (sig.Score == nil) != (tt.wantScore == nil) {
				t.Fatalf("score presence mismatch: got %v, want %v", sig.Score, tt.wantScore)
			}
			if sig.Score != nil && *sig.Score != *tt.wantScore {
				t.Errorf("score = %d, want %d", *sig.Score, *tt.wantScore)
			}
		})
	}
}

func TestReferenceSMSConversation(t *testing.T) {
	r := &Reference{}
	r.AppendSMSMessage("outbound", "Is there a better time to call you back?")
	r.AppendSMSMessage("inbound", "Tomorrow at 3pm EST")

	log := r.SMSConversationLog()
	if len(log) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(log))
	}
	if log[0].Direction != "outbound" || log[1].Direction != "inbound" {
		t.Errorf("unexpected directions: %+v", log)
	}
	if log[1].Message != "Tomorrow at 3pm EST" {
		t.Errorf("unexpected message %q", log[1].Message)
	}
}

func TestCandidateGetReferenceProgress(t *testing.T) {
	c := &Candidate{References: []Reference{
		{Status: ReferenceStatusCompleted},
		{Status: ReferenceStatusNoAnswer},
		{Status: ReferenceStatusPending},
	}}

	p := c.GetReferenceProgress()
	if p.Total != 3 || p.Completed != 1 {
		t.Errorf("progress = %+v, expected 1/3", p)
	}

	// Adding a pending reference grows the total without touching completed.
	c.References = append(c.References, Reference{Status: ReferenceStatusPending})
	p = c.GetReferenceProgress()
	if p.Total != 4 || p.Completed != 1 {
		t.Errorf("progress = %+v, expected 1/4", p)
	}
}
