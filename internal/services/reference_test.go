package services

import (
	"testing"

	"github.com/edest28/RefCheck-3/internal/models"
)

func TestCallUnsuccessful_EndedReasons(t *testing.T) {
	svc := &ReferenceService{}
	longTranscript := make([]byte, 200)
	for i := range longTranscript {
		longTranscript[i] = 'a'
	}
	transcript := string(longTranscript)

	tests := []struct {
		reason       string
		unsuccessful bool
	}{
		{"customer-did-not-answer", true},
		{"voicemail", true},
		{"customer-busy", true},
		{"twilio-failed-to-connect-call", true},
		{"assistant-error", true},
		{"silence-timed-out", false},
		{"customer-ended-call", false},
		{"assistant-ended-call", false},
		{"", false},
	}

	for _, tt := range tests {
		got := svc.callUnsuccessful(tt.reason, transcript)
		if got != tt.unsuccessful {
			t.Errorf("callUnsuccessful(%q) = %v, expected %v", tt.reason, got, tt.unsuccessful)
		}
	}
}

func TestCallUnsuccessful_ReasonMatchIsSubstring(t *testing.T) {
	svc := &ReferenceService{}
	if !svc.callUnsuccessful("call ended: Customer-Did-Not-Answer (carrier)", "long enough transcript to not matter here, padded out to pass the length check easily............") {
		t.Error("expected substring match on unsuccessful reason, case insensitive")
	}
}

func TestCallUnsuccessful_ShortTranscript(t *testing.T) {
	svc := &ReferenceService{}

	// A short transcript means nobody really talked, unless the reason
	// says the other side hung up.
	if !svc.callUnsuccessful("customer-ended-call", "Hello?") {
		t.Error("short transcript without hangup should be unsuccessful")
	}
	if svc.callUnsuccessful("customer-hangup", "Hello?") {
		t.Error("short transcript with hangup reason should count as answered")
	}
}

func TestJobForReference_MatchesJobID(t *testing.T) {
	jobID := "job-2"
	candidate := &models.Candidate{
		Jobs: []models.Job{
			{ID: "job-1", Title: "Engineer", Order: 0},
			{ID: "job-2", Title: "Manager", Order: 1},
		},
	}
	ref := &models.Reference{JobID: &jobID}

	job := jobForReference(ref, candidate)
	if job == nil || job.ID != "job-2" {
		t.Fatalf("expected job-2, got %+v", job)
	}
}

func TestJobForReference_FallsBackToMostRecent(t *testing.T) {
	candidate := &models.Candidate{
		Jobs: []models.Job{
			{ID: "job-b", Title: "Older", Order: 1},
			{ID: "job-a", Title: "Most Recent", Order: 0},
		},
	}

	job := jobForReference(&models.Reference{}, candidate)
	if job == nil || job.ID != "job-a" {
		t.Fatalf("expected lowest-order job, got %+v", job)
	}
}

func TestJobForReference_NoJobs(t *testing.T) {
	if job := jobForReference(&models.Reference{}, &models.Candidate{}); job != nil {
		t.Errorf("expected nil for candidate without jobs, got %+v", job)
	}
}

func TestMarshalList(t *testing.T) {
	if got := marshalList(nil); got != "[]" {
		t.Errorf("marshalList(nil) = %q, expected %q", got, "[]")
	}
	if got := marshalList([]string{"a", "b"}); got != `["a","b"]` {
		t.Errorf("marshalList = %q", got)
	}
}
