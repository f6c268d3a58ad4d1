package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Candidate{}, &models.Job{}, &models.Reference{},
		&models.ReferenceRequest{}, &models.SurveyRequest{},
		&models.SurveyQuestion{}, &models.SurveyResponse{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakeVapi stands in for the call provider. It counts placed calls and
// serves a configurable call record.
type fakeVapi struct {
	mu          sync.Mutex
	placed      int
	status      string
	endedReason string
	transcript  string
}

func (f *fakeVapi) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /call", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.placed++
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"call-123"}`))
	})
	mux.HandleFunc("GET /call/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"status":      f.status,
			"endedReason": f.endedReason,
			"artifact":    map[string]any{"transcript": f.transcript},
		})
	})
	return mux
}

func (f *fakeVapi) placedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placed
}

func (f *fakeVapi) setTranscript(transcript string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcript = transcript
}

func newFakeVapi(t *testing.T) (*fakeVapi, *VapiService) {
	t.Helper()
	fake := &fakeVapi{status: "ended"}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	voice := NewVapiService(&config.VapiConfig{
		APIKey:        "test-key",
		PhoneNumberID: "pn-1",
		BaseURL:       srv.URL,
	})
	return fake, voice
}

// Providers without credentials degrade gracefully, which is exactly what
// these tests rely on: state transitions persist while sends are skipped.
func newTestCallbackService(db *gorm.DB, voice *VapiService) *CallbackService {
	return NewCallbackService(db,
		NewLLMService(&config.LLMConfig{}),
		NewTwilioService(&config.TwilioConfig{}),
		voice)
}

func newTestReferenceService(db *gorm.DB, voice *VapiService) *ReferenceService {
	return NewReferenceService(db,
		NewLLMService(&config.LLMConfig{}),
		voice,
		NewTwilioService(&config.TwilioConfig{}),
		&config.Config{})
}

func seedCandidate(t *testing.T, db *gorm.DB, withJob bool) *models.Candidate {
	t.Helper()
	candidate := &models.Candidate{
		Name:   "Jane Doe",
		Status: models.CandidateStatusInProgress,
	}
	if err := db.Create(candidate).Error; err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	if withJob {
		job := &models.Job{CandidateID: candidate.ID, Company: "Acme Corp", Title: "Engineer"}
		if err := db.Create(job).Error; err != nil {
			t.Fatalf("create job: %v", err)
		}
	}
	return candidate
}

func seedReference(t *testing.T, db *gorm.DB, candidateID string, mutate func(*models.Reference)) *models.Reference {
	t.Helper()
	ref := &models.Reference{
		CandidateID:    candidateID,
		Name:           "John Smith",
		Phone:          "+15551234567",
		Status:         models.ReferenceStatusPending,
		CallbackStatus: models.CallbackNone,
	}
	if mutate != nil {
		mutate(ref)
	}
	if err := db.Create(ref).Error; err != nil {
		t.Fatalf("create reference: %v", err)
	}
	return ref
}

func reloadReference(t *testing.T, db *gorm.DB, id string) *models.Reference {
	t.Helper()
	var ref models.Reference
	if err := db.First(&ref, "id = ?", id).Error; err != nil {
		t.Fatalf("reload reference: %v", err)
	}
	return &ref
}

func TestProcessScheduledCallbacksPlacesCallOnce(t *testing.T) {
	db := newTestDB(t)
	fake, voice := newFakeVapi(t)
	svc := newTestCallbackService(db, voice)

	candidate := seedCandidate(t, db, true)
	due := time.Now().UTC().Add(-time.Minute)
	ref := seedReference(t, db, candidate.ID, func(r *models.Reference) {
		r.Status = models.ReferenceStatusScheduled
		r.CallbackStatus = models.CallbackConfirmed
		r.CallbackScheduledTime = &due
	})

	result, err := svc.ProcessScheduledCallbacks(context.Background())
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("first sweep processed = %d, expected 1", result.Processed)
	}
	if fake.placedCalls() != 1 {
		t.Fatalf("placed calls = %d, expected 1", fake.placedCalls())
	}

	got := reloadReference(t, db, ref.ID)
	if got.CallbackStatus != models.CallbackCompleted {
		t.Errorf("callback status = %q, expected %q", got.CallbackStatus, models.CallbackCompleted)
	}
	if got.Status != models.ReferenceStatusCalling {
		t.Errorf("status = %q, expected %q", got.Status, models.ReferenceStatusCalling)
	}
	if got.CallID != "call-123" {
		t.Errorf("call id = %q", got.CallID)
	}

	// A second sweep must not dial the same reference again.
	result, err = svc.ProcessScheduledCallbacks(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("second sweep processed = %d, expected 0", result.Processed)
	}
	if fake.placedCalls() != 1 {
		t.Errorf("placed calls after second sweep = %d, expected 1", fake.placedCalls())
	}
}

func TestProcessScheduledCallbacksSkipsWithoutJob(t *testing.T) {
	db := newTestDB(t)
	fake, voice := newFakeVapi(t)
	svc := newTestCallbackService(db, voice)

	candidate := seedCandidate(t, db, false)
	due := time.Now().UTC().Add(-time.Minute)
	ref := seedReference(t, db, candidate.ID, func(r *models.Reference) {
		r.CallbackStatus = models.CallbackConfirmed
		r.CallbackScheduledTime = &due
	})

	result, err := svc.ProcessScheduledCallbacks(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("processed = %d, expected 0", result.Processed)
	}
	if fake.placedCalls() != 0 {
		t.Errorf("placed calls = %d, expected 0", fake.placedCalls())
	}

	got := reloadReference(t, db, ref.ID)
	if got.CallbackStatus != models.CallbackCompleted {
		t.Errorf("callback status = %q, expected %q", got.CallbackStatus, models.CallbackCompleted)
	}
	if !strings.Contains(got.Notes, "Callback skipped: no job info") {
		t.Errorf("notes = %q", got.Notes)
	}
}

func TestProcessScheduledCallbacksExpiresStalledConversations(t *testing.T) {
	db := newTestDB(t)
	_, voice := newFakeVapi(t)
	svc := newTestCallbackService(db, voice)

	candidate := seedCandidate(t, db, true)
	expires := time.Now().UTC().Add(-time.Hour)
	ref := seedReference(t, db, candidate.ID, func(r *models.Reference) {
		r.Status = models.ReferenceStatusNoAnswer
		r.CallbackStatus = models.CallbackAwaitingReply
		r.CallbackExpiresAt = &expires
	})

	result, err := svc.ProcessScheduledCallbacks(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Expired != 1 {
		t.Fatalf("expired = %d, expected 1", result.Expired)
	}

	got := reloadReference(t, db, ref.ID)
	if got.CallbackStatus != models.CallbackExpired {
		t.Errorf("callback status = %q, expected %q", got.CallbackStatus, models.CallbackExpired)
	}
	if !strings.Contains(got.Notes, "Callback expired: no confirmation within 24 hours") {
		t.Errorf("notes = %q", got.Notes)
	}

	// Already-expired conversations are not expired again.
	result, err = svc.ProcessScheduledCallbacks(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if result.Expired != 0 {
		t.Errorf("second sweep expired = %d, expected 0", result.Expired)
	}
}

func TestHandleInboundSMSConfirmsProposedTime(t *testing.T) {
	db := newTestDB(t)
	_, voice := newFakeVapi(t)
	svc := newTestCallbackService(db, voice)

	candidate := seedCandidate(t, db, true)
	proposed := time.Now().UTC().Add(48 * time.Hour)
	ref := seedReference(t, db, candidate.ID, func(r *models.Reference) {
		r.Status = models.ReferenceStatusNoAnswer
		r.CallbackStatus = models.CallbackTimeProposed
		r.CallbackScheduledTime = &proposed
		r.CallbackTimezone = "EST"
	})

	if err := svc.HandleInboundSMS(context.Background(), "+15551234567", "yes"); err != nil {
		t.Fatalf("inbound sms: %v", err)
	}

	got := reloadReference(t, db, ref.ID)
	if got.CallbackStatus != models.CallbackConfirmed {
		t.Errorf("callback status = %q, expected %q", got.CallbackStatus, models.CallbackConfirmed)
	}
	if got.SMSResponse != "yes" {
		t.Errorf("sms response = %q", got.SMSResponse)
	}
	log := got.SMSConversationLog()
	if len(log) == 0 || log[0].Direction != "inbound" || log[0].Message != "yes" {
		t.Errorf("conversation log = %+v", log)
	}
}

func TestProcessCallOutcomeCompletedCall(t *testing.T) {
	db := newTestDB(t)
	fake, voice := newFakeVapi(t)
	svc := newTestReferenceService(db, voice)

	transcript := "AI: Am I speaking with John Smith? User: Yes, this is John. " +
		strings.Repeat("We worked together at Acme for three years. ", 3)
	fake.endedReason = "customer-ended-call"
	fake.setTranscript(transcript)

	candidate := seedCandidate(t, db, true)
	ref := seedReference(t, db, candidate.ID, func(r *models.Reference) {
		r.Status = models.ReferenceStatusCalling
		r.CallID = "call-123"
	})

	task := &CallTask{ReferenceID: ref.ID, CallID: "call-123"}
	if err := svc.ProcessCallOutcome(context.Background(), task); err != nil {
		t.Fatalf("process outcome: %v", err)
	}

	got := reloadReference(t, db, ref.ID)
	if got.Status != models.ReferenceStatusCompleted {
		t.Fatalf("status = %q, expected %q", got.Status, models.ReferenceStatusCompleted)
	}
	if got.Transcript != transcript {
		t.Errorf("transcript not saved")
	}
	if got.CompletedAt == nil {
		t.Errorf("completed_at not set")
	}

	// The only reference is terminal, so the candidate rolls up.
	var gotCandidate models.Candidate
	if err := db.First(&gotCandidate, "id = ?", candidate.ID).Error; err != nil {
		t.Fatalf("reload candidate: %v", err)
	}
	if gotCandidate.Status != models.CandidateStatusCompleted {
		t.Errorf("candidate status = %q, expected %q", gotCandidate.Status, models.CandidateStatusCompleted)
	}

	// A redelivered task for an already-terminal reference changes nothing.
	fake.setTranscript("a completely different transcript that should never be recorded")
	if err := svc.ProcessCallOutcome(context.Background(), task); err != nil {
		t.Fatalf("redelivered outcome: %v", err)
	}
	got = reloadReference(t, db, ref.ID)
	if got.Transcript != transcript {
		t.Errorf("redelivery overwrote the recorded transcript")
	}
}

func TestProcessCallOutcomeVoicemail(t *testing.T) {
	db := newTestDB(t)
	fake, voice := newFakeVapi(t)
	svc := newTestReferenceService(db, voice)

	fake.endedReason = "voicemail"

	candidate := seedCandidate(t, db, true)
	ref := seedReference(t, db, candidate.ID, func(r *models.Reference) {
		r.Status = models.ReferenceStatusCalling
		r.CallID = "call-123"
	})

	task := &CallTask{ReferenceID: ref.ID, CallID: "call-123"}
	if err := svc.ProcessCallOutcome(context.Background(), task); err != nil {
		t.Fatalf("process outcome: %v", err)
	}

	got := reloadReference(t, db, ref.ID)
	if got.Status != models.ReferenceStatusNoAnswer {
		t.Errorf("status = %q, expected %q", got.Status, models.ReferenceStatusNoAnswer)
	}
	if !strings.Contains(got.Notes, "Call unsuccessful: voicemail") {
		t.Errorf("notes = %q", got.Notes)
	}
}

func TestFinishCandidateWaitsForPendingReferences(t *testing.T) {
	db := newTestDB(t)
	fake, voice := newFakeVapi(t)
	svc := newTestReferenceService(db, voice)

	fake.endedReason = "customer-ended-call"
	fake.setTranscript(strings.Repeat("A long enough conversation about the candidate. ", 4))

	candidate := seedCandidate(t, db, true)
	ref := seedReference(t, db, candidate.ID, func(r *models.Reference) {
		r.Status = models.ReferenceStatusCalling
		r.CallID = "call-123"
	})
	seedReference(t, db, candidate.ID, nil) // second reference still pending

	task := &CallTask{ReferenceID: ref.ID, CallID: "call-123"}
	if err := svc.ProcessCallOutcome(context.Background(), task); err != nil {
		t.Fatalf("process outcome: %v", err)
	}

	var gotCandidate models.Candidate
	if err := db.First(&gotCandidate, "id = ?", candidate.ID).Error; err != nil {
		t.Fatalf("reload candidate: %v", err)
	}
	if gotCandidate.Status != models.CandidateStatusInProgress {
		t.Errorf("candidate status = %q, expected %q", gotCandidate.Status, models.CandidateStatusInProgress)
	}
}
