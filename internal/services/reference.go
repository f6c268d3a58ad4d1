package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edest28/RefCheck-3/internal/config"
	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/pkg/logger"
	"github.com/edest28/RefCheck-3/pkg/response"
	"github.com/tidwall/gjson"
)

// Call ended reasons that mean the reference never actually talked to us.
// Matched as substrings against the lowercased provider reason.
var unsuccessfulReasons = []string{
	"voicemail", "no-answer", "busy", "failed", "rejected",
	"declined", "machine", "answering-machine", "no_answer",
	"customer-busy", "customer-did-not-answer", "no-human",
	"assistant-error", "phone-call-provider-closed-websocket",
	"customer-did-not-give-microphone-permission",
}

// A transcript shorter than this means no real conversation happened.
const minTranscriptLength = 100

// ReferenceService drives the reference call workflow from outreach
// through outcome classification and analysis.
type ReferenceService struct {
	db    *gorm.DB
	llm   *LLMService
	voice *VapiService
	sms   *TwilioService
	cfg   *config.Config
}

func NewReferenceService(db *gorm.DB, llm *LLMService, voice *VapiService, sms *TwilioService, cfg *config.Config) *ReferenceService {
	return &ReferenceService{db: db, llm: llm, voice: voice, sms: sms, cfg: cfg}
}

// jobForReference resolves the job a reference should be asked about:
// the one linked to the reference, falling back to the candidate's first
// job by order.
func jobForReference(ref *models.Reference, candidate *models.Candidate) *models.Job {
	if ref.JobID != nil {
		for i := range candidate.Jobs {
			if candidate.Jobs[i].ID == *ref.JobID {
				return &candidate.Jobs[i]
			}
		}
	}
	if len(candidate.Jobs) == 0 {
		return nil
	}
	jobs := make([]models.Job, len(candidate.Jobs))
	copy(jobs, candidate.Jobs)
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].Order < jobs[j].Order })
	return &jobs[0]
}

func (s *ReferenceService) loadCandidate(id string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := s.db.Preload("Jobs").Preload("References").First(&candidate, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("candidate not found")
	}
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (s *ReferenceService) loadReference(candidateID, referenceID string) (*models.Reference, error) {
	var ref models.Reference
	err := s.db.Preload("Job").First(&ref, "id = ? AND candidate_id = ?", referenceID, candidateID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, response.NewNotFound("reference not found")
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// StartCheck places a single reference check call and returns the
// provider call ID. The reference moves to calling before the call is
// placed and to failed if the provider rejects it.
func (s *ReferenceService) StartCheck(ctx context.Context, candidateID, referenceID string) (string, error) {
	if !s.voice.Configured() {
		return "", response.NewServerError("voice provider not configured")
	}

	candidate, err := s.loadCandidate(candidateID)
	if err != nil {
		return "", err
	}
	ref, err := s.loadReference(candidateID, referenceID)
	if err != nil {
		return "", err
	}

	job := jobForReference(ref, candidate)
	if job == nil {
		return "", response.NewBadRequest("no job information available")
	}

	ref.Status = models.ReferenceStatusCalling
	if err := s.db.Save(ref).Error; err != nil {
		return "", err
	}

	callID, err := s.voice.PlaceCall(ctx, ref, candidate, job)
	if err != nil {
		ref.Status = models.ReferenceStatusFailed
		s.db.Save(ref)
		return "", err
	}

	ref.CallID = callID
	if err := s.db.Save(ref).Error; err != nil {
		return "", err
	}

	logger.Info().Str("reference_id", ref.ID).Str("call_id", callID).Msg("reference call initiated")
	return callID, nil
}

// OutreachResult is the per-reference outcome of a bulk outreach run.
type OutreachResult struct {
	ReferenceID   string `json:"reference_id"`
	ReferenceName string `json:"reference_name"`
	CallID        string `json:"call_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// StartOutreach begins calls for every pending reference of a candidate.
// One reference failing does not stop the rest.
func (s *ReferenceService) StartOutreach(ctx context.Context, candidateID string) ([]OutreachResult, error) {
	if !s.voice.Configured() {
		return nil, response.NewServerError("voice provider not configured")
	}

	candidate, err := s.loadCandidate(candidateID)
	if err != nil {
		return nil, err
	}

	candidate.Status = models.CandidateStatusInProgress
	if err := s.db.Model(candidate).Update("status", candidate.Status).Error; err != nil {
		return nil, err
	}

	var results []OutreachResult
	for i := range candidate.References {
		ref := &candidate.References[i]
		if ref.Status != models.ReferenceStatusPending {
			continue
		}

		job := jobForReference(ref, candidate)
		if job == nil {
			results = append(results, OutreachResult{
				ReferenceID:   ref.ID,
				ReferenceName: ref.Name,
				Error:         "no job information",
			})
			continue
		}

		ref.Status = models.ReferenceStatusCalling
		s.db.Save(ref)

		callID, err := s.voice.PlaceCall(ctx, ref, candidate, job)
		if err != nil {
			ref.Status = models.ReferenceStatusFailed
			s.db.Save(ref)
			results = append(results, OutreachResult{
				ReferenceID:   ref.ID,
				ReferenceName: ref.Name,
				Error:         err.Error(),
			})
			continue
		}

		ref.CallID = callID
		s.db.Save(ref)
		results = append(results, OutreachResult{
			ReferenceID:   ref.ID,
			ReferenceName: ref.Name,
			CallID:        callID,
		})
	}

	logger.Info().Str("candidate_id", candidateID).Int("calls", len(results)).Msg("outreach started")
	return results, nil
}

// Schedule records a follow-up call time for a reference.
func (s *ReferenceService) Schedule(ctx context.Context, candidateID, referenceID string, scheduledTime time.Time, timezone string) (*models.Reference, error) {
	ref, err := s.loadReference(candidateID, referenceID)
	if err != nil {
		return nil, err
	}

	if timezone == "" {
		timezone = "America/New_York"
	}
	ref.ScheduledTime = &scheduledTime
	ref.Timezone = timezone
	ref.Status = models.ReferenceStatusScheduled
	if err := s.db.Save(ref).Error; err != nil {
		return nil, err
	}
	return ref, nil
}

// SendSMS sends a manual SMS to a reference, using the default outreach
// template when no message is given.
func (s *ReferenceService) SendSMS(ctx context.Context, candidateID, referenceID, message string) error {
	if !s.sms.Configured() {
		return response.NewServerError("sms provider not configured")
	}

	candidate, err := s.loadCandidate(candidateID)
	if err != nil {
		return err
	}
	ref, err := s.loadReference(candidateID, referenceID)
	if err != nil {
		return err
	}

	if message == "" {
		message = FormatSMSMessage(DefaultSMSTemplate, candidate.Name)
	}

	if _, err := s.sms.Send(ctx, ref.Phone, message); err != nil {
		return err
	}

	now := time.Now().UTC()
	ref.SMSSent = true
	ref.SMSSentAt = &now
	ref.AppendSMSMessage("outbound", message)
	return s.db.Save(ref).Error
}

// ProcessCallOutcome classifies a finished call and runs transcript
// analysis. It is the task queue processor, so it must be safe against
// duplicate delivery: the reference row is locked and re-checked before
// any state change.
func (s *ReferenceService) ProcessCallOutcome(ctx context.Context, task *CallTask) error {
	raw, err := s.voice.GetCall(ctx, task.CallID)
	if err != nil {
		return err
	}

	status := gjson.Get(raw, "status").String()
	endedReason := gjson.Get(raw, "endedReason").String()
	if task.EndedReason != "" && endedReason == "" {
		endedReason = task.EndedReason
	}

	if status != "ended" {
		if status == "failed" || strings.Contains(strings.ToLower(status), "error") {
			return s.db.Model(&models.Reference{}).
				Where("call_id = ? AND status = ?", task.CallID, models.ReferenceStatusCalling).
				Update("status", models.ReferenceStatusFailed).Error
		}
		// Call still in flight, nothing to record yet.
		return nil
	}

	transcript := gjson.Get(raw, "artifact.transcript").String()

	var candidateID string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var ref models.Reference
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ref, "call_id = ?", task.CallID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.NewNotFound("call not found")
			}
			return err
		}
		if ref.IsTerminal() {
			// Another worker already recorded this outcome.
			return nil
		}
		candidateID = ref.CandidateID

		var candidate models.Candidate
		if err := tx.Preload("Jobs").First(&candidate, "id = ?", ref.CandidateID).Error; err != nil {
			return err
		}

		if s.callUnsuccessful(endedReason, transcript) {
			return s.recordUnsuccessfulCall(ctx, tx, &ref, &candidate, endedReason)
		}
		return s.recordCompletedCall(ctx, tx, &ref, &candidate, transcript)
	})
	if err != nil {
		return err
	}
	if candidateID == "" {
		return nil
	}
	return s.finishCandidateIfDone(candidateID)
}

// callUnsuccessful reports whether the call never reached a person: a
// known unsuccessful ended reason, or a transcript too short to be a real
// conversation unless the reason says the other side hung up.
func (s *ReferenceService) callUnsuccessful(endedReason, transcript string) bool {
	reasonLower := strings.ToLower(endedReason)
	for _, r := range unsuccessfulReasons {
		if strings.Contains(reasonLower, r) {
			return true
		}
	}
	if len(strings.TrimSpace(transcript)) < minTranscriptLength && !strings.Contains(reasonLower, "hangup") {
		return true
	}
	return false
}

func (s *ReferenceService) recordUnsuccessfulCall(ctx context.Context, tx *gorm.DB, ref *models.Reference, candidate *models.Candidate, endedReason string) error {
	ref.Status = models.ReferenceStatusNoAnswer
	ref.Notes = fmt.Sprintf("Call unsuccessful: %s", endedReason)

	// One automatic callback SMS per reference, ever.
	if !ref.SMSSent && s.sms.Configured() {
		message := fmt.Sprintf("Hi %s, we tried to reach you regarding a reference check for %s. Is there a better time to call you back? Please reply with a day and time (e.g., 'Tomorrow at 3pm EST').",
			firstName(ref.Name), candidate.Name)
		if _, err := s.sms.Send(ctx, ref.Phone, message); err != nil {
			logger.Warn().Err(err).Str("reference_id", ref.ID).Msg("callback request sms failed")
		} else {
			now := time.Now().UTC()
			expires := now.Add(24 * time.Hour)
			ref.SMSSent = true
			ref.SMSSentAt = &now
			ref.CallbackStatus = models.CallbackAwaitingReply
			ref.CallbackExpiresAt = &expires
			ref.AppendSMSMessage("outbound", message)
		}
	}

	logger.Info().Str("reference_id", ref.ID).Str("ended_reason", endedReason).Msg("call did not connect")
	return tx.Save(ref).Error
}

func (s *ReferenceService) recordCompletedCall(ctx context.Context, tx *gorm.DB, ref *models.Reference, candidate *models.Candidate, transcript string) error {
	now := time.Now().UTC()
	ref.Status = models.ReferenceStatusCompleted
	ref.CompletedAt = &now
	ref.Transcript = transcript

	job := jobForReference(ref, candidate)
	if job != nil && transcript != "" {
		analysis, err := s.llm.AnalyzeTranscript(ctx, transcript, job, candidate.Name)
		if err != nil {
			// Transcript is preserved either way; the call still counts
			// as completed without a score.
			logger.Warn().Err(err).Str("reference_id", ref.ID).Msg("transcript analysis failed")
		} else {
			score := CalculateVerificationScore(analysis)
			ref.Score = &score
			ref.Summary = analysis.Summary
			ref.Sentiment = analysis.OverallSentiment
			ref.RedFlags = marshalList(analysis.RedFlags)
			ref.Discrepancies = marshalList(analysis.Discrepancies)
			ref.AchievementsVerified = marshalList(analysis.AchievementsVerified)
			ref.AchievementsNotVerified = marshalList(analysis.AchievementsNotVerified)
			ref.PositiveSignals = marshalList(analysis.PositiveSignals)
			if data, err := json.Marshal(analysis); err == nil {
				ref.StructuredData = string(data)
			}
			logger.Info().Str("reference_id", ref.ID).Int("score", score).Msg("call analyzed")
		}
	}

	return tx.Save(ref).Error
}

// finishCandidateIfDone moves the candidate to completed once every
// reference has reached a terminal call state.
func (s *ReferenceService) finishCandidateIfDone(candidateID string) error {
	var refs []models.Reference
	if err := s.db.Where("candidate_id = ?", candidateID).Find(&refs).Error; err != nil {
		return err
	}
	for i := range refs {
		if !refs[i].IsTerminal() {
			return nil
		}
	}
	return s.db.Model(&models.Candidate{}).
		Where("id = ?", candidateID).
		Update("status", models.CandidateStatusCompleted).Error
}

func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return string(data)
}
