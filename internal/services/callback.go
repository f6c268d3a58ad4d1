package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edest28/RefCheck-3/internal/models"
	"github.com/edest28/RefCheck-3/internal/utils"
	"github.com/edest28/RefCheck-3/pkg/logger"
)

// Replies accepted as confirmation of a proposed callback time.
var affirmativeReplies = map[string]bool{
	"yes": true, "y": true, "yep": true, "yeah": true, "sure": true,
	"ok": true, "okay": true, "confirm": true, "confirmed": true,
}

const (
	retryParseMessage          = "Sorry, I didn't understand. Please reply with a day and time like 'Tomorrow at 3pm EST'."
	defaultClarificationPrompt = "What timezone are you in? (e.g., EST, PST)"
	friendlyTimeLayout         = "Monday, January 02 at 03:04 PM"
)

// CallbackService runs the SMS scheduling conversation and the sweep
// that places due callback calls.
type CallbackService struct {
	db    *gorm.DB
	llm   *LLMService
	sms   *TwilioService
	voice *VapiService
}

func NewCallbackService(db *gorm.DB, llm *LLMService, sms *TwilioService, voice *VapiService) *CallbackService {
	return &CallbackService{db: db, llm: llm, sms: sms, voice: voice}
}

// HandleInboundSMS routes an incoming message to the scheduling
// conversation of the reference whose phone matches the sender. Only the
// first match is processed.
func (s *CallbackService) HandleInboundSMS(ctx context.Context, fromNumber, body string) error {
	body = strings.TrimSpace(body)
	suffix := utils.NormalizePhoneSuffix(fromNumber)

	var refs []models.Reference
	if err := s.db.Where("phone LIKE ?", "%"+suffix).Find(&refs).Error; err != nil {
		return err
	}

	for i := range refs {
		refID := refs[i].ID

		if err := s.db.First(new(models.Candidate), "id = ?", refs[i].CandidateID).Error; err != nil {
			continue
		}

		// Lock the row so two concurrent deliveries of the same message
		// cannot both advance the conversation.
		return s.db.Transaction(func(tx *gorm.DB) error {
			var ref models.Reference
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ref, "id = ?", refID).Error; err != nil {
				return err
			}

			ref.AppendSMSMessage("inbound", body)
			ref.SMSResponse = body

			switch ref.CallbackStatus {
			case models.CallbackAwaitingReply:
				s.handleAwaitingReply(ctx, &ref, body)
			case models.CallbackTimeProposed:
				s.handleTimeProposed(ctx, &ref, body)
			}

			return tx.Save(&ref).Error
		})
	}
	return nil
}

func (s *CallbackService) handleAwaitingReply(ctx context.Context, ref *models.Reference, body string) {
	parsed, err := s.llm.ParseCallbackTime(ctx, body)
	switch {
	case err != nil:
		// Parsing failed, ask them to try again
		s.reply(ctx, ref, retryParseMessage)

	case !parsed.ParsedSuccessfully:
		// Message wasn't about scheduling
		ref.CallbackStatus = models.CallbackNone
		ref.Notes = fmt.Sprintf("Reference declined or sent unclear response: %s", body)

	case parsed.NeedsClarification:
		question := parsed.ClarificationQuestion
		if question == "" {
			question = defaultClarificationPrompt
		}
		s.reply(ctx, ref, question)

	default:
		s.proposeTime(ctx, ref, parsed)
	}
}

// proposeTime records the parsed time and asks the reference to confirm.
// With no explicit timezone the proposal defaults to EST.
func (s *CallbackService) proposeTime(ctx context.Context, ref *models.Reference, parsed *ParsedCallbackTime) {
	friendly := parsed.FriendlyTime
	if friendly == "" {
		friendly = "the suggested time"
	}

	tz := parsed.Timezone
	if tz == "" || parsed.TimezoneAssumed {
		if !strings.Contains(friendly, "EST") && !strings.Contains(friendly, "PST") {
			friendly += " EST"
		}
		if tz == "" {
			tz = "EST"
		}
	}

	ref.CallbackTimezone = tz
	ref.CallbackScheduledTime = parsed.ScheduledAt()
	ref.CallbackStatus = models.CallbackTimeProposed

	s.reply(ctx, ref, fmt.Sprintf("Great! We'll call you on %s. Reply YES to confirm or suggest another time.", friendly))
}

func (s *CallbackService) handleTimeProposed(ctx context.Context, ref *models.Reference, body string) {
	if affirmativeReplies[strings.ToLower(strings.TrimSpace(body))] {
		ref.CallbackStatus = models.CallbackConfirmed

		friendly := "the scheduled time"
		if ref.CallbackScheduledTime != nil {
			friendly = fmt.Sprintf("%s %s", ref.CallbackScheduledTime.Format(friendlyTimeLayout), ref.CallbackTimezone)
		}
		s.reply(ctx, ref, fmt.Sprintf("Confirmed! We'll call you on %s. Thank you!", friendly))
		return
	}

	// They suggested a different time, parse again
	ref.CallbackStatus = models.CallbackAwaitingReply
	parsed, err := s.llm.ParseCallbackTime(ctx, body)
	if err == nil && parsed.ParsedSuccessfully && parsed.DatetimeISO != "" {
		friendly := parsed.FriendlyTime
		if friendly == "" {
			friendly = "the suggested time"
		}
		tz := parsed.Timezone
		if tz == "" {
			tz = "EST"
		}
		ref.CallbackTimezone = tz
		ref.CallbackScheduledTime = parsed.ScheduledAt()
		ref.CallbackStatus = models.CallbackTimeProposed

		s.reply(ctx, ref, fmt.Sprintf("Great! We'll call you on %s. Reply YES to confirm or suggest another time.", friendly))
	}
}

// reply sends an outbound SMS and logs it in the conversation. Delivery
// failures are logged, not fatal: the state transition already happened.
func (s *CallbackService) reply(ctx context.Context, ref *models.Reference, message string) {
	if _, err := s.sms.Send(ctx, ref.Phone, message); err != nil {
		logger.Warn().Err(err).Str("reference_id", ref.ID).Msg("callback sms failed")
		return
	}
	ref.AppendSMSMessage("outbound", message)
}

// SweepResult summarizes one scheduler pass.
type SweepResult struct {
	Processed int              `json:"processed"`
	Expired   int              `json:"expired"`
	Results   []OutreachResult `json:"results"`
}

// ProcessScheduledCallbacks places calls for confirmed callbacks whose
// time has arrived and expires stalled scheduling conversations. Runs
// every minute from the scheduler.
func (s *CallbackService) ProcessScheduledCallbacks(ctx context.Context) (*SweepResult, error) {
	now := time.Now().UTC()
	result := &SweepResult{Results: []OutreachResult{}}

	var due []models.Reference
	err := s.db.Where("callback_status = ? AND callback_scheduled_time <= ?", models.CallbackConfirmed, now).Find(&due).Error
	if err != nil {
		return nil, err
	}

	for i := range due {
		ref := &due[i]

		// Claim the reference under a row lock before dialing so a second
		// sweep pass cannot place a duplicate call. The claim re-checks
		// the status because another instance may have taken it already.
		var candidate models.Candidate
		claimed := false
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var fresh models.Reference
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&fresh, "id = ?", ref.ID).Error; err != nil {
				return err
			}
			if fresh.CallbackStatus != models.CallbackConfirmed {
				return nil
			}
			if err := tx.Preload("Jobs").First(&candidate, "id = ?", fresh.CandidateID).Error; err != nil {
				return err
			}
			if jobForReference(&fresh, &candidate) == nil {
				fresh.CallbackStatus = models.CallbackCompleted
				fresh.Notes += " | Callback skipped: no job info"
				return tx.Save(&fresh).Error
			}

			fresh.CallbackStatus = models.CallbackDue
			fresh.Status = models.ReferenceStatusCalling
			if err := tx.Save(&fresh).Error; err != nil {
				return err
			}
			*ref = fresh
			claimed = true
			return nil
		})
		if err != nil {
			logger.Warn().Err(err).Str("reference_id", ref.ID).Msg("callback claim failed")
			continue
		}
		if !claimed {
			continue
		}

		callID, err := s.voice.PlaceCall(ctx, ref, &candidate, jobForReference(ref, &candidate))
		if err != nil {
			ref.Status = models.ReferenceStatusFailed
			ref.CallbackStatus = models.CallbackCompleted
			ref.Notes += fmt.Sprintf(" | Callback failed: %s", err.Error())
			s.db.Save(ref)
			result.Results = append(result.Results, OutreachResult{
				ReferenceID:   ref.ID,
				ReferenceName: ref.Name,
				Error:         err.Error(),
			})
			continue
		}

		ref.CallID = callID
		ref.CallbackStatus = models.CallbackCompleted
		s.db.Save(ref)
		result.Results = append(result.Results, OutreachResult{
			ReferenceID:   ref.ID,
			ReferenceName: ref.Name,
			CallID:        callID,
		})
	}
	result.Processed = len(result.Results)

	// Conversations that never reached confirmation expire after 24 hours.
	var expired []models.Reference
	err = s.db.Where("callback_status IN ? AND callback_expires_at <= ?",
		[]string{models.CallbackAwaitingReply, models.CallbackTimeProposed}, now).Find(&expired).Error
	if err != nil {
		return nil, err
	}
	for i := range expired {
		refID := expired[i].ID
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var ref models.Reference
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ref, "id = ?", refID).Error; err != nil {
				return err
			}
			if ref.CallbackStatus != models.CallbackAwaitingReply && ref.CallbackStatus != models.CallbackTimeProposed {
				return nil
			}
			ref.CallbackStatus = models.CallbackExpired
			ref.Notes += " | Callback expired: no confirmation within 24 hours"
			if err := tx.Save(&ref).Error; err != nil {
				return err
			}
			result.Expired++
			return nil
		})
		if err != nil {
			logger.Warn().Err(err).Str("reference_id", refID).Msg("callback expiry failed")
		}
	}

	if result.Processed > 0 || result.Expired > 0 {
		logger.Info().Int("processed", result.Processed).Int("expired", result.Expired).Msg("callback sweep")
	}
	return result, nil
}
