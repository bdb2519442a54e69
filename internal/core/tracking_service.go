package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"payroll.service/internal/core/model"
	"payroll.service/internal/ports/messaging"
	"payroll.service/internal/ports/repository"
)

// ReasonSource supplies a deviation reason for a session closure. The forced
// termination path reads it under a deadline and falls back to Other.
type ReasonSource interface {
	ReadReason(ctx context.Context) (model.Reason, error)
}

// StaticReason is a ReasonSource that returns a pre-selected reason.
type StaticReason model.Reason

func (r StaticReason) ReadReason(ctx context.Context) (model.Reason, error) {
	return model.Reason(r), nil
}

// PromptReasonSource reads one menu selection line from an input stream.
// The read happens in a goroutine so a caller deadline always wins.
type PromptReasonSource struct {
	In io.Reader
}

func (p PromptReasonSource) ReadReason(ctx context.Context) (model.Reason, error) {
	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(p.In)
		if scanner.Scan() {
			lines <- scanner.Text()
			return
		}
		close(lines)
	}()

	select {
	case <-ctx.Done():
		return model.ReasonOther, ctx.Err()
	case line, ok := <-lines:
		if !ok {
			return model.ReasonOther, io.EOF
		}
		return model.ParseReason(line), nil
	}
}

// TrackingService enforces the per-employee-per-day session lifecycle against
// the assigned shift and captures structured deviation reasons.
type TrackingService struct {
	repo     repository.Repository
	producer messaging.QueueProducer

	// promptTimeout bounds the reason capture during forced termination.
	promptTimeout time.Duration
	now           func() time.Time
}

// NewTrackingService creates a new instance of the time tracking engine,
// wiring up the database repository and the message queue producer.
func NewTrackingService(repo repository.Repository, p messaging.QueueProducer) *TrackingService {
	return &TrackingService{
		repo:          repo,
		producer:      p,
		promptTimeout: 10 * time.Second,
		now:           time.Now,
	}
}

// StartSession opens a session for the user. When the login happens after the
// shift start, reasonInput is parsed as a late reason (invalid input counts
// as Other). Returns the new track ID.
func (s *TrackingService) StartSession(ctx context.Context, userID int64, reasonInput string) (int64, error) {
	now := s.now()

	shift, err := s.activeShift(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	if shift.EndedBefore(now) {
		return 0, ErrShiftAlreadyEnded
	}

	open, err := s.repo.FindOpenSession(ctx, userID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to query open session: %w", err)
	}
	if open != nil {
		return 0, ErrSessionAlreadyOpen
	}

	var lateReason *model.Reason
	if shift.StartedBefore(now) {
		r := model.ParseReason(reasonInput)
		lateReason = &r
	}

	trackID, err := s.repo.InsertSession(ctx, userID, now, lateReason)
	if errors.Is(err, repository.ErrConflict) {
		// The unique index caught a race the read above missed.
		return 0, ErrSessionAlreadyOpen
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create session record: %w", err)
	}
	return trackID, nil
}

// EndSession closes today's open session. When the logout happens before the
// shift end, reasonInput is parsed as an early-logout reason and the user's
// reporting manager is alerted best-effort.
func (s *TrackingService) EndSession(ctx context.Context, userID int64, reasonInput string) error {
	now := s.now()

	open, err := s.repo.FindOpenSession(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("failed to query open session: %w", err)
	}
	if open == nil {
		return ErrNoActiveSession
	}

	// Shift lookup failure leaves the session open.
	shift, err := s.activeShift(ctx, userID, now)
	if err != nil {
		return err
	}

	var earlyReason *model.Reason
	if shift.EndsAfter(now) {
		r := model.ParseReason(reasonInput)
		earlyReason = &r
	}

	if err := s.repo.CloseSession(ctx, open.TrackID, now, earlyReason); err != nil {
		return fmt.Errorf("failed to close session record: %w", err)
	}

	if earlyReason != nil {
		s.alertManager(ctx, open.TrackID, userID, *earlyReason, now)
	}
	return nil
}

// ForceEndSession handles an out-of-band termination: it captures a reason
// under the prompt deadline (defaulting to Other) and closes whatever open
// session the user has, regardless of the day it was started on. When no
// shift resolves, the open session is deliberately left untouched.
func (s *TrackingService) ForceEndSession(ctx context.Context, userID int64, source ReasonSource) error {
	now := s.now()

	assignment, err := s.repo.FindActiveShift(ctx, userID, now)
	if err != nil || assignment == nil {
		log.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).
			Msg("No shift resolvable during forced termination; leaving session as-is")
		return nil
	}

	open, err := s.repo.FindAnyOpenSession(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to query open session: %w", err)
	}
	if open == nil {
		return nil
	}

	reason := model.ReasonOther
	waitCtx, cancel := context.WithTimeout(ctx, s.promptTimeout)
	defer cancel()
	if r, err := source.ReadReason(waitCtx); err == nil {
		reason = r
	}

	// The close must complete even when the surrounding shutdown context
	// has already been cancelled.
	return s.repo.CloseSession(context.WithoutCancel(ctx), open.TrackID, now, &reason)
}

func (s *TrackingService) activeShift(ctx context.Context, userID int64, asOf time.Time) (model.Shift, error) {
	assignment, err := s.repo.FindActiveShift(ctx, userID, asOf)
	if err != nil {
		return model.Shift{}, fmt.Errorf("failed to look up shift assignment: %w", err)
	}
	if assignment == nil {
		return model.Shift{}, ErrNoShiftAssigned
	}
	shift, ok := model.ShiftCatalog[assignment.ShiftCode]
	if !ok {
		return model.Shift{}, ErrNoShiftAssigned
	}
	return shift, nil
}

// alertManager publishes an early-logout alert for the user's reporting
// manager. Delivery is fire-and-forget: any failure is logged and swallowed.
func (s *TrackingService) alertManager(ctx context.Context, trackID, userID int64, reason model.Reason, logoutTime time.Time) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil || user == nil || user.ReportingManagerID == nil {
		log.Ctx(ctx).Debug().Err(err).Int64("user_id", userID).Msg("No reporting manager to alert")
		return
	}

	manager, err := s.repo.FindUser(ctx, *user.ReportingManagerID)
	if err != nil || manager == nil || manager.Email == "" {
		log.Ctx(ctx).Debug().Err(err).Int64("manager_id", *user.ReportingManagerID).
			Msg("Reporting manager contact not resolvable")
		return
	}

	event := messaging.EarlyLogoutEvent{
		TrackID:      trackID,
		UserID:       userID,
		EmployeeName: user.Name,
		ManagerEmail: manager.Email,
		Reason:       reason,
		LogoutTime:   logoutTime,
	}
	if err := s.producer.PublishAlert(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to publish early-logout alert")
	}
}
