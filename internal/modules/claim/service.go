package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"healthinsure/internal/domain"
	"healthinsure/internal/notification"
	"healthinsure/internal/pkg/numbering"
	"healthinsure/internal/repository"
)

// Service is the claim lifecycle manager. Every transition validates first, then mutates
// inside one transaction guarded on the expected status, then publishes its notifications.
type Service struct {
	claims    ClaimRepository
	policies  PolicyRepository
	payments  PaymentRepository
	users     UserRepository
	hospitals HospitalRepository
	tx        TxRunner
	publisher notification.Publisher
	log       *logrus.Logger
	now       func() time.Time
}

func NewService(
	claims ClaimRepository,
	policies PolicyRepository,
	payments PaymentRepository,
	users UserRepository,
	hospitals HospitalRepository,
	tx TxRunner,
	publisher notification.Publisher,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		claims:    claims,
		policies:  policies,
		payments:  payments,
		users:     users,
		hospitals: hospitals,
		tx:        tx,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, req CreateClaimRequest) (*domain.Claim, error) {
	if !actor.Is(domain.RolePolicyHolder) {
		return nil, ErrNotPolicyHolder
	}
	if req.ClaimAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	policy, err := s.policies.GetByID(ctx, req.PolicyID)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound, "load policy")
	}
	if policy.HolderID != actor.UserID {
		return nil, ErrNotPolicyHolder
	}

	now := s.now()
	if policy.Status != domain.PolicyActive {
		return nil, ErrPolicyNotActive
	}
	if policy.HasLapsed(now) {
		return nil, ErrPolicyLapsed
	}
	if req.ClaimAmount > policy.RemainingCoverage {
		return nil, ErrCoverageExceeded
	}

	hospital, err := s.hospitals.GetByID(ctx, req.HospitalID)
	if err != nil {
		return nil, notFound(err, ErrHospitalNotFound, "load hospital")
	}

	staff, err := s.users.ListHospitalStaff(ctx, hospital.ID)
	if err != nil {
		return nil, fmt.Errorf("list hospital staff: %w", err)
	}

	c := &domain.Claim{
		PolicyID:    policy.ID,
		UserID:      actor.UserID,
		HospitalID:  hospital.ID,
		ClaimAmount: req.ClaimAmount,
		Description: strings.TrimSpace(req.Description),
		Status:      domain.ClaimSubmitted,
		SubmittedAt: now,
	}

	build := func(c *domain.Claim) []notification.Event {
		facts := notification.Facts{ClaimNumber: c.ClaimNumber, Amount: c.ClaimAmount, HospitalName: hospital.Name}
		events := []notification.Event{
			notification.New(c.UserID, notification.KindClaimSubmitted, facts).WithClaim(c.ID, c.PolicyID),
		}
		for _, u := range staff {
			events = append(events, notification.New(u.ID, notification.KindClaimAwaitingNotes, facts).WithClaim(c.ID, c.PolicyID))
		}
		return events
	}

	// A unique-index race on the claim number restarts the transaction once with the
	// timestamp suffix, which cannot collide with the sequence.
	for attempt := 0; ; attempt++ {
		err = s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
			c.ID = 0
			number, err := s.nextClaimNumber(ctx, now, attempt > 0)
			if err != nil {
				return nil, err
			}
			c.ClaimNumber = number
			if err := s.claims.Create(ctx, c); err != nil {
				return nil, err
			}
			return build(c), nil
		})
		if err == nil || attempt > 0 || !repository.IsUniqueViolation(err) {
			break
		}
		s.log.WithField("claim_number", c.ClaimNumber).Warn("claim number collision, retrying")
	}
	if err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"claim_id":     c.ID,
		"claim_number": c.ClaimNumber,
		"policy_id":    c.PolicyID,
		"user_id":      actor.UserID,
	}).Info("claim submitted")
	return c, nil
}

func (s *Service) AddMedicalNotes(ctx context.Context, actor domain.Actor, claimID int64, notes string) (*domain.Claim, error) {
	c, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}

	staff, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "load user")
	}
	if staff.Role != domain.RoleHospitalStaff || staff.HospitalID == nil || *staff.HospitalID != c.HospitalID {
		return nil, ErrNotHospitalStaff
	}

	if c.Status != domain.ClaimSubmitted {
		return nil, ErrClaimNotSubmitted
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrNotesRequired
	}

	officers, err := s.users.ListByRole(ctx, domain.RoleClaimsOfficer)
	if err != nil {
		return nil, fmt.Errorf("list claims officers: %w", err)
	}

	err = s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
		err := s.claims.Transition(ctx, c.ID, domain.ClaimSubmitted, domain.ClaimInReview, map[string]any{
			"medical_notes": notes,
		})
		if err != nil {
			return nil, stale(err, ErrClaimNotSubmitted)
		}

		facts := notification.Facts{ClaimNumber: c.ClaimNumber, Amount: c.ClaimAmount}
		events := make([]notification.Event, 0, len(officers))
		for _, u := range officers {
			events = append(events, notification.New(u.ID, notification.KindClaimReadyForReview, facts).WithClaim(c.ID, c.PolicyID))
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	c.MedicalNotes = &notes
	c.Status = domain.ClaimInReview
	s.logTransition(c, actor, "medical notes added")
	return c, nil
}

func (s *Service) Review(ctx context.Context, actor domain.Actor, claimID int64, req ReviewRequest) (*domain.Claim, error) {
	c, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOfficer(ctx, actor); err != nil {
		return nil, err
	}

	if c.Status != domain.ClaimInReview {
		return nil, ErrClaimNotInReview
	}
	if !c.HasMedicalNotes() {
		return nil, ErrMedicalNotesMissing
	}

	now := s.now()
	switch domain.ReviewDecision(req.Decision) {
	case domain.DecisionApproved:
		return s.approve(ctx, actor, c, req.ApprovedAmount, now)
	case domain.DecisionRejected:
		return s.reject(ctx, actor, c, req.RejectionReason, now)
	default:
		return nil, ErrInvalidDecision
	}
}

func (s *Service) approve(ctx context.Context, actor domain.Actor, c *domain.Claim, requested *float64, now time.Time) (*domain.Claim, error) {
	amount := c.ClaimAmount
	if requested != nil {
		amount = *requested
	}
	if amount <= 0 || amount > c.ClaimAmount {
		return nil, ErrInvalidApprovedAmount
	}

	policy, err := s.policies.GetByID(ctx, c.PolicyID)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound, "load policy")
	}
	if amount > policy.RemainingCoverage {
		return nil, ErrCoverageExceeded
	}

	err = s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
		err := s.claims.Transition(ctx, c.ID, domain.ClaimInReview, domain.ClaimApproved, map[string]any{
			"approved_amount": amount,
			"reviewer_id":     actor.UserID,
			"reviewed_at":     now,
		})
		if err != nil {
			return nil, stale(err, ErrClaimNotInReview)
		}
		if err := s.policies.DeductCoverage(ctx, c.PolicyID, amount); err != nil {
			return nil, stale(err, ErrCoverageExceeded)
		}

		facts := notification.Facts{ClaimNumber: c.ClaimNumber, Amount: amount}
		return reviewEvents(c, actor.UserID, notification.KindClaimApproved, facts, domain.ClaimApproved), nil
	})
	if err != nil {
		return nil, err
	}

	c.Status = domain.ClaimApproved
	c.ApprovedAmount = &amount
	c.ReviewerID = &actor.UserID
	c.ReviewedAt = &now
	s.logTransition(c, actor, "claim approved")
	return c, nil
}

func (s *Service) reject(ctx context.Context, actor domain.Actor, c *domain.Claim, reason string, now time.Time) (*domain.Claim, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonMissing
	}

	err := s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
		err := s.claims.Transition(ctx, c.ID, domain.ClaimInReview, domain.ClaimRejected, map[string]any{
			"rejection_reason": reason,
			"reviewer_id":      actor.UserID,
			"reviewed_at":      now,
			"processed_at":     now,
		})
		if err != nil {
			return nil, stale(err, ErrClaimNotInReview)
		}

		facts := notification.Facts{ClaimNumber: c.ClaimNumber, Amount: c.ClaimAmount, Reason: reason}
		return reviewEvents(c, actor.UserID, notification.KindClaimRejected, facts, domain.ClaimRejected), nil
	})
	if err != nil {
		return nil, err
	}

	c.Status = domain.ClaimRejected
	c.RejectionReason = &reason
	c.ReviewerID = &actor.UserID
	c.ReviewedAt = &now
	c.ProcessedAt = &now
	s.logTransition(c, actor, "claim rejected")
	return c, nil
}

func reviewEvents(c *domain.Claim, reviewerID int64, ownerKind notification.Kind, facts notification.Facts, status domain.ClaimStatus) []notification.Event {
	data := map[string]any{"status": string(status)}
	return dedupe([]notification.Event{
		notification.New(c.UserID, ownerKind, facts).WithClaim(c.ID, c.PolicyID).WithData(data),
		notification.New(reviewerID, notification.KindClaimReviewRecorded, facts).WithClaim(c.ID, c.PolicyID).WithData(data),
	})
}

func (s *Service) MarkPaid(ctx context.Context, actor domain.Actor, claimID int64) (*domain.Claim, error) {
	c, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOfficer(ctx, actor); err != nil {
		return nil, err
	}
	if c.Status != domain.ClaimApproved {
		return nil, ErrClaimNotApproved
	}

	now := s.now()
	amount := c.PayableAmount()
	claimID = c.ID
	payment := &domain.Payment{
		Reference:   "PAY-" + uuid.NewString(),
		PolicyID:    c.PolicyID,
		ClaimID:     &claimID,
		UserID:      c.UserID,
		Amount:      amount,
		Type:        domain.PaymentClaimPayout,
		Status:      domain.PaymentCompleted,
		PaymentDate: now,
	}

	err = s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
		err := s.claims.Transition(ctx, c.ID, domain.ClaimApproved, domain.ClaimPaid, map[string]any{
			"processed_at": now,
		})
		if err != nil {
			return nil, stale(err, ErrClaimNotApproved)
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, fmt.Errorf("create payout: %w", err)
		}

		facts := notification.Facts{ClaimNumber: c.ClaimNumber, Amount: amount}
		return []notification.Event{
			notification.New(c.UserID, notification.KindClaimPaid, facts).
				WithClaim(c.ID, c.PolicyID).
				WithData(map[string]any{"payment_reference": payment.Reference}),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	c.Status = domain.ClaimPaid
	c.ProcessedAt = &now
	s.log.WithFields(logrus.Fields{
		"claim_id":  c.ID,
		"payment":   payment.Reference,
		"amount":    amount,
		"user_id":   actor.UserID,
		"policy_id": c.PolicyID,
	}).Info("claim paid")
	return c, nil
}

// Get returns the claim when actor may see it: its owner, staff of its hospital,
// claims officers and admins.
func (s *Service) Get(ctx context.Context, actor domain.Actor, claimID int64) (*domain.Claim, error) {
	c, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Is(domain.RoleClaimsOfficer, domain.RoleAdmin):
		return c, nil
	case actor.Is(domain.RolePolicyHolder) && c.UserID == actor.UserID:
		return c, nil
	case actor.Is(domain.RoleHospitalStaff):
		hospitalID, err := s.staffHospital(ctx, actor)
		if err != nil {
			return nil, err
		}
		if hospitalID == c.HospitalID {
			return c, nil
		}
	}
	return nil, ErrClaimAccess
}

// List scopes claims by role: holders see their own, staff their hospital's,
// officers and admins everything.
func (s *Service) List(ctx context.Context, actor domain.Actor, q ListQuery) ([]domain.Claim, int64, error) {
	f := repository.ClaimFilter{
		Status: domain.ClaimStatus(q.Status),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	switch {
	case actor.Is(domain.RoleClaimsOfficer, domain.RoleAdmin):
	case actor.Is(domain.RolePolicyHolder):
		f.UserID = actor.UserID
	case actor.Is(domain.RoleHospitalStaff):
		hospitalID, err := s.staffHospital(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		f.HospitalID = hospitalID
	default:
		return nil, 0, ErrClaimAccess
	}

	claims, total, err := s.claims.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list claims: %w", err)
	}
	return claims, total, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Claim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrClaimNotFound, "load claim")
	}
	return c, nil
}

// requireOfficer checks the stored role, not only the token.
func (s *Service) requireOfficer(ctx context.Context, actor domain.Actor) error {
	if !actor.Is(domain.RoleClaimsOfficer) {
		return ErrNotClaimsOfficer
	}
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return notFound(err, ErrUserNotFound, "load user")
	}
	if u.Role != domain.RoleClaimsOfficer || !u.IsActive {
		return ErrNotClaimsOfficer
	}
	return nil
}

func (s *Service) staffHospital(ctx context.Context, actor domain.Actor) (int64, error) {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return 0, notFound(err, ErrUserNotFound, "load user")
	}
	if u.HospitalID == nil {
		return 0, ErrClaimAccess
	}
	return *u.HospitalID, nil
}

func (s *Service) nextClaimNumber(ctx context.Context, now time.Time, fallback bool) (string, error) {
	return numbering.Next(ctx, "CLM", now, fallback, s.claims.CountByYear, s.claims.ExistsByNumber)
}

func (s *Service) commit(ctx context.Context, fn func(ctx context.Context) ([]notification.Event, error)) error {
	return notification.Commit(ctx, s.tx, s.publisher, s.log, fn)
}

func (s *Service) logTransition(c *domain.Claim, actor domain.Actor, msg string) {
	s.log.WithFields(logrus.Fields{
		"claim_id":     c.ID,
		"claim_number": c.ClaimNumber,
		"status":       c.Status,
		"user_id":      actor.UserID,
	}).Info(msg)
}

func notFound(err, kind error, op string) error {
	if repository.IsNotFound(err) {
		return kind
	}
	return fmt.Errorf("%s: %w", op, err)
}

// stale maps a lost compare-and-set to the state error the caller would have seen.
func stale(err, kind error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return kind
	}
	return err
}

// dedupe keeps the first event per recipient and kind.
func dedupe(events []notification.Event) []notification.Event {
	type key struct {
		user int64
		kind notification.Kind
	}
	seen := make(map[key]bool, len(events))
	out := events[:0]
	for _, ev := range events {
		k := key{ev.UserID, ev.Kind}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ev)
	}
	return out
}
