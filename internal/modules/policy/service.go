package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"healthinsure/internal/domain"
	"healthinsure/internal/notification"
	"healthinsure/internal/pkg/numbering"
	"healthinsure/internal/repository"
)

type Service struct {
	policies  PolicyRepository
	plans     PlanRepository
	payments  PaymentRepository
	users     UserRepository
	tx        TxRunner
	publisher notification.Publisher
	log       *logrus.Logger
	now       func() time.Time
}

func NewService(
	policies PolicyRepository,
	plans PlanRepository,
	payments PaymentRepository,
	users UserRepository,
	tx TxRunner,
	publisher notification.Publisher,
	log *logrus.Logger,
) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		policies:  policies,
		plans:     plans,
		payments:  payments,
		users:     users,
		tx:        tx,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Enroll issues a policy on planID. Holders enroll themselves; agents and admins enroll
// the holder named in the request.
func (s *Service) Enroll(ctx context.Context, actor domain.Actor, req EnrollRequest) (*domain.Policy, error) {
	holderID := req.HolderID
	switch {
	case actor.Is(domain.RolePolicyHolder):
		if holderID != 0 && holderID != actor.UserID {
			return nil, ErrNotOwner
		}
		holderID = actor.UserID
	case actor.Is(domain.RoleInsuranceAgent, domain.RoleAdmin):
		if holderID == 0 {
			return nil, ErrNotPolicyHolder
		}
	default:
		return nil, ErrNotPermitted
	}

	plan, err := s.plans.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound, "load plan")
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	holder, err := s.users.GetByID(ctx, holderID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "load holder")
	}
	if holder.Role != domain.RolePolicyHolder || !holder.IsActive {
		return nil, ErrNotPolicyHolder
	}

	now := s.now()
	p := &domain.Policy{
		PlanID:            plan.ID,
		HolderID:          holder.ID,
		StartDate:         now,
		EndDate:           now.AddDate(0, plan.DurationMonths, 0),
		CoverageLimit:     plan.CoverageLimit,
		RemainingCoverage: plan.CoverageLimit,
		PremiumAmount:     plan.PremiumAmount,
		Status:            domain.PolicyActive,
	}
	var agentID int64
	if actor.Is(domain.RoleInsuranceAgent) {
		agentID = actor.UserID
		p.AgentID = &agentID
	}

	for attempt := 0; ; attempt++ {
		err = s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
			p.ID = 0
			number, err := s.nextPolicyNumber(ctx, now, attempt > 0)
			if err != nil {
				return nil, err
			}
			p.PolicyNumber = number
			if err := s.policies.Create(ctx, p); err != nil {
				return nil, err
			}

			facts := notification.Facts{PolicyNumber: p.PolicyNumber, PlanName: plan.Name, EndDate: p.EndDate}
			events := []notification.Event{
				notification.New(holder.ID, notification.KindPolicyIssued, facts).WithPolicy(p.ID),
			}
			if agentID != 0 {
				events = append(events, notification.New(agentID, notification.KindPolicyEnrolled, facts).WithPolicy(p.ID))
			}
			return events, nil
		})
		if err == nil || attempt > 0 || !repository.IsUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create policy: %w", err)
	}

	p.Plan = plan
	s.log.WithFields(logrus.Fields{
		"policy_id":     p.ID,
		"policy_number": p.PolicyNumber,
		"holder_id":     holder.ID,
		"user_id":       actor.UserID,
	}).Info("policy issued")
	return p, nil
}

// PayPremium records a premium payment and restores the remaining coverage to the plan limit.
func (s *Service) PayPremium(ctx context.Context, actor domain.Actor, policyID int64) (*domain.Policy, *domain.Payment, error) {
	p, err := s.load(ctx, policyID)
	if err != nil {
		return nil, nil, err
	}
	if p.HolderID != actor.UserID {
		return nil, nil, ErrNotOwner
	}
	if p.Status == domain.PolicyCancelled {
		return nil, nil, ErrPolicyCancelled
	}

	limit := p.CoverageLimit
	if p.Plan != nil {
		limit = p.Plan.CoverageLimit
	}
	status := p.Status
	if status == domain.PolicySuspended {
		status = domain.PolicyActive
	}

	now := s.now()
	payment := &domain.Payment{
		Reference:   "PAY-" + uuid.NewString(),
		PolicyID:    p.ID,
		UserID:      p.HolderID,
		Amount:      p.PremiumAmount,
		Type:        domain.PaymentPremium,
		Status:      domain.PaymentCompleted,
		PaymentDate: now,
	}

	err = s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
		err := s.policies.UpdateFields(ctx, p.ID, p.Status, map[string]any{
			"coverage_limit":         limit,
			"remaining_coverage":     limit,
			"premium_paid":           true,
			"last_premium_paid_date": now,
			"status":                 status,
		})
		if err != nil {
			return nil, stale(err)
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, fmt.Errorf("create premium payment: %w", err)
		}

		facts := notification.Facts{PolicyNumber: p.PolicyNumber, Amount: payment.Amount}
		return []notification.Event{
			notification.New(p.HolderID, notification.KindPremiumReceived, facts).
				WithPolicy(p.ID).
				WithData(map[string]any{"payment_reference": payment.Reference}),
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	p.CoverageLimit = limit
	p.RemainingCoverage = limit
	p.PremiumPaid = true
	p.LastPremiumPaidDate = &now
	p.Status = status
	s.log.WithFields(logrus.Fields{
		"policy_id": p.ID,
		"payment":   payment.Reference,
		"amount":    payment.Amount,
	}).Info("premium received")
	return p, payment, nil
}

// Renew extends the end date by the plan duration, counted from the later of the current
// end date and now.
func (s *Service) Renew(ctx context.Context, actor domain.Actor, policyID int64) (*domain.Policy, error) {
	p, err := s.load(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if err := canView(actor, p); err != nil {
		return nil, err
	}
	if p.Status == domain.PolicyCancelled {
		return nil, ErrPolicyCancelled
	}

	months := 12
	if p.Plan != nil && p.Plan.DurationMonths > 0 {
		months = p.Plan.DurationMonths
	}
	now := s.now()
	base := p.EndDate
	if now.After(base) {
		base = now
	}
	end := base.AddDate(0, months, 0)

	err = s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
		err := s.policies.UpdateFields(ctx, p.ID, p.Status, map[string]any{
			"end_date":     end,
			"status":       domain.PolicyActive,
			"premium_paid": false,
		})
		if err != nil {
			return nil, stale(err)
		}
		facts := notification.Facts{PolicyNumber: p.PolicyNumber, EndDate: end}
		return []notification.Event{
			notification.New(p.HolderID, notification.KindPolicyRenewed, facts).WithPolicy(p.ID),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	p.EndDate = end
	p.Status = domain.PolicyActive
	p.PremiumPaid = false
	s.log.WithFields(logrus.Fields{"policy_id": p.ID, "end_date": end, "user_id": actor.UserID}).Info("policy renewed")
	return p, nil
}

func (s *Service) Cancel(ctx context.Context, actor domain.Actor, policyID int64) (*domain.Policy, error) {
	if !actor.Is(domain.RoleInsuranceAgent, domain.RoleAdmin) {
		return nil, ErrNotPermitted
	}
	p, err := s.load(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PolicyActive && p.Status != domain.PolicySuspended {
		return nil, ErrCannotCancel
	}

	err = s.commit(ctx, func(ctx context.Context) ([]notification.Event, error) {
		if err := s.policies.UpdateFields(ctx, p.ID, p.Status, map[string]any{"status": domain.PolicyCancelled}); err != nil {
			return nil, stale(err)
		}
		facts := notification.Facts{PolicyNumber: p.PolicyNumber}
		return []notification.Event{
			notification.New(p.HolderID, notification.KindPolicyCancelled, facts).WithPolicy(p.ID),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	p.Status = domain.PolicyCancelled
	s.log.WithFields(logrus.Fields{"policy_id": p.ID, "user_id": actor.UserID}).Info("policy cancelled")
	return p, nil
}

// Delete removes the policy together with its claims and payments.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, policyID int64) error {
	if !actor.Is(domain.RoleAdmin) {
		return ErrNotPermitted
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.policies.DeleteCascade(ctx, policyID)
	})
	if err != nil {
		return notFound(err, ErrPolicyNotFound, "delete policy")
	}
	s.log.WithFields(logrus.Fields{"policy_id": policyID, "user_id": actor.UserID}).Warn("policy deleted")
	return nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, policyID int64) (*domain.Policy, error) {
	p, err := s.load(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if err := canView(actor, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, actor domain.Actor, q ListQuery) ([]domain.Policy, int64, error) {
	limit, offset := q.Limit, q.Offset
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var (
		out   []domain.Policy
		total int64
		err   error
	)
	switch {
	case actor.Is(domain.RolePolicyHolder):
		out, total, err = s.policies.ListByHolder(ctx, actor.UserID, limit, offset)
	case actor.Is(domain.RoleInsuranceAgent, domain.RoleAdmin):
		out, total, err = s.policies.List(ctx, domain.PolicyStatus(q.Status), limit, offset)
	default:
		return nil, 0, ErrNotPermitted
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list policies: %w", err)
	}
	return out, total, nil
}

func (s *Service) Payments(ctx context.Context, actor domain.Actor, policyID int64) ([]domain.Payment, error) {
	p, err := s.load(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if err := canView(actor, p); err != nil {
		return nil, err
	}
	out, err := s.payments.ListByPolicy(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Policy, error) {
	p, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrPolicyNotFound, "load policy")
	}
	return p, nil
}

func canView(actor domain.Actor, p *domain.Policy) error {
	if actor.Is(domain.RoleInsuranceAgent, domain.RoleAdmin) {
		return nil
	}
	if actor.Is(domain.RolePolicyHolder) && p.HolderID == actor.UserID {
		return nil
	}
	return ErrNotOwner
}

func (s *Service) nextPolicyNumber(ctx context.Context, now time.Time, fallback bool) (string, error) {
	return numbering.Next(ctx, "POL", now, fallback, s.policies.CountByYear, s.policies.ExistsByNumber)
}

func (s *Service) commit(ctx context.Context, fn func(ctx context.Context) ([]notification.Event, error)) error {
	return notification.Commit(ctx, s.tx, s.publisher, s.log, fn)
}

func notFound(err, kind error, op string) error {
	if repository.IsNotFound(err) {
		return kind
	}
	return fmt.Errorf("%s: %w", op, err)
}

func stale(err error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return ErrConcurrentChange
	}
	return err
}
