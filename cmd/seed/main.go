package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"healthinsure/internal/config"
	"healthinsure/internal/database"
	"healthinsure/internal/domain"
	"healthinsure/internal/modules/auth"
	"healthinsure/internal/repository"
)

const demoPassword = "password123"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if cfg.IsProdLike() {
		logrus.Fatal("refusing to seed a production database")
	}

	db, err := database.Connect(cfg.DatabaseURL, logrus.StandardLogger())
	if err != nil {
		logrus.WithError(err).Fatal("DB connection failed")
	}

	logrus.Info("running AutoMigrate")
	if err := database.Migrate(db); err != nil {
		logrus.WithError(err).Fatal("AutoMigrate failed")
	}

	// Children first so foreign keys hold on postgres.
	logrus.Info("cleaning old data")
	for _, table := range []string{
		"notification_outbox",
		"notification_histories",
		"payments",
		"claims",
		"policies",
		"users",
		"insurance_plans",
		"hospitals",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			logrus.WithError(err).WithField("table", table).Fatal("cleanup failed")
		}
	}

	ctx := context.Background()
	hospitals := repository.NewHospitalRepository(db)
	plans := repository.NewPlanRepository(db)
	users := repository.NewUserRepository(db)
	policies := repository.NewPolicyRepository(db)

	logrus.Info("creating hospitals")
	north := &domain.Hospital{Name: "North City Clinic", City: "Almaty", Address: "12 Abay Ave", IsNetwork: true}
	central := &domain.Hospital{Name: "Central Hospital", City: "Astana", Address: "3 Kabanbay Batyr", IsNetwork: true}
	for _, h := range []*domain.Hospital{north, central} {
		must(hospitals.Create(ctx, h), "create hospital")
	}

	logrus.Info("creating plans")
	basic := &domain.InsurancePlan{Name: "Basic", CoverageLimit: 5000, PremiumAmount: 250, DurationMonths: 12, IsActive: true}
	gold := &domain.InsurancePlan{Name: "Gold", CoverageLimit: 20000, PremiumAmount: 900, DurationMonths: 12, IsActive: true}
	for _, p := range []*domain.InsurancePlan{basic, gold} {
		must(plans.Create(ctx, p), "create plan")
	}

	logrus.Info("creating users")
	hash, err := auth.HashPassword(demoPassword)
	must(err, "hash password")

	mk := func(email, name string, role domain.UserRole, hospitalID *int64) *domain.User {
		u := &domain.User{Email: email, Name: name, PasswordHash: hash, Role: role, HospitalID: hospitalID, IsActive: true}
		must(users.Create(ctx, u), "create user "+email)
		return u
	}
	mk("admin@healthinsure.local", "Administrator", domain.RoleAdmin, nil)
	agent := mk("agent@healthinsure.local", "Dana Agent", domain.RoleInsuranceAgent, nil)
	mk("officer@healthinsure.local", "Olzhas Officer", domain.RoleClaimsOfficer, nil)
	mk("staff.north@healthinsure.local", "Nurse North", domain.RoleHospitalStaff, &north.ID)
	mk("staff.central@healthinsure.local", "Nurse Central", domain.RoleHospitalStaff, &central.ID)
	holder := mk("holder@healthinsure.local", "Aigerim Holder", domain.RolePolicyHolder, nil)

	logrus.Info("creating policies")
	now := time.Now()
	p := &domain.Policy{
		PolicyNumber:      fmt.Sprintf("POL-%d-0001", now.Year()),
		PlanID:            gold.ID,
		HolderID:          holder.ID,
		AgentID:           &agent.ID,
		StartDate:         now,
		EndDate:           now.AddDate(0, gold.DurationMonths, 0),
		CoverageLimit:     gold.CoverageLimit,
		RemainingCoverage: gold.CoverageLimit,
		PremiumAmount:     gold.PremiumAmount,
		Status:            domain.PolicyActive,
	}
	must(policies.Create(ctx, p), "create policy")

	logrus.WithFields(logrus.Fields{
		"password":      demoPassword,
		"policy_number": p.PolicyNumber,
	}).Info("seed completed")
}

func must(err error, what string) {
	if err != nil {
		logrus.WithError(err).Fatal(what)
	}
}
