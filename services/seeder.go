package services

import (
	"context"
	"log/slog"

	"github.com/voxhire/voxhire/backend/models"
	"github.com/voxhire/voxhire/backend/repository"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds demo candidates for local development (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	candidates := []models.Candidate{
		{
			Name:       "Jordan Rivera",
			Email:      "jordan.rivera@example.com",
			TargetRole: "Senior Backend Engineer",
			ResumeText: "8 years building distributed systems in Go and Python. Led the migration " +
				"of a monolithic payments platform to event-driven microservices handling 40k " +
				"requests per second. Designed a multi-region Postgres sharding layer.",
			LinkedInSummary: "Staff-adjacent backend engineer, ex-fintech, speaker at two regional Go meetups.",
			GitHubSummary:   "Maintains a popular rate-limiting library (2.1k stars). Active contributor to an open-source message broker.",
			Status:          "registered",
		},
		{
			Name:       "Priya Nair",
			Email:      "priya.nair@example.com",
			TargetRole: "Machine Learning Engineer",
			ResumeText: "5 years in applied ML. Built a real-time fraud detection pipeline with " +
				"feature store and online inference at sub-50ms latency. Published work on " +
				"embedding-based candidate ranking.",
			LinkedInSummary: "ML engineer focused on production model serving and MLOps.",
			GitHubSummary:   "Author of several model-serving utilities and a vector search benchmark suite.",
			Status:          "registered",
		},
		{
			Name:       "Marcus Webb",
			Email:      "marcus.webb@example.com",
			TargetRole: "Frontend Developer",
			ResumeText: "3 years of React and TypeScript. Shipped a design system used by four " +
				"product teams. Improved first-paint metrics by 45% on the flagship dashboard.",
			LinkedInSummary: "Frontend developer with a design background.",
			Status:          "registered",
		},
	}

	for _, candidate := range candidates {
		if err := s.seedCandidate(ctx, candidate); err != nil {
			slog.Error("Failed to seed candidate", "email", candidate.Email, "error", err)
		}
	}

	slog.Info("Database seeding completed")
	return nil
}

// seedCandidate creates a candidate if one with the same email does not exist
func (s *DatabaseSeeder) seedCandidate(ctx context.Context, candidate models.Candidate) error {
	existing, err := s.repo.GetCandidateByEmail(ctx, candidate.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Debug("Candidate already seeded", "email", candidate.Email)
		return nil
	}
	return s.repo.CreateCandidate(ctx, &candidate)
}
