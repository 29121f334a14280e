package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedDemoAccounts(); err != nil {
		return fmt.Errorf("failed to seed demo accounts: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	// Get admin credentials from environment variables
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	// Hash password
	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
		TokenVersion: 0,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedDemoAccounts creates a demo advisor with two assigned students and a
// sample task each. Only runs when SEED_DEMO_DATA=true.
func (s *Seeder) SeedDemoAccounts() error {
	if os.Getenv("SEED_DEMO_DATA") != "true" {
		log.Println("⏭️  SEED_DEMO_DATA not set, skipping demo accounts...")
		return nil
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdvisor).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("⏭️  Advisor accounts already exist, skipping...")
		return nil
	}

	passwordHash, err := auth.HashPassword("demo-password-123")
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	advisor := &model.User{
		Email:        "advisor@example.com",
		PasswordHash: passwordHash,
		Name:         "Dana Whitfield",
		Role:         model.RoleAdvisor,
	}
	if err := s.db.Create(advisor).Error; err != nil {
		return err
	}

	students := []model.User{
		{
			Email:          "maya@example.com",
			PasswordHash:   passwordHash,
			Name:           "Maya Chen",
			Role:           model.RoleStudent,
			School:         "Lincoln High School",
			GraduationYear: 2027,
			GPA:            "3.8",
			AdvisorID:      &advisor.ID,
		},
		{
			Email:          "jordan@example.com",
			PasswordHash:   passwordHash,
			Name:           "Jordan Okafor",
			Role:           model.RoleStudent,
			School:         "Westview Academy",
			GraduationYear: 2026,
			GPA:            "3.5",
			AdvisorID:      &advisor.ID,
		},
	}
	if err := s.db.Create(&students).Error; err != nil {
		return err
	}

	due := time.Now().AddDate(0, 0, 14)
	tasks := []model.Task{
		{
			StudentID:   students[0].ID,
			CreatedByID: advisor.ID,
			Title:       "Take the aptitude test",
			Notes:       "Complete all four steps so we can discuss results next session.",
			Priority:    "high",
			DueAt:       &due,
		},
		{
			StudentID:   students[1].ID,
			CreatedByID: advisor.ID,
			Title:       "Draft your personal statement",
			Notes:       "Upload the first draft as a PDF for feedback.",
			Priority:    "normal",
			DueAt:       &due,
		},
	}
	if err := s.db.Create(&tasks).Error; err != nil {
		return err
	}

	log.Printf("✅ Created demo advisor and %d students\n", len(students))
	return nil
}
