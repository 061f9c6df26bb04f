package database

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/clinisim/simulator-api/model"
	"github.com/clinisim/simulator-api/utils/auth"
	"gorm.io/datatypes"
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

// RunSeeds runs all seeders against the given database
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedSpecialties(); err != nil {
		return fmt.Errorf("failed to seed specialties: %w", err)
	}

	if err := s.SeedDemoCases(); err != nil {
		return fmt.Errorf("failed to seed demo cases: %w", err)
	}

	if err := s.SeedAppSettings(); err != nil {
		return fmt.Errorf("failed to seed app settings: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user from ADMIN_EMAIL / ADMIN_PASSWORD
func (s *Seeder) SeedAdminUser() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL / ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already exists, skipping")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: []byte{},
		Name:         "Platform Admin",
		Role:         model.RoleAdmin,
	}
	return s.db.Create(&admin).Error
}

var defaultSpecialties = []model.Specialty{
	{Name: "Internal Medicine", Slug: "internal-medicine", Description: "Adult general medicine cases", SortOrder: 1},
	{Name: "Emergency Medicine", Slug: "emergency-medicine", Description: "Acute and time-critical presentations", SortOrder: 2},
	{Name: "Pediatrics", Slug: "pediatrics", Description: "Infant, child and adolescent cases", SortOrder: 3},
	{Name: "Cardiology", Slug: "cardiology", Description: "Cardiovascular presentations", SortOrder: 4},
	{Name: "Neurology", Slug: "neurology", Description: "Neurological presentations", SortOrder: 5},
	{Name: "Psychiatry", Slug: "psychiatry", Description: "Mental health cases", SortOrder: 6},
}

// SeedSpecialties creates the default specialty catalog
func (s *Seeder) SeedSpecialties() error {
	for _, sp := range defaultSpecialties {
		var existing model.Specialty
		err := s.db.Where("slug = ?", sp.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		sp.Visible = true
		if err := s.db.Create(&sp).Error; err != nil {
			return err
		}
	}
	log.Printf("Seeded %d specialties", len(defaultSpecialties))
	return nil
}

// demoCase is the JSON shape consumed by the demo case seeder
type demoCase struct {
	Title      string                 `json:"title"`
	Specialty  string                 `json:"specialty"` // slug
	Summary    string                 `json:"summary"`
	Difficulty string                 `json:"difficulty"`
	Template   map[string]interface{} `json:"template"`
}

var demoCases = []demoCase{
	{
		Title:      "Chest pain in a 54-year-old",
		Specialty:  "cardiology",
		Summary:    "Acute central chest pain with diaphoresis, rule out ACS.",
		Difficulty: "intermediate",
		Template: map[string]interface{}{
			"patient": map[string]interface{}{"age": 54, "gender": "male", "occupation": "taxi driver"},
			"presenting_complaint": "Central crushing chest pain for 40 minutes",
			"evaluation_criteria": map[string]interface{}{
				"History Taking":      "Elicits onset, radiation, risk factors",
				"Differential":        "Includes ACS, PE, dissection",
				"Initial Management":  "ECG, troponin, aspirin",
				"Communication":       "Explains plan clearly",
			},
		},
	},
	{
		Title:      "Febrile infant",
		Specialty:  "pediatrics",
		Summary:    "8-month-old with fever and reduced feeding.",
		Difficulty: "beginner",
		Template: map[string]interface{}{
			"patient": map[string]interface{}{"age_months": 8, "gender": "female"},
			"presenting_complaint": "Fever 39.2C for two days, feeding poorly",
			"evaluation_criteria": map[string]interface{}{
				"History Taking":     "Immunization and exposure history",
				"Red Flags":          "Identifies sepsis red flags",
				"Initial Management": "Sepsis screen where indicated",
			},
		},
	},
	{
		Title:      "Sudden-onset weakness",
		Specialty:  "neurology",
		Summary:    "68-year-old with right-sided weakness, 90 minutes from onset.",
		Difficulty: "advanced",
		Template: map[string]interface{}{
			"patient": map[string]interface{}{"age": 68, "gender": "female"},
			"presenting_complaint": "Right arm and face weakness since breakfast",
			"evaluation_criteria": map[string]interface{}{
				"History Taking":     "Establishes exact time of onset",
				"Examination":        "NIHSS-structured assessment",
				"Initial Management": "Thrombolysis window decision",
				"Communication":      "Shared decision on thrombolysis risk",
			},
		},
	},
}

// SeedDemoCases creates a starter set of published cases
func (s *Seeder) SeedDemoCases() error {
	for _, dc := range demoCases {
		var specialty model.Specialty
		if err := s.db.Where("slug = ?", dc.Specialty).First(&specialty).Error; err != nil {
			return fmt.Errorf("specialty %q not found: %w", dc.Specialty, err)
		}

		var existing model.Case
		err := s.db.Where("title = ? AND specialty_id = ?", dc.Title, specialty.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		templateJSON, err := json.Marshal(dc.Template)
		if err != nil {
			return err
		}

		c := model.Case{
			SpecialtyID: specialty.ID,
			Title:       dc.Title,
			Summary:     dc.Summary,
			Difficulty:  model.CaseDifficulty(dc.Difficulty),
			Template:    datatypes.JSON(templateJSON),
			Published:   true,
		}
		if err := s.db.Create(&c).Error; err != nil {
			return err
		}
	}
	log.Printf("Seeded %d demo cases", len(demoCases))
	return nil
}

var defaultSettings = []model.AppSetting{
	{Key: model.SettingRegistrationOpen, Value: "true", Type: "bool", Description: "Whether new user registration is open", IsPublic: true, Category: "auth"},
	{Key: model.SettingMaxRetakesPerCase, Value: "10", Type: "int", Description: "Maximum retakes allowed per case per user", Category: "simulation"},
	{Key: model.SettingReviewSLAHours, Value: "72", Type: "int", Description: "Target hours for reviewing submitted cases", Category: "authoring"},
	{Key: model.SettingMaintenanceMessage, Value: "", Type: "string", Description: "Banner message shown to all users", IsPublic: true, Category: "general"},
}

// SeedAppSettings creates default application settings
func (s *Seeder) SeedAppSettings() error {
	for _, setting := range defaultSettings {
		var existing model.AppSetting
		err := s.db.Where("key = ?", setting.Key).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return err
		}
	}
	return nil
}
