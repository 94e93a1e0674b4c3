package database

import (
	"fmt"
	"log"
	"time"

	config "github.com/mkamau77/safari_tours/configs"
	"github.com/mkamau77/safari_tours/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Tour{},
		&models.Booking{},
		&models.Participant{},
		&models.Payment{},
		&models.PromoCode{},
		&models.AuditLog{},
		&models.RateLimitCounter{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")

	var count int64
	err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error
	if err != nil {
		log.Fatalf("🔥 Failed to check for admin user: %v", err)
		return
	}

	if count > 0 {
		log.Println("Admin user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash admin password: %v", err)
		return
	}

	adminUser := models.User{
		FullName: config.Config("ADMIN_FULL_NAME"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     "admin",
	}

	if err := DB.Create(&adminUser).Error; err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
		return
	}

	log.Println("✅ Admin user seeded successfully")
}

// SeedTours loads a couple of starter tours on an empty catalog so the API is
// usable right after first boot. Real catalog management lives elsewhere.
func SeedTours() {
	var count int64
	if err := DB.Model(&models.Tour{}).Count(&count).Error; err != nil {
		log.Printf("Failed to check tour catalog: %v", err)
		return
	}
	if count > 0 {
		return
	}

	tours := []models.Tour{
		{
			Title: "Maasai Mara Classic", Slug: "maasai-mara-classic",
			Location: "Maasai Mara, Kenya", DurationDays: 3,
			PricePerPerson: 450, Currency: "USD", MaxGroupSize: 12, IsActive: true,
		},
		{
			Title: "Amboseli Elephant Trails", Slug: "amboseli-elephant-trails",
			Location: "Amboseli, Kenya", DurationDays: 2,
			PricePerPerson: 320, Currency: "USD", MaxGroupSize: 8, IsActive: true,
		},
	}
	for i := range tours {
		tours[i].CreatedAt = time.Now()
		if err := DB.Create(&tours[i]).Error; err != nil {
			log.Printf("Failed to seed tour %s: %v", tours[i].Slug, err)
		}
	}
	log.Println("✅ Tour catalog seeded")
}
