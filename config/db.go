package config

import (
	"errors"
	"fmt"

	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GetDatabaseURL builds the database connection string.
func GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		viper.GetString("db_host"), viper.GetString("db_port"), viper.GetString("db_user"),
		viper.GetString("db_password"), viper.GetString("db_database"), viper.GetString("db_sslmode"))
}

// BootDB opens the database connection. Migrations only run when migrate
// is set.
func BootDB(migrate bool) (*gorm.DB, error) {
	level := logger.Warn
	if IsDebug() {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(GetDatabaseURL()), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrate {
		if err := AutoMigrate(db); err != nil {
			return db, err
		}
	}

	GetLogrusInstance().Info("DB initialized")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	// tables without foreign keys first
	if err := db.AutoMigrate(
		&domain.Person{},
		&domain.Group{},
		&domain.EmailPatternWhitelist{},
	); err != nil {
		return fmt.Errorf("failed to migrate base tables: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.GroupMembership{},
		&domain.Relationship{},
		&domain.RelationshipStatus{},
		&domain.ManagementAuthority{},
		&domain.Token{},
		&domain.InviteCode{},
		&domain.ContentUpdateRequest{},
	); err != nil {
		return fmt.Errorf("failed to migrate relational tables: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.PersonNote{},
		&domain.GroupMembershipNote{},
		&domain.RelationshipStatusNote{},
	); err != nil {
		return fmt.Errorf("failed to migrate note tables: %w", err)
	}

	// a relationship is an unordered pair of two different people
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_relationship_unordered_pair
		ON relationships (LEAST(first_person_id, second_person_id), GREATEST(first_person_id, second_person_id))`).Error; err != nil {
		return fmt.Errorf("failed to create relationship pair index: %w", err)
	}
	if err := db.Exec(`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_relationship_distinct_people') THEN
			ALTER TABLE relationships ADD CONSTRAINT chk_relationship_distinct_people CHECK (first_person_id <> second_person_id);
		END IF;
	END $$`).Error; err != nil {
		return fmt.Errorf("failed to create relationship check: %w", err)
	}

	return ensureSuperuser(db)
}

func ensureSuperuser(db *gorm.DB) error {
	email, password := GetAdminCredentials()
	if email == "" || password == "" {
		return nil
	}

	var existing domain.Person
	err := db.Where("is_superuser = ?", true).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("looking up superuser: %w", err)
	}

	GetLogrusInstance().Info("Creating default superuser account....")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("could not hash password: %w", err)
	}

	admin := domain.Person{
		Username:    email,
		Email:       &email,
		Password:    string(hashedPassword),
		FirstName:   "Admin",
		LastName:    "Admin",
		Gender:      domain.GenderOther,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	GetLogrusInstance().Info("Superuser account created")
	return nil
}
