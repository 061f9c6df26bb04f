package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/clinisim/simulator-api/config"
	_ "github.com/lib/pq"
)

// createEnumTypes creates the Postgres enum types the models depend on.
// AutoMigrate cannot create enum types, so this runs over a plain
// database/sql connection before GORM migrates the tables.
func createEnumTypes() error {
	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	connectStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv.DB_HOST,
		getEnv.DB_PORT,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_SSL_MODE,
	)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return err
	}
	defer db.Close()

	query := `
		DO $$
		BEGIN
           	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'case_difficulty') THEN
				CREATE TYPE case_difficulty AS ENUM ('beginner', 'intermediate', 'advanced');
           	END IF;
		END $$;

		DO $$
		BEGIN
           	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contribution_status') THEN
				CREATE TYPE contribution_status AS ENUM ('draft', 'submitted', 'under_review', 'approved', 'published', 'rejected');
           	END IF;
		END $$;

		DO $$
		BEGIN
           	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'session_status') THEN
				CREATE TYPE session_status AS ENUM ('in_progress', 'completed', 'abandoned');
           	END IF;
		END $$;

		DO $$
		BEGIN
           	IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'goal_status') THEN
				CREATE TYPE goal_status AS ENUM ('active', 'achieved', 'abandoned');
           	END IF;
		END $$;
	`
	if _, err := db.Exec(query); err != nil {
		log.Println("Error creating enum types:", err)
		return err
	}

	return nil
}
