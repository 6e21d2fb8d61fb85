// Command seed provisions the database schema and an initial dashboard
// account. Intended for local development and first deployment:
//
//	go run ./scripts/seed -username admin -password changeme -role admin
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/ccc-church/evaluation-api/internal/models"
	"github.com/ccc-church/evaluation-api/internal/repository"
	"github.com/ccc-church/evaluation-api/internal/service"
	"github.com/ccc-church/evaluation-api/pkg/config"
	"github.com/ccc-church/evaluation-api/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS survey_responses (
    id                       TEXT PRIMARY KEY,
    created_at               TIMESTAMPTZ NOT NULL,
    updated_at               TIMESTAMPTZ NOT NULL,
    entered_by               TEXT NOT NULL,
    age_group                TEXT NOT NULL,
    gender                   TEXT NOT NULL,
    service_attendance       TEXT NOT NULL,
    is_member                BOOLEAN NOT NULL,
    membership_code          TEXT,
    is_regular_visitor       BOOLEAN,
    has_children             BOOLEAN NOT NULL DEFAULT FALSE,
    children_departments     TEXT NOT NULL DEFAULT '[]',
    overall_rating           TEXT NOT NULL,
    transition_smooth        TEXT NOT NULL,
    enjoy_most               TEXT NOT NULL DEFAULT '',
    improve_aspects          TEXT NOT NULL DEFAULT '',
    times_convenient         BOOLEAN NOT NULL,
    time_suggestions         TEXT,
    departments_involved     TEXT NOT NULL DEFAULT '',
    department_activity      TEXT NOT NULL,
    department_effectiveness TEXT NOT NULL,
    department_improvements  TEXT NOT NULL DEFAULT '',
    ministries_serving       TEXT NOT NULL DEFAULT '',
    ministry_teamwork        TEXT NOT NULL,
    ministry_support         TEXT NOT NULL,
    ministry_improvements    TEXT NOT NULL DEFAULT '',
    spiritual_atmosphere     TEXT NOT NULL,
    exceptional_areas        TEXT NOT NULL DEFAULT '',
    urgent_improvements      TEXT NOT NULL DEFAULT '',
    additional_thoughts      TEXT NOT NULL DEFAULT '',
    last_edited_by           TEXT,
    last_edited_at           TIMESTAMPTZ,
    edit_history             TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_survey_responses_created_at ON survey_responses (created_at);
CREATE INDEX IF NOT EXISTS idx_survey_responses_entered_by ON survey_responses (entered_by);
-- Uniqueness of membership codes is enforced in the service layer so
-- imports can report duplicates instead of aborting mid-batch.
CREATE INDEX IF NOT EXISTS idx_survey_responses_membership_code ON survey_responses (membership_code);
`

func main() {
	username := flag.String("username", "admin", "account username")
	password := flag.String("password", "", "account password (required)")
	role := flag.String("role", string(models.RoleAdmin), "account role: admin or volunteer")
	flag.Parse()

	if *password == "" {
		log.Fatal("a -password is required")
	}
	accountRole := models.UserRole(*role)
	if accountRole != models.RoleAdmin && accountRole != models.RoleVolunteer {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	log.Println("schema applied")

	users := repository.NewUserRepository(db)
	if _, err := users.FindByUsername(ctx, *username); err == nil {
		log.Fatalf("user %q already exists", *username)
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("failed to check user: %v", err)
	}

	hash, err := service.HashPassword(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	if err := users.Create(ctx, &models.User{
		Username:     *username,
		PasswordHash: hash,
		Role:         accountRole,
	}); err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	log.Printf("created %s account %q", accountRole, *username)
}
