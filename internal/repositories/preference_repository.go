package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"workspace-chat-service/internal/models"
)

// PreferenceRepository persists per-(user, category) delivery switches.
type PreferenceRepository interface {
	GetOrCreate(ctx context.Context, userID int, category string) (models.Preference, error)
	Update(ctx context.Context, userID int, category string, patch models.PreferenceUpdate) (models.Preference, error)
	ListForUser(ctx context.Context, userID int) ([]models.Preference, error)
}

// PreferenceRepo is a sqlx-backed repository.
type PreferenceRepo struct {
	db *sqlx.DB
}

// NewPreferenceRepo constructs PreferenceRepo.
func NewPreferenceRepo(db *sqlx.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

const preferenceColumns = `user_id, category, in_app, desktop, sound`

// GetOrCreate returns the preference row, persisting the all-true default
// on first access so call sites never branch on absence.
func (r *PreferenceRepo) GetOrCreate(ctx context.Context, userID int, category string) (models.Preference, error) {
	var pref models.Preference
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notification_preferences (user_id, category)
        VALUES ($1, $2)
        ON CONFLICT (user_id, category) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING `+preferenceColumns, userID, category).
		StructScan(&pref)
	return pref, err
}

// Update upserts the row, touching only the fields present in the patch.
func (r *PreferenceRepo) Update(ctx context.Context, userID int, category string, patch models.PreferenceUpdate) (models.Preference, error) {
	var pref models.Preference
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notification_preferences (user_id, category, in_app, desktop, sound)
        VALUES ($1, $2, COALESCE($3, TRUE), COALESCE($4, TRUE), COALESCE($5, TRUE))
        ON CONFLICT (user_id, category) DO UPDATE SET
            in_app = COALESCE($3, notification_preferences.in_app),
            desktop = COALESCE($4, notification_preferences.desktop),
            sound = COALESCE($5, notification_preferences.sound)
        RETURNING `+preferenceColumns,
		userID, category, patch.InApp, patch.Desktop, patch.Sound).
		StructScan(&pref)
	return pref, err
}

// ListForUser returns every stored preference row of the user.
func (r *PreferenceRepo) ListForUser(ctx context.Context, userID int) ([]models.Preference, error) {
	var prefs []models.Preference
	err := r.db.SelectContext(ctx, &prefs, `SELECT `+preferenceColumns+`
        FROM notification_preferences WHERE user_id = $1 ORDER BY category`, userID)
	return prefs, err
}
