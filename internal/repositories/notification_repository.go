package repositories

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"workspace-chat-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationFilter narrows ListForUser. Zero values mean "no filter".
type NotificationFilter struct {
	Page        int
	PageSize    int
	UnreadOnly  bool
	WorkspaceID *int
	Category    string
}

// NotificationRepository persists per-user notifications. Every mutation
// predicate includes the owner's user id, so a user can never touch another
// user's rows.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	CreateBulk(ctx context.Context, ns []models.Notification) ([]models.Notification, error)
	ListForUser(ctx context.Context, userID int, filter NotificationFilter) ([]models.Notification, int, int, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, id int, userID int) (bool, error)
	MarkAllRead(ctx context.Context, userID int, workspaceID *int) (int64, error)
	Delete(ctx context.Context, id int, userID int) (bool, error)
}

// NotificationRepo is a sqlx-backed repository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationColumns = `id, user_id, workspace_id, title, message, type, category, is_read, metadata, created_at`

// Create inserts a single notification row.
func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	var stored models.Notification
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notifications
        (user_id, workspace_id, title, message, type, category, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+notificationColumns,
		n.UserID, n.WorkspaceID, n.Title, n.Message, n.Type, n.Category, n.Metadata).
		StructScan(&stored)
	return stored, err
}

// CreateBulk inserts the rows independently. A failed insert does not roll
// back its siblings; the combined error reports every failure.
func (r *NotificationRepo) CreateBulk(ctx context.Context, ns []models.Notification) ([]models.Notification, error) {
	created := make([]models.Notification, 0, len(ns))
	var errs []error
	for _, n := range ns {
		stored, err := r.Create(ctx, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		created = append(created, stored)
	}
	return created, errors.Join(errs...)
}

// ListForUser returns a page of notifications plus the total and unread
// counts under the same workspace/category filter.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID int, filter NotificationFilter) ([]models.Notification, int, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > MaxPageSize {
		filter.PageSize = MaxPageSize
	}

	where := []string{"user_id = $1"}
	args := []any{userID}
	if filter.WorkspaceID != nil {
		args = append(args, *filter.WorkspaceID)
		where = append(where, "workspace_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	predicate := strings.Join(where, " AND ")

	var total, unread int
	err := r.db.QueryRowxContext(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_read = FALSE)
        FROM notifications WHERE `+predicate, args...).Scan(&total, &unread)
	if err != nil {
		return nil, 0, 0, err
	}

	if filter.UnreadOnly {
		predicate += " AND is_read = FALSE"
	}
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	limitPos := strconv.Itoa(len(args) - 1)
	offsetPos := strconv.Itoa(len(args))

	var items []models.Notification
	err = r.db.SelectContext(ctx, &items, `SELECT `+notificationColumns+`
        FROM notifications WHERE `+predicate+`
        ORDER BY created_at DESC, id DESC
        LIMIT $`+limitPos+` OFFSET $`+offsetPos, args...)
	return items, total, unread, err
}

// UnreadCount returns the user's total unread notifications.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID)
	return count, err
}

// MarkRead flips the read flag. Returns false when the row is absent, not
// owned by the user, or already read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id int, userID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE
        WHERE id = $1 AND user_id = $2 AND is_read = FALSE`, id, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}

// MarkAllRead marks every unread notification of the user (optionally
// scoped to one workspace) as read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int, workspaceID *int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE
        WHERE user_id = $1 AND is_read = FALSE AND ($2::int IS NULL OR workspace_id = $2)`, userID, workspaceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a notification owned by the user.
func (r *NotificationRepo) Delete(ctx context.Context, id int, userID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	return count > 0, err
}
