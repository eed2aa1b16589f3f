package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workspace-chat-service/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var pageColumns = []string{
	"id", "room_id", "type", "content", "attachment_url", "attachment_mime_type",
	"attachment_duration_ms", "mentions", "created_at",
	"author.id", "author.email", "author.first_name", "author.last_name", "author.username",
}

func pageRow(rows *sqlmock.Rows, id int, content string) *sqlmock.Rows {
	return rows.AddRow(id, 3, models.MessageTypeText, content, nil, nil, nil,
		[]byte("[]"), time.Now(), 1, "alice@example.com", "Alice", "A", "alice")
}

func TestPageFullPageReturnsOldestIDAsCursor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	rows := sqlmock.NewRows(pageColumns)
	pageRow(rows, 40, "later")
	pageRow(rows, 39, "earlier")
	mock.ExpectQuery("FROM chat_messages m").
		WithArgs(3, nil, 2).
		WillReturnRows(rows)

	msgs, next, err := repo.Page(context.Background(), 3, nil, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 40, msgs[0].ID)
	assert.Equal(t, 39, msgs[1].ID)
	require.NotNil(t, next)
	assert.Equal(t, 39, *next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageShortPageEndsPagination(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	rows := sqlmock.NewRows(pageColumns)
	pageRow(rows, 12, "last one")
	mock.ExpectQuery("FROM chat_messages m").
		WithArgs(3, 40, 2).
		WillReturnRows(rows)

	cursor := 40
	msgs, next, err := repo.Page(context.Background(), 3, &cursor, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].Author.Username)
	assert.Nil(t, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageEmptyRoom(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery("FROM chat_messages m").
		WithArgs(3, nil, 2).
		WillReturnRows(sqlmock.NewRows(pageColumns))

	msgs, next, err := repo.Page(context.Background(), 3, nil, 2)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Nil(t, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageClampsPageSize(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery("FROM chat_messages m").
		WithArgs(3, nil, DefaultPageSize).
		WillReturnRows(sqlmock.NewRows(pageColumns))
	mock.ExpectQuery("FROM chat_messages m").
		WithArgs(3, nil, MaxPageSize).
		WillReturnRows(sqlmock.NewRows(pageColumns))

	_, _, err := repo.Page(context.Background(), 3, nil, 0)
	require.NoError(t, err)
	_, _, err = repo.Page(context.Background(), 3, nil, 500)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendReturnsJoinedRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery("INSERT INTO chat_messages").
		WithArgs(3, 1, models.MessageTypeText, "hi", nil, nil, nil, []byte("[]")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	rows := sqlmock.NewRows(pageColumns)
	pageRow(rows, 9, "hi")
	mock.ExpectQuery("FROM chat_messages m").
		WithArgs(9).
		WillReturnRows(rows)

	msg, err := repo.Append(context.Background(), 3, 1, models.MessagePayload{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 9, msg.ID)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "alice", msg.Author.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRejectsInvalidPayload(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	_, err := repo.Append(context.Background(), 3, 1, models.MessagePayload{Content: "   "})
	assert.ErrorIs(t, err, models.ErrValidationFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
