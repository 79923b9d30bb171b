package services

import (
	"context"
	"regexp"
	"testing"

	"store-rating/internal/apperrors"
	"store-rating/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
RatingService test cases:
1) Admin listing: filters ANDed and bound as args, allow-listed ORDER BY, mean rounded to one decimal
2) User listing: name/address search, viewer rating attached per store (nil when absent)
3) Submit: rejects existing pair without inserting, maps a racing duplicate key and a missing store
4) Modify: overwrites, reports NotFound without inserting, treats an unchanged value as success
5) Owner dashboard: NotFound without a store, mean of ratings, 0 with none
*/

const ratingLookup = "SELECT rating FROM ratings WHERE user_id = ? AND store_id = ?"

func setupRatingService(t *testing.T) (*RatingService, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewRatingService(sqlDB, zerolog.Nop()), mock
}

func TestRatingService_ListStores_Admin(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND s.name LIKE ? AND s.address LIKE ? GROUP BY s.id ORDER BY overall_rating DESC")).
		WithArgs("%corner%", "%main%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "address", "owner_id", "overall_rating"}).
			AddRow(2, "Corner Deli", "deli@example.com", "2 Main St", 5, 3.6667).
			AddRow(1, "Corner Shop", "shop@example.com", "1 Main St", 4, 0.0))

	stores, err := svc.ListStores(context.Background(),
		models.StoreFilter{Name: "corner", Address: "main"},
		models.ParseSort("overall_rating", "DESC"))

	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, models.Average(3.7), stores[0].OverallRating)
	assert.Equal(t, "deli@example.com", stores[0].Email)
	assert.Equal(t, models.Average(0), stores[1].OverallRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_ListStores_UnknownSortHasNoOrderBy(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(`GROUP BY s\.id$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "address", "owner_id", "overall_rating"}))

	stores, err := svc.ListStores(context.Background(), models.StoreFilter{}, models.ParseSort("owner_id; --", "asc"))

	require.NoError(t, err)
	assert.Empty(t, stores)
	assert.NotNil(t, stores)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_ListStoresForUser_IgnoresAdminFilters(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN ratings r ON s.id = r.store_id WHERE 1=1 GROUP BY s.id ORDER BY s.name ASC")).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "owner_id", "overall_rating"}))

	stores, err := svc.ListStoresForUser(context.Background(), 10,
		models.StoreFilter{Name: "shop", Email: "shop@example.com"},
		models.ParseSort("", ""))

	require.NoError(t, err)
	assert.Empty(t, stores)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_ListStoresForUser_AttachesOwnRating(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta("AND (s.name LIKE ? OR s.address LIKE ?) GROUP BY s.id ORDER BY s.name ASC")).
		WithArgs("%shop%", "%shop%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "owner_id", "overall_rating"}).
			AddRow(1, "Book Shop", "1 High St", 4, 4.5).
			AddRow(2, "Shoe Shop", "3 High St", 6, 0))
	mock.ExpectQuery(regexp.QuoteMeta(ratingLookup)).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta(ratingLookup)).
		WithArgs(10, 2).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}))

	stores, err := svc.ListStoresForUser(context.Background(), 10, models.StoreFilter{Search: "shop"}, models.ParseSort("", ""))

	require.NoError(t, err)
	require.Len(t, stores, 2)
	require.NotNil(t, stores[0].MyRating)
	assert.Equal(t, 4, *stores[0].MyRating)
	assert.Equal(t, models.Average(4.5), stores[0].OverallRating)
	assert.Nil(t, stores[1].MyRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_SubmitRating_Success(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta(ratingLookup)).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ratings (user_id, store_id, rating) VALUES (?, ?, ?)")).
		WithArgs(10, 1, 4).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := svc.SubmitRating(context.Background(), 10, &models.RatingRequest{StoreID: 1, Rating: 4})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_SubmitRating_AlreadyExists(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta(ratingLookup)).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(3))

	err := svc.SubmitRating(context.Background(), 10, &models.RatingRequest{StoreID: 1, Rating: 5})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindAlreadyExists))
	assert.Contains(t, err.Error(), "Use modify endpoint instead")
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert after an existing rating")
}

func TestRatingService_SubmitRating_ConcurrentDuplicateKey(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta(ratingLookup)).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ratings")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '10-1' for key 'uq_ratings_user_store'"})

	err := svc.SubmitRating(context.Background(), 10, &models.RatingRequest{StoreID: 1, Rating: 5})

	assert.True(t, apperrors.Is(err, apperrors.KindAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_SubmitRating_UnknownStore(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta(ratingLookup)).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ratings")).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	err := svc.SubmitRating(context.Background(), 10, &models.RatingRequest{StoreID: 99, Rating: 5})

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestRatingService_InvalidValuesRejected(t *testing.T) {
	svc, mock := setupRatingService(t)

	for _, req := range []*models.RatingRequest{
		{StoreID: 1, Rating: 0},
		{StoreID: 1, Rating: 6},
		{StoreID: 0, Rating: 3},
	} {
		assert.True(t, apperrors.Is(svc.SubmitRating(context.Background(), 10, req), apperrors.KindValidation))
		assert.True(t, apperrors.Is(svc.ModifyRating(context.Background(), 10, req), apperrors.KindValidation))
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_ModifyRating_Overwrites(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ratings SET rating = ? WHERE user_id = ? AND store_id = ?")).
		WithArgs(2, 10, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.ModifyRating(context.Background(), 10, &models.RatingRequest{StoreID: 1, Rating: 2})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_ModifyRating_NotFound(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ratings SET rating = ?")).
		WithArgs(2, 10, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(ratingLookup)).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}))

	err := svc.ModifyRating(context.Background(), 10, &models.RatingRequest{StoreID: 1, Rating: 2})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Equal(t, "Rating not found to modify", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet(), "modify must never insert")
}

func TestRatingService_ModifyRating_SameValueIsIdempotent(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ratings SET rating = ?")).
		WithArgs(4, 10, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(ratingLookup)).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(4))

	err := svc.ModifyRating(context.Background(), 10, &models.RatingRequest{StoreID: 1, Rating: 4})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_OwnerDashboard_NoStore(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM stores WHERE owner_id = ?")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := svc.OwnerDashboard(context.Background(), 4)

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_OwnerDashboard_Average(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM stores WHERE owner_id = ?")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Corner Shop"))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON r.user_id = u.id WHERE r.store_id = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "name", "email"}).
			AddRow(5, "First Rater Full Name", "one@example.com").
			AddRow(4, "Second Rater Full Name", "two@example.com").
			AddRow(2, "Third Rater Full Name!", "three@example.com"))

	dash, err := svc.OwnerDashboard(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", dash.StoreName)
	assert.Equal(t, models.Average(3.7), dash.AverageRating)
	require.Len(t, dash.Ratings, 3)
	assert.Equal(t, models.RaterEntry{UserName: "First Rater Full Name", UserEmail: "one@example.com", Rating: 5}, dash.Ratings[0])
	assert.Equal(t, "three@example.com", dash.Ratings[2].UserEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_OwnerDashboard_NoRatings(t *testing.T) {
	svc, mock := setupRatingService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM stores WHERE owner_id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Corner Shop"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM ratings r")).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "name", "email"}))

	dash, err := svc.OwnerDashboard(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, models.Average(0), dash.AverageRating)
	assert.NotNil(t, dash.Ratings)
	assert.Empty(t, dash.Ratings)
}
