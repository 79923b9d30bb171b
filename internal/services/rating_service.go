package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"store-rating/internal/apperrors"
	"store-rating/internal/db"
	"store-rating/internal/metrics"
	"store-rating/internal/models"
	"store-rating/internal/validation"

	"github.com/rs/zerolog"
)

const (
	adminStoresQuery = `SELECT s.id, s.name, s.email, s.address, s.owner_id, COALESCE(AVG(r.rating), 0) AS overall_rating
		FROM stores s
		LEFT JOIN ratings r ON s.id = r.store_id`

	userStoresQuery = `SELECT s.id, s.name, s.address, s.owner_id, COALESCE(AVG(r.rating), 0) AS overall_rating
		FROM stores s
		LEFT JOIN ratings r ON s.id = r.store_id`
)

// RatingService owns the rating write path and the aggregate store listings.
type RatingService struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRatingService(db *sql.DB, logger zerolog.Logger) *RatingService {
	return &RatingService{
		db:     db,
		logger: logger,
	}
}

// ListStores returns every store matching filter with its mean rating, for
// the admin view. Name, email and address filters are independent and ANDed.
func (s *RatingService) ListStores(ctx context.Context, filter models.StoreFilter, sort models.Sort) ([]models.Store, error) {
	query, args := newListQuery(adminStoresQuery).
		contains("s.name", filter.Name).
		contains("s.email", filter.Email).
		contains("s.address", filter.Address).
		group("s.id").
		build(sort, adminStoreSortColumns)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error listing stores")
		return nil, apperrors.Internal(fmt.Errorf("list stores: %w", err))
	}
	defer rows.Close()

	stores := []models.Store{}
	for rows.Next() {
		var st models.Store
		var avg float64
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Address, &st.OwnerID, &avg); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("scan store: %w", err))
		}
		st.OverallRating = models.NewAverage(avg)
		stores = append(stores, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("iterate stores: %w", err))
	}

	return stores, nil
}

// ListStoresForUser returns stores whose name or address contains filter.Search,
// each with its mean rating and the viewer's own rating (nil if none).
func (s *RatingService) ListStoresForUser(ctx context.Context, userID int, filter models.StoreFilter, sort models.Sort) ([]models.UserStore, error) {
	query, args := newListQuery(userStoresQuery).
		containsAny(filter.Search, "s.name", "s.address").
		group("s.id").
		build(sort, userStoreSortColumns)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error listing stores")
		return nil, apperrors.Internal(fmt.Errorf("list stores: %w", err))
	}

	stores := []models.UserStore{}
	for rows.Next() {
		var st models.UserStore
		var avg float64
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.OwnerID, &avg); err != nil {
			rows.Close()
			return nil, apperrors.Internal(fmt.Errorf("scan store: %w", err))
		}
		st.OverallRating = models.NewAverage(avg)
		stores = append(stores, st)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("iterate stores: %w", err))
	}

	// rows must be closed before the per-store lookups below.
	for i := range stores {
		mine, err := s.userRating(ctx, userID, stores[i].ID)
		if err != nil {
			return nil, err
		}
		stores[i].MyRating = mine
	}

	return stores, nil
}

func (s *RatingService) userRating(ctx context.Context, userID, storeID int) (*int, error) {
	var value int
	err := s.db.QueryRowContext(ctx,
		"SELECT rating FROM ratings WHERE user_id = ? AND store_id = ?",
		userID, storeID,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Int("store_id", storeID).Msg("Error fetching user rating")
		return nil, apperrors.Internal(fmt.Errorf("fetch rating: %w", err))
	}
	return &value, nil
}

// SubmitRating records a first rating for (userID, store). The existence check
// yields the friendly error; the unique key on (user_id, store_id) decides
// when two submissions race past it.
func (s *RatingService) SubmitRating(ctx context.Context, userID int, req *models.RatingRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	existing, err := s.userRating(ctx, userID, req.StoreID)
	if err != nil {
		return err
	}
	if existing != nil {
		return alreadyRated()
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO ratings (user_id, store_id, rating) VALUES (?, ?, ?)",
		userID, req.StoreID, req.Rating,
	)
	switch {
	case db.IsDuplicateEntry(err):
		s.logger.Warn().Int("user_id", userID).Int("store_id", req.StoreID).Msg("Concurrent rating submission rejected by unique key")
		return alreadyRated()
	case db.IsForeignKeyViolation(err):
		return apperrors.NotFound("Store not found")
	case err != nil:
		s.logger.Error().Err(err).Int("user_id", userID).Int("store_id", req.StoreID).Msg("Error inserting rating")
		return apperrors.Internal(fmt.Errorf("insert rating: %w", err))
	}

	metrics.RecordRatingWrite("submit")
	s.logger.Info().Int("user_id", userID).Int("store_id", req.StoreID).Int("rating", req.Rating).Msg("Rating submitted")
	return nil
}

func alreadyRated() error {
	return apperrors.AlreadyExists("Rating already exists. Use modify endpoint instead.")
}

// ModifyRating overwrites an existing rating in place. It never inserts.
func (s *RatingService) ModifyRating(ctx context.Context, userID int, req *models.RatingRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE ratings SET rating = ? WHERE user_id = ? AND store_id = ?",
		req.Rating, userID, req.StoreID,
	)
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Int("store_id", req.StoreID).Msg("Error updating rating")
		return apperrors.Internal(fmt.Errorf("update rating: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(fmt.Errorf("rows affected: %w", err))
	}

	if affected == 0 {
		// Without clientFoundRows MySQL reports 0 when the value is unchanged.
		existing, err := s.userRating(ctx, userID, req.StoreID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.NotFound("Rating not found to modify")
		}
	}

	metrics.RecordRatingWrite("modify")
	s.logger.Info().Int("user_id", userID).Int("store_id", req.StoreID).Int("rating", req.Rating).Msg("Rating modified")
	return nil
}

// OwnerDashboard summarises the store owned by ownerID: its mean rating and
// every rating with the rater's name and email, in query order.
func (s *RatingService) OwnerDashboard(ctx context.Context, ownerID int) (*models.OwnerDashboard, error) {
	var storeID int
	var storeName string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM stores WHERE owner_id = ? ORDER BY id LIMIT 1",
		ownerID,
	).Scan(&storeID, &storeName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("No store found for this owner")
	}
	if err != nil {
		s.logger.Error().Err(err).Int("owner_id", ownerID).Msg("Error fetching owner store")
		return nil, apperrors.Internal(fmt.Errorf("fetch store: %w", err))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT r.rating, u.name, u.email
		FROM ratings r
		JOIN users u ON r.user_id = u.id
		WHERE r.store_id = ?`, storeID)
	if err != nil {
		s.logger.Error().Err(err).Int("store_id", storeID).Msg("Error fetching store ratings")
		return nil, apperrors.Internal(fmt.Errorf("fetch ratings: %w", err))
	}
	defer rows.Close()

	dashboard := &models.OwnerDashboard{StoreName: storeName, Ratings: []models.RaterEntry{}}
	values := []int{}
	for rows.Next() {
		var entry models.RaterEntry
		if err := rows.Scan(&entry.Rating, &entry.UserName, &entry.UserEmail); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("scan rating: %w", err))
		}
		dashboard.Ratings = append(dashboard.Ratings, entry)
		values = append(values, entry.Rating)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("iterate ratings: %w", err))
	}

	dashboard.AverageRating = models.MeanOf(values)
	return dashboard, nil
}
