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

type AdminService struct {
	db     *sql.DB
	hasher PasswordHasher
	logger zerolog.Logger
}

func NewAdminService(db *sql.DB, hasher PasswordHasher, logger zerolog.Logger) *AdminService {
	return &AdminService{
		db:     db,
		hasher: hasher,
		logger: logger,
	}
}

func (s *AdminService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats

	counts := []struct {
		table string
		dest  *int
	}{
		{"users", &stats.UsersCount},
		{"stores", &stats.StoresCount},
		{"ratings", &stats.RatingsCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			s.logger.Error().Err(err).Str("table", c.table).Msg("Error counting rows")
			return nil, apperrors.Internal(fmt.Errorf("count %s: %w", c.table, err))
		}
	}

	return &stats, nil
}

// AddUser provisions an admin or a plain user. Store owners are only ever
// created by assigning a store.
func (s *AdminService) AddUser(ctx context.Context, req *models.AddUserRequest) (int, error) {
	if err := validation.Struct(req); err != nil {
		return 0, err
	}

	userID, err := insertUser(ctx, s.db, s.hasher, newUser{
		name:     req.Name,
		email:    req.Email,
		password: req.Password,
		address:  req.Address,
		role:     models.UserRole(req.Role),
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.KindDuplicateEmail) {
			s.logger.Error().Err(err).Msg("Error adding user")
		}
		return 0, err
	}

	s.logger.Info().Int("user_id", userID).Str("role", req.Role).Msg("User added by admin")
	return userID, nil
}

// AddStore creates a store owned by req.OwnerID, promoting the owner to
// store_owner first when needed. Both writes share one transaction and the
// owner row is locked, so concurrent calls for the same fresh user serialize.
func (s *AdminService) AddStore(ctx context.Context, req *models.AddStoreRequest) (int, error) {
	if err := validation.Struct(req); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error starting store transaction")
		return 0, apperrors.Internal(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	var role string
	err = tx.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ? FOR UPDATE", req.OwnerID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.OwnerNotFound()
	}
	if err != nil {
		s.logger.Error().Err(err).Int("owner_id", req.OwnerID).Msg("Error fetching owner")
		return 0, apperrors.Internal(fmt.Errorf("fetch owner: %w", err))
	}

	promoted := false
	if models.UserRole(role) != models.RoleStoreOwner {
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET role = ? WHERE id = ? AND role <> ?",
			string(models.RoleStoreOwner), req.OwnerID, string(models.RoleStoreOwner),
		)
		if err != nil {
			s.logger.Error().Err(err).Int("owner_id", req.OwnerID).Msg("Error promoting owner")
			return 0, apperrors.Internal(fmt.Errorf("promote owner: %w", err))
		}
		promoted = true
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO stores (name, email, address, owner_id) VALUES (?, ?, ?, ?)",
		req.Name, req.Email, req.Address, req.OwnerID,
	)
	if db.IsDuplicateEntry(err) {
		return 0, apperrors.DuplicateEmail()
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error inserting store")
		return 0, apperrors.Internal(fmt.Errorf("insert store: %w", err))
	}

	storeID, err := result.LastInsertId()
	if err != nil {
		return 0, apperrors.Internal(fmt.Errorf("store id: %w", err))
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error().Err(err).Msg("Error committing store")
		return 0, apperrors.Internal(fmt.Errorf("commit: %w", err))
	}

	metrics.RecordStoreCreated()
	if promoted {
		metrics.RecordRolePromotion()
		s.logger.Info().Int("user_id", req.OwnerID).Str("from_role", role).Msg("User promoted to store_owner")
	}
	s.logger.Info().Int("store_id", int(storeID)).Int("owner_id", req.OwnerID).Msg("Store added")

	return int(storeID), nil
}

// ListUsers filters by substring on name, email and address and by exact role.
// A role that is not one of the known roles is ignored rather than matching nothing.
func (s *AdminService) ListUsers(ctx context.Context, filter models.UserFilter, sort models.Sort) ([]models.User, error) {
	if !models.UserRole(filter.Role).Valid() {
		filter.Role = ""
	}

	query, args := newListQuery("SELECT id, name, email, address, role FROM users").
		contains("name", filter.Name).
		contains("email", filter.Email).
		contains("address", filter.Address).
		equals("role", filter.Role).
		build(sort, userSortColumns)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error listing users")
		return nil, apperrors.Internal(fmt.Errorf("list users: %w", err))
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		var address sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &address, &u.Role); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("scan user: %w", err))
		}
		u.Address = address.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("iterate users: %w", err))
	}

	return users, nil
}

// GetUserDetails loads one user; store owners also get their stores with mean ratings.
func (s *AdminService) GetUserDetails(ctx context.Context, userID int) (*models.User, error) {
	var u models.User
	var address sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, address, role FROM users WHERE id = ?",
		userID,
	).Scan(&u.ID, &u.Name, &u.Email, &address, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error fetching user")
		return nil, apperrors.Internal(fmt.Errorf("fetch user: %w", err))
	}
	u.Address = address.String

	if models.UserRole(u.Role) != models.RoleStoreOwner {
		return &u, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT s.name, COALESCE(AVG(r.rating), 0) AS rating
		FROM stores s
		LEFT JOIN ratings r ON s.id = r.store_id
		WHERE s.owner_id = ?
		GROUP BY s.id`, userID)
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error fetching owned stores")
		return nil, apperrors.Internal(fmt.Errorf("fetch stores: %w", err))
	}
	defer rows.Close()

	u.Stores = []models.OwnedStore{}
	for rows.Next() {
		var st models.OwnedStore
		var avg float64
		if err := rows.Scan(&st.Name, &avg); err != nil {
			return nil, apperrors.Internal(fmt.Errorf("scan store: %w", err))
		}
		st.Rating = models.NewAverage(avg)
		u.Stores = append(u.Stores, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("iterate stores: %w", err))
	}

	return &u, nil
}

// EnsureAdmin creates the bootstrap admin account when email is set and no
// account uses it yet.
func (s *AdminService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" {
		return nil
	}
	if password == "" {
		return errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	if name == "" {
		name = "System Administrator Account"
	}
	if !validation.StrongPassword(password) {
		s.logger.Warn().Str("email", email).Msg("Bootstrap admin password does not meet the strength policy")
	}

	userID, err := insertUser(ctx, s.db, s.hasher, newUser{
		name:     name,
		email:    email,
		password: password,
		role:     models.RoleAdmin,
	})
	if apperrors.Is(err, apperrors.KindDuplicateEmail) {
		s.logger.Debug().Str("email", email).Msg("Bootstrap admin already present")
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info().Int("user_id", userID).Str("email", email).Msg("Bootstrap admin created")
	return nil
}
