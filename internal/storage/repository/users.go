package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/tutor-platform/internal/models"
)

const uniqueViolation = "23505"

const userColumns = `uid, username, name, COALESCE(email, ''), COALESCE(mobile, ''), password_hash, role,
		credits, subscription_tier, subscription_end_date, progress, board, class_level, stream,
		is_archived, is_locked, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u        models.User
		endDate  sql.NullTime
		progress []byte
	)
	if err := row.Scan(&u.UID, &u.Username, &u.Name, &u.Email, &u.Mobile, &u.PasswordHash, &u.Role,
		&u.Credits, &u.SubscriptionTier, &endDate, &progress, &u.Board, &u.ClassLevel, &u.Stream,
		&u.IsArchived, &u.IsLocked, &u.CreatedAt); err != nil {
		return nil, err
	}
	if endDate.Valid {
		t := endDate.Time
		u.SubscriptionEndDate = &t
	}
	if len(progress) > 0 {
		if err := json.Unmarshal(progress, &u.Progress); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateUser сохраняет нового пользователя и возвращает его с присвоенным UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	progress, err := json.Marshal(user.Progress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Progress == nil {
		progress = []byte("{}")
	}

	query := `INSERT INTO users (username, name, email, mobile, password_hash, role, credits,
			      subscription_tier, subscription_end_date, progress, board, class_level, stream)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Name, nullable(user.Email), nullable(user.Mobile), user.PasswordHash, user.Role,
		user.Credits, user.SubscriptionTier, user.SubscriptionEndDate, progress,
		user.Board, user.ClassLevel, user.Stream)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByIdentity ищет пользователя по username, email или номеру телефона.
func (s *Storage) GetUserByIdentity(ctx context.Context, identity string) (*models.User, error) {
	const op = "storage.GetUserByIdentity"
	return s.getUser(ctx, op, `username = $1 OR email = $1 OR mobile = $1`, identity)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	return s.getUser(ctx, op, `uid = $1`, userUID)
}

func (s *Storage) getUser(ctx context.Context, op, where string, arg any) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает пользователей в порядке регистрации с пагинацией.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, uid LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUserAccess применяет изменения администратора и возвращает обновлённого пользователя.
// Изменение баланса записывается в журнал транзакций с причиной ADMIN_ADJUST.
func (s *Storage) UpdateUserAccess(ctx context.Context, userUID string, upd models.UserUpdate) (*models.User, error) {
	const op = "storage.UpdateUserAccess"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var before int
	err = tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE uid = $1 FOR UPDATE`, userUID).Scan(&before)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE users
			  SET credits = COALESCE($2, credits),
			      subscription_tier = COALESCE($3, subscription_tier),
			      subscription_end_date = COALESCE($4, subscription_end_date),
			      is_locked = COALESCE($5, is_locked),
			      is_archived = COALESCE($6, is_archived)
			  WHERE uid = $1
			  RETURNING ` + userColumns
	var tier any
	if upd.SubscriptionTier != nil {
		tier = string(*upd.SubscriptionTier)
	}
	u, err := scanUser(tx.QueryRowContext(ctx, query,
		userUID, upd.Credits, tier, upd.SubscriptionEndDate, upd.IsLocked, upd.IsArchived))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if delta := u.Credits - before; delta != 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO credit_transactions (user_uid, delta, balance_after, reason)
				VALUES ($1, $2, $3, 'ADMIN_ADJUST')`, userUID, delta, u.Credits); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// DeductCredits атомарно списывает cost, только если баланса хватает,
// и пишет запись в журнал транзакций. applied == false означает, что баланса
// не хватило и ничего не изменилось; balance тогда содержит текущий баланс.
func (s *Storage) DeductCredits(ctx context.Context, userUID string, cost int, reason string) (int, bool, error) {
	const op = "storage.DeductCredits"
	select {
	case <-ctx.Done():
		return 0, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var balance int
	err = tx.QueryRowContext(ctx, `UPDATE users
			  SET credits = credits - $2
			  WHERE uid = $1 AND credits >= $2
			  RETURNING credits`, userUID, cost).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE uid = $1`, userUID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", op, err)
		}
		return balance, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO credit_transactions (user_uid, delta, balance_after, reason)
			VALUES ($1, $2, $3, $4)`, userUID, -cost, balance, reason); err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return balance, true, nil
}

// ListCreditTransactions возвращает журнал транзакций пользователя, от новых к старым.
func (s *Storage) ListCreditTransactions(ctx context.Context, userUID string, limit int) ([]models.CreditTransaction, error) {
	const op = "storage.ListCreditTransactions"

	rows, err := s.DB.QueryContext(ctx, `SELECT delta, balance_after, reason, created_at
			FROM credit_transactions WHERE user_uid = $1 ORDER BY id DESC LIMIT $2`, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.CreditTransaction
	for rows.Next() {
		var tr models.CreditTransaction
		if err := rows.Scan(&tr.Delta, &tr.BalanceAfter, &tr.Reason, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, tr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
