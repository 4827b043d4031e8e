package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/catalog/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したAPIトークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// Create はトークンを作成する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.Token) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (id, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.ID, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("トークンの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのトークンを取得する。期限切れの場合はnilを返す。
func (r *PostgresTokenRepo) FindByID(ctx context.Context, id string) (*model.Token, error) {
	token := &model.Token{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at
		 FROM tokens WHERE id = $1 AND expires_at > NOW()`,
		id,
	).Scan(&token.ID, &token.UserID, &token.ExpiresAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("トークンの取得に失敗しました: %w", err)
	}

	return token, nil
}

// DeleteByID は指定IDのトークンを削除する。
func (r *PostgresTokenRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("トークンの削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全トークンを削除する。
func (r *PostgresTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの全トークンの削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
func (r *PostgresTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE expires_at <= NOW()`,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れトークンの削除に失敗しました: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
