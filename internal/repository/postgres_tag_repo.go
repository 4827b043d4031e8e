package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/catalog/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = pq.ErrorCode("23505")

// isUniqueViolation はerrが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

// ListByOwner は所有者のタグ一覧をname降順で返す。
// assignedOnlyがtrueの場合、いずれかの商品に割り当てられたタグのみを返す。
// EXISTSによる絞り込みのため、複数商品に割り当てられたタグも1行で返る。
func (r *PostgresTagRepo) ListByOwner(ctx context.Context, ownerID string, assignedOnly bool) ([]*model.Tag, error) {
	query := `SELECT id, owner_id, name, created_at, updated_at FROM tags WHERE owner_id = $1`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM product_tags pt WHERE pt.tag_id = tags.id)`
	}
	query += ` ORDER BY name DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		tag := &model.Tag{}
		if err := rows.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, fmt.Errorf("タグ行の読み取りに失敗しました: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグ一覧の走査に失敗しました: %w", err)
	}
	return tags, nil
}

// FindByIDAndOwner は所有者スコープでタグを取得する。見つからない場合はnilを返す。
func (r *PostgresTagRepo) FindByIDAndOwner(ctx context.Context, ownerID string, id int64) (*model.Tag, error) {
	tag := &model.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM tags WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	).Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt, &tag.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗しました: %w", err)
	}
	return tag, nil
}

// findByOwnerAndName は (ownerID, name) でタグを検索する。見つからない場合はnilを返す。
func (r *PostgresTagRepo) findByOwnerAndName(ctx context.Context, ownerID, name string) (*model.Tag, error) {
	tag := &model.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM tags WHERE owner_id = $1 AND name = $2`,
		ownerID, name,
	).Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt, &tag.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("名前によるタグの検索に失敗しました: %w", err)
	}
	return tag, nil
}

// FindOrCreate は (ownerID, name) のタグを検索し、なければ作成する。
// 同時実行で同一タグが先に作成された場合は一意制約違反になるため、
// その場合は再検索して既存行を返す（リトライ可能なエラーとして扱う）。
func (r *PostgresTagRepo) FindOrCreate(ctx context.Context, ownerID, name string) (*model.Tag, bool, error) {
	existing, err := r.findByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now()
	tag := &model.Tag{OwnerID: ownerID, Name: name, CreatedAt: now, UpdatedAt: now}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO tags (owner_id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		ownerID, name, now, now,
	).Scan(&tag.ID)

	if isUniqueViolation(err) {
		// 同時実行による作成競合。既存行を取得して返す。
		existing, ferr := r.findByOwnerAndName(ctx, ownerID, name)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("タグの作成競合後の再検索に失敗しました: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("タグの作成に失敗しました: %w", err)
	}

	return tag, true, nil
}

// UpdateName は所有者スコープでタグ名を変更する。対象がない場合はnilを返す。
func (r *PostgresTagRepo) UpdateName(ctx context.Context, ownerID string, id int64, name string) (*model.Tag, error) {
	tag := &model.Tag{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE tags SET name = $3, updated_at = NOW()
		 WHERE owner_id = $1 AND id = $2
		 RETURNING id, owner_id, name, created_at, updated_at`,
		ownerID, id, name,
	).Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt, &tag.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タグ名の更新に失敗しました: %w", err)
	}
	return tag, nil
}

// DeleteByIDAndOwner は所有者スコープでタグを削除する。
// 商品への割り当てはCASCADE削除される。対象がない場合はfalseを返す。
func (r *PostgresTagRepo) DeleteByIDAndOwner(ctx context.Context, ownerID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		return false, fmt.Errorf("タグの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ TagRepository = (*PostgresTagRepo)(nil)
