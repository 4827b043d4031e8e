package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/catalog/internal/model"
)

// PostgresIngredientRepo はPostgreSQLを使用した原材料リポジトリ。
// セマンティクスはPostgresTagRepoと同じで、対象テーブルのみ異なる。
type PostgresIngredientRepo struct {
	db *sql.DB
}

// NewPostgresIngredientRepo はPostgresIngredientRepoを生成する。
func NewPostgresIngredientRepo(db *sql.DB) *PostgresIngredientRepo {
	return &PostgresIngredientRepo{db: db}
}

// ListByOwner は所有者の原材料一覧をname降順で返す。
// assignedOnlyがtrueの場合、いずれかの商品に割り当てられた原材料のみを返す。
func (r *PostgresIngredientRepo) ListByOwner(ctx context.Context, ownerID string, assignedOnly bool) ([]*model.Ingredient, error) {
	query := `SELECT id, owner_id, name, created_at, updated_at FROM ingredients WHERE owner_id = $1`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM product_ingredients pi WHERE pi.ingredient_id = ingredients.id)`
	}
	query += ` ORDER BY name DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("原材料一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ingredients []*model.Ingredient
	for rows.Next() {
		ing := &model.Ingredient{}
		if err := rows.Scan(&ing.ID, &ing.OwnerID, &ing.Name, &ing.CreatedAt, &ing.UpdatedAt); err != nil {
			return nil, fmt.Errorf("原材料行の読み取りに失敗しました: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("原材料一覧の走査に失敗しました: %w", err)
	}
	return ingredients, nil
}

// FindByIDAndOwner は所有者スコープで原材料を取得する。見つからない場合はnilを返す。
func (r *PostgresIngredientRepo) FindByIDAndOwner(ctx context.Context, ownerID string, id int64) (*model.Ingredient, error) {
	ing := &model.Ingredient{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM ingredients WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	).Scan(&ing.ID, &ing.OwnerID, &ing.Name, &ing.CreatedAt, &ing.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("原材料の取得に失敗しました: %w", err)
	}
	return ing, nil
}

// findByOwnerAndName は (ownerID, name) で原材料を検索する。見つからない場合はnilを返す。
func (r *PostgresIngredientRepo) findByOwnerAndName(ctx context.Context, ownerID, name string) (*model.Ingredient, error) {
	ing := &model.Ingredient{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at, updated_at FROM ingredients WHERE owner_id = $1 AND name = $2`,
		ownerID, name,
	).Scan(&ing.ID, &ing.OwnerID, &ing.Name, &ing.CreatedAt, &ing.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("名前による原材料の検索に失敗しました: %w", err)
	}
	return ing, nil
}

// FindOrCreate は (ownerID, name) の原材料を検索し、なければ作成する。
// 作成競合（一意制約違反）は再検索で回復する。
func (r *PostgresIngredientRepo) FindOrCreate(ctx context.Context, ownerID, name string) (*model.Ingredient, bool, error) {
	existing, err := r.findByOwnerAndName(ctx, ownerID, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now()
	ing := &model.Ingredient{OwnerID: ownerID, Name: name, CreatedAt: now, UpdatedAt: now}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO ingredients (owner_id, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		ownerID, name, now, now,
	).Scan(&ing.ID)

	if isUniqueViolation(err) {
		existing, ferr := r.findByOwnerAndName(ctx, ownerID, name)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("原材料の作成競合後の再検索に失敗しました: %w", err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("原材料の作成に失敗しました: %w", err)
	}

	return ing, true, nil
}

// UpdateName は所有者スコープで原材料名を変更する。対象がない場合はnilを返す。
func (r *PostgresIngredientRepo) UpdateName(ctx context.Context, ownerID string, id int64, name string) (*model.Ingredient, error) {
	ing := &model.Ingredient{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE ingredients SET name = $3, updated_at = NOW()
		 WHERE owner_id = $1 AND id = $2
		 RETURNING id, owner_id, name, created_at, updated_at`,
		ownerID, id, name,
	).Scan(&ing.ID, &ing.OwnerID, &ing.Name, &ing.CreatedAt, &ing.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("原材料名の更新に失敗しました: %w", err)
	}
	return ing, nil
}

// DeleteByIDAndOwner は所有者スコープで原材料を削除する。
// 商品への割り当てはCASCADE削除される。対象がない場合はfalseを返す。
func (r *PostgresIngredientRepo) DeleteByIDAndOwner(ctx context.Context, ownerID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ingredients WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		return false, fmt.Errorf("原材料の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ IngredientRepository = (*PostgresIngredientRepo)(nil)
