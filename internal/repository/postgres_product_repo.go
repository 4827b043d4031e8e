package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/catalog/internal/model"
)

// productColumns は商品行のSELECT句。Scanの順序と対応する。
const productColumns = `id, owner_id, name, description, price, image, image_blur_hash, created_at, updated_at`

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// scanProduct は1行を*model.Productに読み取る。
func scanProduct(row interface{ Scan(...interface{}) error }) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Price,
		&p.Image, &p.ImageBlurHash, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByIDAndOwner は所有者スコープで商品を取得する。
// 存在しない場合および他ユーザー所有の場合はnilを返す。
func (r *PostgresProductRepo) FindByIDAndOwner(ctx context.Context, ownerID string, id int64) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	return p, nil
}

// ListByOwner は所有者の商品一覧をid降順で返す。
// タグ・原材料のIDフィルタはそれぞれIN句のサブクエリで適用する。
// サブクエリによる絞り込みのため結果に重複は生じない。
func (r *PostgresProductRepo) ListByOwner(ctx context.Context, ownerID string, filter ProductFilter) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if len(filter.TagIDs) > 0 {
		args = append(args, pq.Array(filter.TagIDs))
		query += fmt.Sprintf(` AND id IN (SELECT product_id FROM product_tags WHERE tag_id = ANY($%d))`, len(args))
	}
	if len(filter.IngredientIDs) > 0 {
		args = append(args, pq.Array(filter.IngredientIDs))
		query += fmt.Sprintf(` AND id IN (SELECT product_id FROM product_ingredients WHERE ingredient_id = ANY($%d))`, len(args))
	}

	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("商品行の読み取りに失敗しました: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("商品一覧の走査に失敗しました: %w", err)
	}
	return products, nil
}

// Create は商品を作成し、採番されたIDをproduct.IDに設定する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (owner_id, name, description, price, image, image_blur_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		product.OwnerID, product.Name, product.Description, product.Price,
		product.Image, product.ImageBlurHash, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("商品の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は商品のスカラーフィールドを更新する。所有者は変更しない。
func (r *PostgresProductRepo) Update(ctx context.Context, product *model.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $2, description = $3, price = $4, updated_at = $5
		 WHERE id = $1`,
		product.ID, product.Name, product.Description, product.Price, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("商品の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("商品が見つかりません: %d", product.ID)
	}
	return nil
}

// DeleteByIDAndOwner は所有者スコープで商品を削除する。
// 割り当て行はCASCADE削除される。対象がない場合はfalseを返す。
func (r *PostgresProductRepo) DeleteByIDAndOwner(ctx context.Context, ownerID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		return false, fmt.Errorf("商品の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// UpdateImage は商品の画像ファイル名とBlurHashを更新する。
func (r *PostgresProductRepo) UpdateImage(ctx context.Context, productID int64, image, blurHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET image = $2, image_blur_hash = $3, updated_at = NOW() WHERE id = $1`,
		productID, image, blurHash,
	)
	if err != nil {
		return fmt.Errorf("商品画像の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("商品が見つかりません: %d", productID)
	}
	return nil
}

// ReplaceTagAssignments は商品のタグ割り当てをtagIDsと完全に一致させる。
func (r *PostgresProductRepo) ReplaceTagAssignments(ctx context.Context, productID int64, tagIDs []int64) error {
	return r.replaceAssignments(ctx, "product_tags", "tag_id", productID, tagIDs)
}

// ReplaceIngredientAssignments は商品の原材料割り当てをingredientIDsと完全に一致させる。
func (r *PostgresProductRepo) ReplaceIngredientAssignments(ctx context.Context, productID int64, ingredientIDs []int64) error {
	return r.replaceAssignments(ctx, "product_ingredients", "ingredient_id", productID, ingredientIDs)
}

// replaceAssignments は割り当てテーブルの内容を目標のID集合と一致させる。
// 目標に含まれない行をDELETEし、不足分をINSERTする差分適用を
// 同一トランザクション内で行う。空のIDリストは全削除。
func (r *PostgresProductRepo) replaceAssignments(ctx context.Context, table, column string, productID int64, ids []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(ids) == 0 {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE product_id = $1`, table),
			productID,
		); err != nil {
			return fmt.Errorf("割り当ての全解除に失敗しました: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE product_id = $1 AND %s <> ALL($2)`, table, column),
			productID, pq.Array(ids),
		); err != nil {
			return fmt.Errorf("不要な割り当ての解除に失敗しました: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (product_id, %s)
			 SELECT $1, unnest($2::bigint[])
			 ON CONFLICT DO NOTHING`, table, column),
			productID, pq.Array(ids),
		); err != nil {
			return fmt.Errorf("割り当ての追加に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TagsByProductIDs は複数商品のタグ割り当てを一括取得する。
func (r *PostgresProductRepo) TagsByProductIDs(ctx context.Context, productIDs []int64) (map[int64][]model.Tag, error) {
	result := make(map[int64][]model.Tag)
	if len(productIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT pt.product_id, t.id, t.owner_id, t.name, t.created_at, t.updated_at
		 FROM product_tags pt
		 JOIN tags t ON pt.tag_id = t.id
		 WHERE pt.product_id = ANY($1)
		 ORDER BY t.name ASC`,
		pq.Array(productIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("タグ割り当ての取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		var tag model.Tag
		if err := rows.Scan(&productID, &tag.ID, &tag.OwnerID, &tag.Name, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, fmt.Errorf("タグ割り当て行の読み取りに失敗しました: %w", err)
		}
		result[productID] = append(result[productID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグ割り当ての走査に失敗しました: %w", err)
	}
	return result, nil
}

// IngredientsByProductIDs は複数商品の原材料割り当てを一括取得する。
func (r *PostgresProductRepo) IngredientsByProductIDs(ctx context.Context, productIDs []int64) (map[int64][]model.Ingredient, error) {
	result := make(map[int64][]model.Ingredient)
	if len(productIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT pi.product_id, i.id, i.owner_id, i.name, i.created_at, i.updated_at
		 FROM product_ingredients pi
		 JOIN ingredients i ON pi.ingredient_id = i.id
		 WHERE pi.product_id = ANY($1)
		 ORDER BY i.name ASC`,
		pq.Array(productIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("原材料割り当ての取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		var ing model.Ingredient
		if err := rows.Scan(&productID, &ing.ID, &ing.OwnerID, &ing.Name, &ing.CreatedAt, &ing.UpdatedAt); err != nil {
			return nil, fmt.Errorf("原材料割り当て行の読み取りに失敗しました: %w", err)
		}
		result[productID] = append(result[productID], ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("原材料割り当ての走査に失敗しました: %w", err)
	}
	return result, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
