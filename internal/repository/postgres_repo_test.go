package repository

import "testing"

// 各実装がリポジトリインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ TokenRepository = (*PostgresTokenRepo)(nil)
	var _ ProductRepository = (*PostgresProductRepo)(nil)
	var _ TagRepository = (*PostgresTagRepo)(nil)
	var _ IngredientRepository = (*PostgresIngredientRepo)(nil)
}

// コンストラクタが非nilのインスタンスを返すことを検証
func TestNewPostgresRepos(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("NewPostgresUserRepo returned nil")
	}
	if NewPostgresTokenRepo(nil) == nil {
		t.Error("NewPostgresTokenRepo returned nil")
	}
	if NewPostgresProductRepo(nil) == nil {
		t.Error("NewPostgresProductRepo returned nil")
	}
	if NewPostgresTagRepo(nil) == nil {
		t.Error("NewPostgresTagRepo returned nil")
	}
	if NewPostgresIngredientRepo(nil) == nil {
		t.Error("NewPostgresIngredientRepo returned nil")
	}
}
