package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/catalog/internal/model"
)

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockTokenRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockTokenRepo) Create(ctx context.Context, token *model.Token) error { return nil }
func (m *mockTokenRepo) FindByID(ctx context.Context, id string) (*model.Token, error) {
	return nil, nil
}
func (m *mockTokenRepo) DeleteByID(ctx context.Context, id string) error { return nil }
func (m *mockTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}
func (m *mockTokenRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

// Profileがユーザー情報を返すことを検証
func TestService_Profile_Success(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "user@example.com", Name: "Test"}, nil
		},
	}

	svc := NewService(userRepo, &mockTokenRepo{})

	user, err := svc.Profile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Profile returned error: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "user@example.com")
	}
}

// Profileが存在しないユーザーにUSER_NOT_FOUNDを返すことを検証
func TestService_Profile_NotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockTokenRepo{})

	_, err := svc.Profile(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
}

// Withdrawがトークン削除の後にユーザー削除を行うことを検証
func TestService_Withdraw_Success(t *testing.T) {
	var order []string
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			order = append(order, "user")
			return nil
		},
	}
	tokenRepo := &mockTokenRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "tokens")
			return nil
		},
	}

	svc := NewService(userRepo, tokenRepo)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if len(order) != 2 || order[0] != "tokens" || order[1] != "user" {
		t.Errorf("deletion order = %v, want [tokens user]", order)
	}
}

// Withdrawが存在しないユーザーにUSER_NOT_FOUNDを返すことを検証
func TestService_Withdraw_NotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockTokenRepo{})

	err := svc.Withdraw(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("error = %v, want USER_NOT_FOUND", err)
	}
}

// トークン削除に失敗した場合、ユーザー削除を行わないことを検証
func TestService_Withdraw_TokenDeleteFails(t *testing.T) {
	userDeleted := false
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			return nil
		},
	}
	tokenRepo := &mockTokenRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			return errors.New("db error")
		},
	}

	svc := NewService(userRepo, tokenRepo)

	if err := svc.Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error")
	}
	if userDeleted {
		t.Error("user must not be deleted when token deletion fails")
	}
}
