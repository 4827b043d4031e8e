package model

import (
	"errors"
	"strings"
	"testing"
)

// APIErrorがerrorインターフェースを実装し、コードとメッセージを含むことを検証
func TestAPIError_Error(t *testing.T) {
	err := NewProductNotFoundError(42)
	if !strings.Contains(err.Error(), "PRODUCT_NOT_FOUND") {
		t.Errorf("Error() = %q, want to contain PRODUCT_NOT_FOUND", err.Error())
	}
	if !strings.Contains(err.Error(), "42") {
		t.Errorf("Error() = %q, want to contain product ID", err.Error())
	}
}

// errors.AsでAPIErrorを取り出せることを検証
func TestAPIError_ErrorsAs(t *testing.T) {
	var err error = NewTagNotFoundError(1)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As failed to extract *APIError")
	}
	if apiErr.Code != ErrCodeTagNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeTagNotFound)
	}
}

// ValidationError.Errorがフィールド名順にメッセージを連結することを検証
func TestValidationError_Error_Sorted(t *testing.T) {
	err := NewValidationError(map[string]string{
		"price": "This field is required.",
		"name":  "This field is required.",
	})

	msg := err.Error()
	nameIdx := strings.Index(msg, "name")
	priceIdx := strings.Index(msg, "price")
	if nameIdx < 0 || priceIdx < 0 {
		t.Fatalf("Error() = %q, want both field names", msg)
	}
	if nameIdx > priceIdx {
		t.Errorf("Error() = %q, want fields in sorted order", msg)
	}
}

// NewOwnerFieldErrorが所有者フィールドの固定メッセージを持つことを検証
func TestNewOwnerFieldError(t *testing.T) {
	err := NewOwnerFieldError()
	msg, ok := err.Fields["user"]
	if !ok {
		t.Fatal("expected user field in validation error")
	}
	if msg != "You cannot update the user of a product." {
		t.Errorf("message = %q, want fixed owner field message", msg)
	}
}
