package product

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hitoshi/catalog/internal/model"
)

// ParseIDList はカンマ区切りのID文字列をint64スライスに変換する。
// 空文字列には空のスライスを返す。重複したIDは1件に正規化される。
// 整数として解釈できないトークンが含まれる場合はValidationErrorを返す。
func ParseIDList(field, raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, model.NewFieldValidationError(field,
				fmt.Sprintf("Invalid ID: %q. Expected a comma-separated list of integers.", p))
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseAssignedOnly はassigned_onlyクエリパラメータを解釈する。
// "1"と"true"は有効、"0"と"false"と空文字列は無効として扱う。
// それ以外の値はValidationErrorを返す。
func ParseAssignedOnly(raw string) (bool, error) {
	switch raw {
	case "", "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, model.NewFieldValidationError("assigned_only",
			fmt.Sprintf("Invalid value: %q. Expected 0 or 1.", raw))
	}
}
