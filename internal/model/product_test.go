package model

import "testing"

// ValidPriceが正しい価格形式を受理することを検証
func TestValidPrice_Accepts(t *testing.T) {
	valid := []string{
		"0",
		"5",
		"5.25",
		"10.5",
		"0.01",
		"99999999",
		"99999999.99",
	}
	for _, s := range valid {
		if !ValidPrice(s) {
			t.Errorf("ValidPrice(%q) = false, want true", s)
		}
	}
}

// ValidPriceが不正な価格形式を拒否することを検証
func TestValidPrice_Rejects(t *testing.T) {
	invalid := []string{
		"",
		".",
		".5",
		"5.",
		"5.255",
		"-1",
		"+1",
		"1e3",
		"abc",
		"12.3.4",
		"1,000",
		"999999999", // 整数部9桁
		" 5",
	}
	for _, s := range invalid {
		if ValidPrice(s) {
			t.Errorf("ValidPrice(%q) = true, want false", s)
		}
	}
}
