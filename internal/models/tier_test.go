package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Tier
		wantOK bool
	}{
		{"верхний регистр", "PRO", TierPro, true},
		{"нижний регистр", "elite", TierElite, true},
		{"пробелы по краям", "  free ", TierFree, true},
		{"неизвестный уровень", "GOLD", "", false},
		{"пустая строка", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTier(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTierPrice(t *testing.T) {
	price, ok := TierPrice(TierPro)
	assert.True(t, ok)
	assert.Equal(t, int64(19900), price)

	price, ok = TierPrice(TierElite)
	assert.True(t, ok)
	assert.Equal(t, int64(49900), price)

	_, ok = TierPrice(TierFree)
	assert.False(t, ok)
}

func TestDefaultListingLimit(t *testing.T) {
	assert.Equal(t, 10, DefaultListingLimit(TierFree))
	assert.Equal(t, 50, DefaultListingLimit(TierPro))
	assert.Equal(t, 100, DefaultListingLimit(TierElite))
	assert.Equal(t, 10, DefaultListingLimit(Tier("GOLD")))
}

func TestTier_IsPaid(t *testing.T) {
	assert.True(t, TierPro.IsPaid())
	assert.True(t, TierElite.IsPaid())
	assert.False(t, TierFree.IsPaid())
}
