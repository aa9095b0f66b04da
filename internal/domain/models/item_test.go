package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterItems(t *testing.T) {
	items := []Item{{Name: "Apple", Quantity: 1}, {Name: "Grapes", Quantity: 2}, {Name: "Bread", Quantity: 1}}

	tests := []struct {
		query string
		want  []string
	}{
		{"ap", []string{"Apple", "Grapes"}},
		{"AP", []string{"Apple", "Grapes"}},
		{"", []string{"Apple", "Grapes", "Bread"}},
		{"read", []string{"Bread"}},
		{"kiwi", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, item := range FilterItems(items, tt.query) {
				got = append(got, item.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Rice", Item{Name: "rice"}.DisplayName())
	assert.Equal(t, "Éclair", Item{Name: "éclair"}.DisplayName())
	assert.Equal(t, "", Item{}.DisplayName())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ValidateName("Rice"))
	assert.ErrorIs(t, ValidateName(""), ErrInvalidItem)
	assert.ErrorIs(t, ValidateName(" \t"), ErrInvalidItem)
	assert.NoError(t, ValidateIncrement(1))
	assert.ErrorIs(t, ValidateIncrement(0), ErrInvalidItem)
}

func TestApplyDelta(t *testing.T) {
	tests := []struct {
		name    string
		current Fields
		exists  bool
		delta   int
		want    Fields
		result  Adjustment
	}{
		{"absent decrement", Fields{}, false, -1, Fields{}, Adjustment{}},
		{"absent increment creates", Fields{}, false, 3, Fields{Quantity: 3}, Adjustment{Quantity: 3}},
		{"increment", Fields{Quantity: 1}, true, 2, Fields{Quantity: 3}, Adjustment{Existed: true, Quantity: 3}},
		{"decrement", Fields{Quantity: 2}, true, -1, Fields{Quantity: 1}, Adjustment{Existed: true, Quantity: 1}},
		{"last unit deletes", Fields{Quantity: 1}, true, -1, Fields{}, Adjustment{Existed: true, Deleted: true}},
		{"overshoot deletes", Fields{Quantity: 1}, true, -5, Fields{}, Adjustment{Existed: true, Deleted: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, result := ApplyDelta(tt.current, tt.exists, tt.delta)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.result, result)
		})
	}
}
