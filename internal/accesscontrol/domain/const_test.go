package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Allows(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		required Role
		want     bool
	}{
		{"admin satisfies admin", RoleAdmin, RoleAdmin, true},
		{"admin satisfies operator", RoleAdmin, RoleOperator, true},
		{"admin satisfies reader", RoleAdmin, RoleReader, true},
		{"operator satisfies operator", RoleOperator, RoleOperator, true},
		{"operator satisfies reader", RoleOperator, RoleReader, true},
		{"operator does not satisfy admin", RoleOperator, RoleAdmin, false},
		{"reader satisfies reader", RoleReader, RoleReader, true},
		{"reader does not satisfy operator", RoleReader, RoleOperator, false},
		{"reader does not satisfy admin", RoleReader, RoleAdmin, false},
		{"unknown role satisfies nothing", Role("owner"), RoleReader, false},
		{"unknown requirement is never satisfied", RoleAdmin, Role("owner"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Allows(tt.required))
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleOperator.IsValid())
	assert.True(t, RoleReader.IsValid())
	assert.False(t, Role("owner").IsValid())
	assert.False(t, Role("").IsValid())
}
