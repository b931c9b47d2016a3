package services

import (
	"testing"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPolicy() *models.Policy {
	return &models.Policy{
		TenantID:  "acme",
		AgentType: "ops",
		Name:      "scale-up",
		Active:    true,
		Conditions: []models.Condition{
			{Field: "cpu", Operator: ">", Value: 80.0},
		},
		Actions: []models.ActionSpec{
			{Action: "scale", Params: map[string]any{"replicas": 3}},
		},
	}
}

func TestPolicy_Create(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), validPolicy())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestPolicy_CreateNil(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	_, err := service.Create(t.Context(), nil)
	assert.ErrorIs(t, err, ErrPolicyNil)
}

func TestPolicy_CreateRejectsUnknownOperator(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	policy := validPolicy()
	policy.Conditions[0].Operator = ">="

	_, err := service.Create(t.Context(), policy)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPolicyDocument)
	assert.True(t, IsValidationError(err))
}

func TestPolicy_CreateRejectsEmptyActions(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	policy := validPolicy()
	policy.Actions = nil

	_, err := service.Create(t.Context(), policy)
	assert.ErrorIs(t, err, ErrInvalidPolicyDocument)
}

func TestPolicy_CreateRejectsShortName(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	policy := validPolicy()
	policy.Name = "ab"

	_, err := service.Create(t.Context(), policy)
	assert.ErrorIs(t, err, ErrInvalidPolicyDocument)
}

func TestPolicy_CreateRejectsMissingTenant(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	policy := validPolicy()
	policy.TenantID = ""

	_, err := service.Create(t.Context(), policy)
	assert.ErrorIs(t, err, ErrInvalidPolicyDocument)
}

func TestPolicy_UpdatePreservesIdentityAndCreationTime(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), validPolicy())
	require.NoError(t, err)

	replacement := validPolicy()
	replacement.Name = "scale-up-v2"
	replacement.Priority = 5

	updated, err := service.Update(t.Context(), created.ID, replacement)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "scale-up-v2", updated.Name)
	assert.Equal(t, 5, updated.Priority)
}

func TestPolicy_UpdateUnknownID(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	_, err := service.Update(t.Context(), "missing", validPolicy())
	assert.ErrorIs(t, err, persistence.ErrPolicyNotFound)
}

func TestPolicy_ListByTenantRequiresTenant(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	_, err := service.ListByTenant(t.Context(), "")
	assert.ErrorIs(t, err, ErrEmptyTenantID)
}

func TestPolicy_Delete(t *testing.T) {
	service := NewPolicy(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), validPolicy())
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, persistence.ErrPolicyNotFound)
}
