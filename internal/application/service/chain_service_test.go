package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

func TestBuildChain_FullChain(t *testing.T) {
	userRepo := &mockUserRepo{
		managers: map[int64]*entity.User{
			10: {ID: 2, Role: entity.RoleManager},
		},
		roleHolders: map[string]*entity.User{
			entity.RoleFinance:  {ID: 3, Role: entity.RoleFinance},
			entity.RoleDirector: {ID: 4, Role: entity.RoleDirector},
			entity.RoleAdmin:    {ID: 5, Role: entity.RoleAdmin},
		},
	}
	svc := NewChainService(userRepo, nopLogger{})

	chain, err := svc.BuildChain(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, []entity.ApprovalChainEntry{
		{ApproverID: 2, StepOrder: 1},
		{ApproverID: 3, StepOrder: 2},
		{ApproverID: 4, StepOrder: 3},
		{ApproverID: 5, StepOrder: 4},
	}, chain)
}

func TestBuildChain_NoManager(t *testing.T) {
	userRepo := &mockUserRepo{
		roleHolders: map[string]*entity.User{
			entity.RoleFinance:  {ID: 3},
			entity.RoleDirector: {ID: 4},
			entity.RoleAdmin:    {ID: 5},
		},
	}
	svc := NewChainService(userRepo, nopLogger{})

	chain, err := svc.BuildChain(context.Background(), 1, 10)
	require.NoError(t, err)

	// The chain stays contiguous from step 1 when the manager stage is
	// absent.
	assert.Equal(t, []entity.ApprovalChainEntry{
		{ApproverID: 3, StepOrder: 1},
		{ApproverID: 4, StepOrder: 2},
		{ApproverID: 5, StepOrder: 3},
	}, chain)
}

func TestBuildChain_MissingMiddleRole(t *testing.T) {
	userRepo := &mockUserRepo{
		managers: map[int64]*entity.User{
			10: {ID: 2},
		},
		roleHolders: map[string]*entity.User{
			entity.RoleAdmin: {ID: 5},
		},
	}
	svc := NewChainService(userRepo, nopLogger{})

	chain, err := svc.BuildChain(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, []entity.ApprovalChainEntry{
		{ApproverID: 2, StepOrder: 1},
		{ApproverID: 5, StepOrder: 2},
	}, chain)
}

func TestBuildChain_Empty(t *testing.T) {
	svc := NewChainService(&mockUserRepo{}, nopLogger{})

	chain, err := svc.BuildChain(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, chain)
}
