package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/internal/dto"
	"github.com/werewolfcoder/OrderingSystem/internal/repository"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
)

func newAdminFixture(t *testing.T) (AdminService, *auth.Manager) {
	tokens := newTestTokens()
	return NewAdminService(repository.NewMemoryAdminRepository(), newTestRegistry(t), tokens, nil), tokens
}

func cafeLuna() *dto.RegisterRequest {
	return &dto.RegisterRequest{
		HotelName: "Cafe Luna",
		AdminName: "Sam",
		Email:     "Sam@CafeLuna.test",
		Password:  "s3cret-pass",
	}
}

func TestAdminService_Register(t *testing.T) {
	svc, tokens := newAdminFixture(t)

	res, err := svc.Register(context.Background(), cafeLuna())
	require.NoError(t, err)
	assert.Equal(t, "cafeluna_sam", res.Admin.Username)
	assert.Equal(t, "cafeluna", res.Admin.TenantID)
	assert.Equal(t, "sam@cafeluna.test", res.Admin.Email)
	assert.Equal(t, domain.RoleAdmin, res.Admin.Role)
	assert.NotEqual(t, "s3cret-pass", res.Admin.PasswordHash)

	claims, err := tokens.Verify(auth.KindAdmin, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "cafeluna", claims.TenantID)
	assert.Equal(t, res.Admin.ID, claims.Subject)
}

func TestAdminService_RegisterConflicts(t *testing.T) {
	svc, _ := newAdminFixture(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, cafeLuna())
	require.NoError(t, err)

	sameHotel := cafeLuna()
	sameHotel.AdminName = "Alex"
	sameHotel.Email = "alex@test"
	_, err = svc.Register(ctx, sameHotel)
	assert.ErrorIs(t, err, domain.ErrConflict)

	sameEmail := cafeLuna()
	sameEmail.HotelName = "Bistro"
	_, err = svc.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAdminService_RegisterInvalidHotel(t *testing.T) {
	svc, _ := newAdminFixture(t)

	req := cafeLuna()
	req.HotelName = "Café; DROP"
	_, err := svc.Register(context.Background(), req)
	assert.True(t, domain.IsValidation(err))
}

func TestAdminService_Login(t *testing.T) {
	svc, _ := newAdminFixture(t)
	ctx := context.Background()
	reg, err := svc.Register(ctx, cafeLuna())
	require.NoError(t, err)

	res, err := svc.Login(ctx, &dto.LoginRequest{Username: "cafeluna_sam", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, reg.Admin.ID, res.Admin.ID)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "cafeluna_sam", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	admin, err := svc.Verify(ctx, reg.Admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "cafeluna_sam", admin.Username)
	_, err = svc.Verify(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
