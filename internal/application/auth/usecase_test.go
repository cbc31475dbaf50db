package auth_test

import (
	"context"
	"testing"

	"github.com/jhoicas/stockledger-api/internal/application/auth"
	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*auth.AuthUseCase, entity.Actor, int64) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	repos := st.Repositories()
	b := &entity.Business{Name: "Minimarket", Type: entity.BusinessTypeMart}
	require.NoError(t, repos.Businesses.Create(ctx, b))
	s := &entity.Store{BusinessID: b.ID, Name: "Centro", Active: true}
	require.NoError(t, repos.Stores.Create(ctx, s))
	uc := auth.NewAuthUseCase(st, repos, auth.JWTConfig{Secret: "secreto", ExpMinutes: 10, Issuer: "test"})
	return uc, entity.Actor{BusinessID: b.ID, UserID: 1}, s.ID
}

func TestRegisterYLogin_TokenConIdentidad(t *testing.T) {
	uc, actor, store := setup(t)
	ctx := context.Background()

	u, err := uc.RegisterUser(ctx, actor, dto.RegisterRequest{Email: "Bodega@Tienda.co", Password: "clave-segura", Role: entity.RoleBodeguero, StoreID: &store})
	require.NoError(t, err)
	assert.Equal(t, "bodega@tienda.co", u.Email)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "bodega@tienda.co", Password: "clave-segura"})
	require.NoError(t, err)
	id, err := jwt.Parse("secreto", out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, actor.BusinessID, id.BusinessID)
	assert.Equal(t, store, id.StoreID)
	assert.Equal(t, entity.RoleBodeguero, id.Role)
}

func TestLogin_ClaveIncorrecta(t *testing.T) {
	uc, actor, _ := setup(t)
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, actor, dto.RegisterRequest{Email: "a@b.co", Password: "clave-segura"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "a@b.co", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@b.co", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegister_EmailDuplicadoYTiendaAjena(t *testing.T) {
	uc, actor, _ := setup(t)
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, actor, dto.RegisterRequest{Email: "a@b.co", Password: "clave-segura"})
	require.NoError(t, err)
	_, err = uc.RegisterUser(ctx, actor, dto.RegisterRequest{Email: "A@b.co", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	other := int64(99)
	_, err = uc.RegisterUser(ctx, actor, dto.RegisterRequest{Email: "c@b.co", Password: "clave-segura", StoreID: &other})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
