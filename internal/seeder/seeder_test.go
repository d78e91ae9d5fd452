package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appservice "dhruva/internal/approval/service"
	appstore "dhruva/internal/approval/store"
	idservice "dhruva/internal/identity/service"
	idstore "dhruva/internal/identity/store"
	"dhruva/internal/platform/logger"
	vetservice "dhruva/internal/vetting/service"
	vetstore "dhruva/internal/vetting/store"
	"dhruva/pkg/domain"
	dErrors "dhruva/pkg/domain-errors"
)

func newServices(t *testing.T) (*idservice.Service, *vetservice.Service, *appservice.Service) {
	t.Helper()
	accounts := idstore.NewInMemory()
	vetting, err := vetservice.New(vetstore.NewInMemory(), accounts)
	require.NoError(t, err)
	identity, err := idservice.New(accounts, idservice.WithVetting(vetting))
	require.NoError(t, err)
	approvals, err := appservice.New(appstore.NewInMemory())
	require.NoError(t, err)
	return identity, vetting, approvals
}

func TestSeedAll(t *testing.T) {
	ctx := context.Background()
	identity, vetting, approvals := newServices(t)

	sum, err := New(identity, approvals, logger.Discard()).SeedAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Accounts: 5, Approvals: 3}, sum)

	uni, err := identity.GetByWallet(ctx, UniversityWallet)
	require.NoError(t, err)
	assert.False(t, uni.IsApproved)

	holder, err := identity.GetByWallet(ctx, HolderWallet)
	require.NoError(t, err)
	assert.True(t, holder.IsApproved)

	listings, err := vetting.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listings, 2, "each organization opens a vetting request")

	pending, err := approvals.ListByOrganization(ctx, UniversityWallet, string(domain.StatusPending))
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestSeedAllTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	identity, _, approvals := newServices(t)
	s := New(identity, approvals, logger.Discard())

	_, err := s.SeedAll(ctx)
	require.NoError(t, err)

	sum, err := s.SeedAll(ctx)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Zero(t, sum.Accounts)
}
