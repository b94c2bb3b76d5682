package roster_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/repository"
	"github.com/wardops-lab/lifeline/pkg/service/roster"
)

func seedRoster(t *testing.T, repo *repository.Memory) {
	t.Helper()
	ctx := context.Background()

	members := []staff.Staff{
		{ID: "rn-1", Name: "Asha Patel", Role: types.RoleNurse, HospitalID: "h-1", OnDuty: true},
		{ID: "rn-2", Name: "Miguel Sanz", Role: types.RoleNurse, HospitalID: "h-1", OnDuty: false},
		{ID: "dr-1", Name: "Ines Oliveira", Role: types.RoleDoctor, HospitalID: "h-1", OnDuty: true},
		{ID: "hd-1", Name: "Tomasz Nowak", Role: types.RoleHeadDoctor, HospitalID: "h-1", OnDuty: true},
		{ID: "op-1", Name: "Dana Cole", Role: types.RoleOperator, HospitalID: "h-1", OnDuty: true},
		{ID: "rn-9", Name: "Yuki Tanaka", Role: types.RoleNurse, HospitalID: "h-2", OnDuty: true},
	}
	for _, m := range members {
		require.NoError(t, repo.PutStaff(ctx, m))
	}
}

func TestResolveTierRoles(t *testing.T) {
	repo := repository.NewMemory()
	seedRoster(t, repo)
	r := roster.New(repo)
	ctx := context.Background()

	tests := []struct {
		name string
		tier int
		want []types.UserID
	}{
		{"tier 1 reaches on-duty nurses", 1, []types.UserID{"rn-1"}},
		{"tier 2 reaches doctors", 2, []types.UserID{"dr-1"}},
		{"tier 3 reaches the head doctor", 3, []types.UserID{"hd-1"}},
		{"tier 4 reaches all clinical staff", 4, []types.UserID{"dr-1", "hd-1", "rn-1"}},
		{"tiers past the table use the broadest tier", 7, []types.UserID{"dr-1", "hd-1", "rn-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, "h-1", tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.IDs())
		})
	}
}

func TestResolveScopedToHospital(t *testing.T) {
	repo := repository.NewMemory()
	seedRoster(t, repo)
	r := roster.New(repo)

	got, err := r.Resolve(context.Background(), "h-2", 1)
	require.NoError(t, err)
	assert.Equal(t, []types.UserID{"rn-9"}, got.IDs())

	got, err = r.Resolve(context.Background(), "h-2", 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveRejectsInvalidTier(t *testing.T) {
	r := roster.New(repository.NewMemory())

	_, err := r.Resolve(context.Background(), "h-1", 0)
	assert.Error(t, err)
}

func TestResolveCustomTierRoles(t *testing.T) {
	repo := repository.NewMemory()
	seedRoster(t, repo)
	r := roster.New(repo, roster.WithTierRoles(map[int][]types.Role{
		1: {types.RoleNurse, types.RoleDoctor},
		2: {types.RoleHeadDoctor},
	}))

	got, err := r.Resolve(context.Background(), "h-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []types.UserID{"dr-1", "rn-1"}, got.IDs())
}
