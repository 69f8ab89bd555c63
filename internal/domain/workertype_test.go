package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainParams() *CountryParams {
	return &CountryParams{
		WorkerTypes: map[string]WorkerTypeRules{
			"private_employee": {
				Label:          "Private-sector employee",
				CoverageStatus: CoverageMandatory,
				SchemeIDs:      []string{"db_main", "dc_mandatory"},
				SourceCitation: "Labour Code art. 2",
			},
			"public_employee": {
				Label:   "Public-sector employee",
				Inherit: "private_employee",
				EligibilityOverride: &WorkerTypeEligibilityOverride{
					NormalRetirementAgeMale: Sourced(60, "Public Service Act"),
				},
			},
			"military": {
				Label:     "Armed forces",
				Inherit:   "public_employee",
				SchemeIDs: []string{"military_pension"},
			},
			"looper_a": {Inherit: "looper_b"},
			"looper_b": {Inherit: "looper_a"},
		},
	}
}

func TestResolveWorkerTypeSingleLevel(t *testing.T) {
	cp := chainParams()
	wt, err := cp.ResolveWorkerType("public_employee")
	require.NoError(t, err)

	// Scalars and lists come down from the parent unless overridden.
	assert.Equal(t, "Public-sector employee", wt.Label)
	assert.Equal(t, CoverageMandatory, wt.CoverageStatus)
	assert.Equal(t, []string{"db_main", "dc_mandatory"}, wt.SchemeIDs)
	assert.Equal(t, "Labour Code art. 2", wt.SourceCitation)
	assert.Empty(t, wt.Inherit)

	require.NotNil(t, wt.EligibilityOverride)
	nra, ok := wt.EligibilityOverride.NormalRetirementAgeMale.Decimal()
	require.True(t, ok)
	assert.Equal(t, "60", nra.String())
}

func TestResolveWorkerTypeTwoLevels(t *testing.T) {
	cp := chainParams()
	wt, err := cp.ResolveWorkerType("military")
	require.NoError(t, err)

	// The grandchild's scheme list replaces wholesale; the intermediate
	// override object survives untouched.
	assert.Equal(t, []string{"military_pension"}, wt.SchemeIDs)
	assert.Equal(t, CoverageMandatory, wt.CoverageStatus)
	require.NotNil(t, wt.EligibilityOverride)
	assert.NotNil(t, wt.EligibilityOverride.NormalRetirementAgeMale)
}

func TestResolveWorkerTypeNotFound(t *testing.T) {
	cp := chainParams()
	_, err := cp.ResolveWorkerType("astronaut")
	assert.Error(t, err)
}

func TestResolveWorkerTypeCycleTerminates(t *testing.T) {
	// Load-time validation rejects cycles; resolution must still terminate
	// if one slips through.
	cp := chainParams()
	_, err := cp.ResolveWorkerType("looper_a")
	assert.NoError(t, err)
}

func TestResolveWorkerTypeDoesNotMutateOriginal(t *testing.T) {
	cp := chainParams()
	_, err := cp.ResolveWorkerType("military")
	require.NoError(t, err)

	base := cp.WorkerTypes["private_employee"]
	assert.Equal(t, []string{"db_main", "dc_mandatory"}, base.SchemeIDs)
	assert.Nil(t, base.EligibilityOverride)
}
