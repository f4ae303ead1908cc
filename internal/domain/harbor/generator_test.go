package harbor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSetupParams() SetupParams {
	return SetupParams{
		Goods:      5,
		Size:       8,
		MinLife:    3,
		MaxLife:    9,
		BerthsMin:  1,
		BerthsMax:  4,
		FillTarget: 40,
	}
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func TestDrawLayout_HitsFillTargetExactly(t *testing.T) {
	params := defaultSetupParams()

	for seed := int64(1); seed <= 50; seed++ {
		layout, err := DrawLayout(rand.New(rand.NewSource(seed)), params)
		require.NoError(t, err)

		assert.Equal(t, params.FillTarget, sum(layout.OfferTons), "seed %d offers", seed)
		assert.Equal(t, params.FillTarget, sum(layout.DemandTons), "seed %d demands", seed)
	}
}

func TestDrawLayout_ForcesDistinctOfferAndDemand(t *testing.T) {
	params := defaultSetupParams()

	for seed := int64(1); seed <= 50; seed++ {
		layout, err := DrawLayout(rand.New(rand.NewSource(seed)), params)
		require.NoError(t, err)

		assert.NotEqual(t, layout.FirstOffer, layout.FirstDemand)
		assert.Positive(t, layout.OfferTons[layout.FirstOffer])
		assert.Positive(t, layout.DemandTons[layout.FirstDemand])
		for g := range layout.OfferTons {
			assert.False(t, layout.OfferTons[g] > 0 && layout.DemandTons[g] > 0, "good %d both offered and demanded", g)
		}
	}
}

func TestDrawLayout_BerthsAndLifeStayInRange(t *testing.T) {
	params := defaultSetupParams()

	for seed := int64(1); seed <= 50; seed++ {
		layout, err := DrawLayout(rand.New(rand.NewSource(seed)), params)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, layout.Berths, params.BerthsMin)
		assert.LessOrEqual(t, layout.Berths, params.BerthsMax)
		for g, tons := range layout.OfferTons {
			if tons == 0 {
				continue
			}
			assert.GreaterOrEqual(t, layout.OfferExpiry[g], params.MinLife)
			assert.LessOrEqual(t, layout.OfferExpiry[g], params.MaxLife)
		}
	}
}

func TestDrawLayout_TinyFillTargetTerminates(t *testing.T) {
	params := defaultSetupParams()
	params.FillTarget = 1

	layout, err := DrawLayout(rand.New(rand.NewSource(7)), params)

	require.NoError(t, err)
	assert.Equal(t, 1, sum(layout.OfferTons))
	assert.Equal(t, 1, sum(layout.DemandTons))
}

func TestDrawLayout_RejectsSingleGood(t *testing.T) {
	params := defaultSetupParams()
	params.Goods = 1

	_, err := DrawLayout(rand.New(rand.NewSource(1)), params)

	require.Error(t, err)
}

func TestGenerate_SemaphoresMatchTons(t *testing.T) {
	port, err := Generate(rand.New(rand.NewSource(3)), 0, PlacePorts(rand.New(rand.NewSource(3)), 1, 10)[0], defaultSetupParams())
	require.NoError(t, err)

	view := port.View()
	for g := range view.Offers {
		assert.Equal(t, view.Offers[g].Tons, view.Offers[g].Reservable)
		assert.Equal(t, view.Demands[g].Tons, view.Demands[g].Reservable)
	}
	assert.Equal(t, 40, port.OfferedTons())
}

func TestPlacePorts_CornersFirst(t *testing.T) {
	positions := PlacePorts(rand.New(rand.NewSource(1)), 6, 100)

	require.Len(t, positions, 6)
	assert.Equal(t, 0.0, positions[0].X)
	assert.Equal(t, 0.0, positions[0].Y)
	assert.Equal(t, 100.0, positions[1].Y)
	assert.Equal(t, 100.0, positions[2].X)
	assert.Equal(t, 100.0, positions[3].X)
	assert.Equal(t, 100.0, positions[3].Y)
	for _, p := range positions[4:] {
		assert.True(t, p.Within(100))
	}
}
