package harbor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/domain/goods"
	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

// singleGoodPort offers 10 tons of good 0 expiring on day 5 and demands 6 tons of good 1
func singleGoodPort(t *testing.T) *Port {
	t.Helper()
	port, err := Build(0, shared.NewPosition(0, 0), Layout{
		Berths:      1,
		OfferTons:   []int{10, 0},
		OfferExpiry: []int{5, 0},
		DemandTons:  []int{0, 6},
	})
	require.NoError(t, err)
	return port
}

func TestPort_CommitLoadReleasesUnusedReservation(t *testing.T) {
	// Arrange
	port := singleGoodPort(t)
	require.NoError(t, port.ReserveOffer(context.Background(), 0, 8))

	// Act
	settlement, err := port.CommitLoad(0, 8, 5, 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, Settlement{Committed: 5, Released: 3}, settlement)
	offer := port.Offer(0)
	assert.Equal(t, 5, offer.Tons)
	assert.Equal(t, 5, offer.Reservable)
}

func TestPort_CommitLoadOnExpiredLotWritesRemainderOff(t *testing.T) {
	port := singleGoodPort(t)
	require.NoError(t, port.ReserveOffer(context.Background(), 0, 8))

	settlement, err := port.CommitLoad(0, 8, 2, 5)

	require.NoError(t, err)
	assert.Equal(t, 6, settlement.Expired)
	offer := port.Offer(0)
	assert.Equal(t, 2, offer.Tons)
	assert.Equal(t, goods.ProductStatusExpiredAtPort, offer.Status)
	assert.LessOrEqual(t, offer.Reservable, offer.Tons)
}

func TestPort_CommitLoadRejectsMoreThanReserved(t *testing.T) {
	port := singleGoodPort(t)

	_, err := port.CommitLoad(0, 3, 4, 1)

	require.Error(t, err)
}

func TestPort_CommitUnloadMarksDemandDelivered(t *testing.T) {
	port := singleGoodPort(t)
	require.NoError(t, port.ReserveDemand(context.Background(), 1, 6))

	settlement, err := port.CommitUnload(1, 6, 6)

	require.NoError(t, err)
	assert.Equal(t, 6, settlement.Committed)
	demand := port.Demand(1)
	assert.Equal(t, 0, demand.Tons)
	assert.Equal(t, goods.ProductStatusDelivered, demand.Status)
}

func TestPort_CanLoadChecksExpiryAndTons(t *testing.T) {
	port := singleGoodPort(t)

	assert.True(t, port.CanLoad(0, 10, 4))
	assert.False(t, port.CanLoad(0, 11, 4))
	assert.False(t, port.CanLoad(0, 1, 5))
	assert.False(t, port.CanLoad(1, 1, 1))
	assert.True(t, port.CanUnload(1))
	assert.False(t, port.CanUnload(0))
}

func TestPort_SettleRejectedLoad(t *testing.T) {
	t.Run("fresh lot gets its reservation back", func(t *testing.T) {
		port := singleGoodPort(t)
		require.NoError(t, port.ReserveOffer(context.Background(), 0, 4))

		settlement, err := port.SettleRejectedLoad(0, 4, 1)

		require.NoError(t, err)
		assert.Equal(t, 4, settlement.Released)
		assert.Equal(t, 10, port.Offer(0).Reservable)
	})

	t.Run("expired lot writes the reservation off", func(t *testing.T) {
		port := singleGoodPort(t)
		require.NoError(t, port.ReserveOffer(context.Background(), 0, 4))

		settlement, err := port.SettleRejectedLoad(0, 4, 6)

		require.NoError(t, err)
		assert.Equal(t, 4, settlement.Expired)
		assert.Equal(t, 6, port.Offer(0).Tons)
	})
}

func TestPort_ExpireOffersDrainsFreeTonsOnly(t *testing.T) {
	// Arrange: a ship holds 3 tons in flight
	port := singleGoodPort(t)
	require.NoError(t, port.ReserveOffer(context.Background(), 0, 3))

	// Act
	expired := port.ExpireOffers(5)

	// Assert
	require.Equal(t, []Expiry{{GoodID: 0, Tons: 7}}, expired)
	offer := port.Offer(0)
	assert.Equal(t, 3, offer.Tons)
	assert.Equal(t, 0, offer.Reservable)
	assert.Equal(t, goods.ProductStatusExpiredAtPort, offer.Status)

	// A second sweep finds nothing
	assert.Empty(t, port.ExpireOffers(6))
}

func TestPort_ExpireOffersIgnoresFreshLots(t *testing.T) {
	port := singleGoodPort(t)

	assert.Empty(t, port.ExpireOffers(4))
	assert.Equal(t, 10, port.Offer(0).Tons)
}

func TestPort_CloseTwice(t *testing.T) {
	port := singleGoodPort(t)

	require.NoError(t, port.Close())
	require.NoError(t, port.Close())
	assert.Error(t, port.ReserveOffer(context.Background(), 0, 1))
}

func TestPort_ExpireOffersPicksUpTonsLeftOnExpiredLot(t *testing.T) {
	port := singleGoodPort(t)
	require.NoError(t, port.ReserveOffer(context.Background(), 0, 8))
	_, err := port.CommitLoad(0, 8, 2, 5)
	require.NoError(t, err)

	expired := port.ExpireOffers(5)

	assert.Equal(t, []Expiry{{GoodID: 0, Tons: 2}}, expired)
	assert.Equal(t, 0, port.Offer(0).Tons)
}
