package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/domain/shared"
)

func TestShip_SeaStatusFollowsCargo(t *testing.T) {
	ship, err := NewShip(3, shared.NewPosition(1, 2), 2, 20)
	require.NoError(t, err)

	assert.Equal(t, shared.ShipStatusEmpty, ship.Status())
	assert.Equal(t, shared.ShipStatusEmpty, ship.SeaStatus())

	require.NoError(t, ship.Hold().Load(0, 5, 4))
	assert.Equal(t, shared.ShipStatusLoaded, ship.SeaStatus())

	previous := ship.SetStatus(shared.ShipStatusInPort)
	assert.Equal(t, shared.ShipStatusEmpty, previous)

	ship.MoveTo(shared.NewPosition(9, 9))
	assert.Equal(t, shared.NewPosition(9, 9), ship.Position())
}
