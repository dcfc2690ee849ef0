package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slamkit/fusion/internal/model"
)

func TestAverageCoordsSameLengthAveragesEveryPoint(t *testing.T) {
	a := []model.CloudPoint{{X: 0, Y: 0}, {X: 2, Y: 2}}
	b := []model.CloudPoint{{X: 2, Y: 2}, {X: 4, Y: 0}}
	got := averageCoords(a, b)
	assert.Equal(t, []model.CloudPoint{{X: 1, Y: 1}, {X: 3, Y: 1}}, got)
}

func TestAverageCoordsShorterBAppendsALeftover(t *testing.T) {
	a := []model.CloudPoint{{X: 0, Y: 0}, {X: 10, Y: 10}}
	b := []model.CloudPoint{{X: 2, Y: 2}}
	got := averageCoords(a, b)
	assert.Equal(t, []model.CloudPoint{{X: 1, Y: 1}, {X: 10, Y: 10}}, got)
}

func TestAverageCoordsShorterAAppendsBLeftover(t *testing.T) {
	a := []model.CloudPoint{{X: 0, Y: 0}}
	b := []model.CloudPoint{{X: 2, Y: 2}, {X: 9, Y: 9}}
	got := averageCoords(a, b)
	assert.Equal(t, []model.CloudPoint{{X: 1, Y: 1}, {X: 9, Y: 9}}, got)
}

func TestAverageCoordsEmptyInputs(t *testing.T) {
	got := averageCoords(nil, nil)
	assert.Empty(t, got)
}
