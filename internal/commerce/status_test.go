package commerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{StatusPending, StatusShipped}:   true,
		{StatusPending, StatusCancelled}: true,
		{StatusShipped, StatusDelivered}: true,
		{StatusShipped, StatusCancelled}: true,
	}

	// Toutes les paires, auto-transitions comprises : seules les quatre
	// arêtes de la table passent.
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			got := CanTransition(from, to)
			assert.Equalf(t, allowed[[2]OrderStatus{from, to}], got, "%s → %s", from, to)
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	assert.False(t, CanTransition(StatusPending, OrderStatus("paid")))
	assert.False(t, CanTransition(OrderStatus("paid"), StatusShipped))
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusShipped))
	assert.True(t, IsTerminal(StatusDelivered))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.False(t, IsTerminal(OrderStatus("paid")))
}

func TestValidStatus(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus(OrderStatus("")))
	assert.False(t, ValidStatus(OrderStatus("refunded")))
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t, []OrderStatus{StatusShipped, StatusCancelled}, NextStatuses(StatusPending))
	assert.Empty(t, NextStatuses(StatusDelivered))
}
