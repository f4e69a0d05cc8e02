package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{StatusPending, StatusInStore, true},
		{StatusPending, StatusOutToDelivery, true},
		{StatusPending, StatusRefused, true},
		{StatusPending, StatusDelivered, false},
		{StatusInStore, StatusOutToDelivery, true},
		{StatusInStore, StatusRefused, false},
		{StatusInStore, StatusPending, false},
		{StatusOutToDelivery, StatusDelivered, true},
		{StatusOutToDelivery, StatusRefused, true},
		{StatusOutToDelivery, StatusInStore, false},
		{StatusDelivered, StatusRefused, false},
		{StatusRefused, StatusPending, false},
		{OrderStatus("lost"), StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
}

func TestOrderStatusFlags(t *testing.T) {
	assert.True(t, StatusPending.Editable())
	assert.False(t, StatusInStore.Editable())
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusRefused.Terminal())
	assert.False(t, StatusOutToDelivery.Terminal())
	assert.False(t, OrderStatus("lost").Valid())
	assert.False(t, OrderStatus("lost").Terminal())
}

func TestParseActorKind(t *testing.T) {
	k, err := ParseActorKind("captain")
	assert.NoError(t, err)
	assert.Equal(t, KindCaptain, k)

	_, err = ParseActorKind("driver")
	assert.Error(t, err)

	assert.Equal(t, "user:7", ActorRef{Kind: KindUser, ID: 7}.String())
	assert.True(t, ActorRef{}.IsZero())
}
