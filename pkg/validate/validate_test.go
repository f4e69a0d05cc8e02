package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLuna(t *testing.T) {
	assert.True(t, IsLuna("2404815702"))
	assert.True(t, IsLuna("79927398713"))
	assert.False(t, IsLuna("79927398710"))
	assert.False(t, IsLuna("invalid"))
	assert.False(t, IsLuna(""))
}

func TestTrackingNumber(t *testing.T) {
	for i := 0; i < 20; i++ {
		n := TrackingNumber()
		assert.Len(t, n, trackingNumberLength)
		assert.True(t, IsLuna(n), n)
	}
}

type line struct {
	ItemID   int `validate:"required,gt=0"`
	Quantity int `validate:"required,gt=0"`
}

type request struct {
	Login string `validate:"required,min=3"`
	Lines []line `validate:"required,min=1,dive"`
}

func TestStruct(t *testing.T) {
	err := Struct(request{Login: "bob", Lines: []line{{ItemID: 1, Quantity: 2}}})
	assert.NoError(t, err)

	err = Struct(request{Login: "b", Lines: []line{{ItemID: 1, Quantity: 0}}})
	require.Error(t, err)

	details := Details(err)
	assert.Equal(t, "failed on 'min=3'", details["request.Login"])
	assert.Equal(t, "failed on 'required'", details["request.Lines[0].Quantity"])
}

func TestDetailsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Details(assert.AnError))
}
