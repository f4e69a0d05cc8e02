package validate

import (
	"github.com/ShiraazMoollatjie/goluhn"
)

const trackingNumberLength = 12

func IsLuna(s string) bool {
	err := goluhn.Validate(s)
	return err == nil
}

// TrackingNumber returns a random Luhn-valid order number.
func TrackingNumber() string {
	return goluhn.Generate(trackingNumberLength)
}
