package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRupiah(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		500:      "500",
		1000:     "1.000",
		15000:    "15.000",
		25000:    "25.000",
		1250000:  "1.250.000",
		-15000:   "-15.000",
		10000000: "10.000.000",
	}
	for amount, want := range tests {
		assert.Equal(t, want, Rupiah(amount), "amount=%d", amount)
	}
}
