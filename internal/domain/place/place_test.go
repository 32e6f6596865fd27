package place

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlace_SameAs(t *testing.T) {
	goa := Place{CanonicalName: "Goa", Key: "goa", Latitude: 15.2993, Longitude: 74.1240}
	panaji := Place{CanonicalName: "Panaji", Key: "panaji", Latitude: 15.4909, Longitude: 73.8278}
	geocodedGoa := Place{CanonicalName: "Goa", Key: "goa velha", Latitude: 15.2990, Longitude: 74.1243, Transient: true}
	catalogTwin := Place{CanonicalName: "Goa Airport", Key: "goa airport", Latitude: 15.2993, Longitude: 74.1240}

	tests := []struct {
		name string
		a, b Place
		want bool
	}{
		{name: "same key", a: goa, b: Place{Key: "goa"}, want: true},
		{name: "different places", a: goa, b: panaji, want: false},
		{name: "geocoded spelling at same spot", a: geocodedGoa, b: goa, want: true},
		{name: "geocoded far away", a: geocodedGoa, b: panaji, want: false},
		{name: "catalog places compare by key only", a: goa, b: catalogTwin, want: false},
		{name: "zero place", a: Place{}, b: Place{}, want: false},
		{name: "zero origin against geocoded", a: Place{}, b: Place{Key: "x", Transient: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SameAs(tt.b))
			assert.Equal(t, tt.want, tt.b.SameAs(tt.a))
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "new delhi", NormalizeKey("  New   DELHI "))
	assert.Empty(t, NormalizeKey("   "))
}
