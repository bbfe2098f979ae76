package temperature

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCelsiusToFahrenheit(t *testing.T) {
	tests := []struct {
		name    string
		celsius float64
		want    float64
	}{
		{name: "freezing point", celsius: 0, want: 32},
		{name: "boiling point", celsius: 100, want: 212},
		{name: "below freezing", celsius: -20, want: -4},
		{name: "scales meet", celsius: -40, want: -40},
		{name: "body temperature", celsius: 37, want: 98.6},
		{name: "below absolute zero", celsius: -300, want: -508},
	}

	conv := NewConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CelsiusToFahrenheit(tt.celsius), Tolerance)
			assert.InDelta(t, tt.want, conv.CelsiusToFahrenheit(tt.celsius), Tolerance)
		})
	}
}

func TestFahrenheitToCelsius(t *testing.T) {
	tests := []struct {
		name       string
		fahrenheit float64
		want       float64
	}{
		{name: "freezing point", fahrenheit: 32, want: 0},
		{name: "boiling point", fahrenheit: 212, want: 100},
		{name: "below freezing", fahrenheit: -4, want: -20},
		{name: "scales meet", fahrenheit: -40, want: -40},
		{name: "zero fahrenheit", fahrenheit: 0, want: -17.77777},
	}

	conv := NewConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FahrenheitToCelsius(tt.fahrenheit), Tolerance)
			assert.InDelta(t, tt.want, conv.FahrenheitToCelsius(tt.fahrenheit), Tolerance)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		c := (r.Float64()*2 - 1) * 1e6
		got := FahrenheitToCelsius(CelsiusToFahrenheit(c))
		assert.True(t, ApproxEqual(c, got), "round trip of %v gave %v", c, got)
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		input   string
		want    Unit
		wantErr bool
	}{
		{input: "c", want: Celsius},
		{input: "C", want: Celsius},
		{input: "Celsius", want: Celsius},
		{input: " f ", want: Fahrenheit},
		{input: "FAHRENHEIT", want: Fahrenheit},
		{input: "k", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUnit(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown temperature unit")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert(t *testing.T) {
	got, err := Convert(100, Celsius, Fahrenheit)
	require.NoError(t, err)
	assert.InDelta(t, 212, got, Tolerance)

	got, err = Convert(212, Fahrenheit, Celsius)
	require.NoError(t, err)
	assert.InDelta(t, 100, got, Tolerance)

	got, err = Convert(12.5, Celsius, Celsius)
	require.NoError(t, err)
	assert.Equal(t, 12.5, got)

	_, err = Convert(1, Unit("K"), Celsius)
	require.Error(t, err)
}

func TestUnitName(t *testing.T) {
	assert.Equal(t, "celsius", Celsius.Name())
	assert.Equal(t, "fahrenheit", Fahrenheit.Name())
	assert.Equal(t, "unknown", Unit("K").Name())
	assert.Equal(t, "F", Fahrenheit.String())
}
