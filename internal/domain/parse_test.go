package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndicator(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{"1.25", Float(1.25), false},
		{"  -0.5 ", Float(-0.5), false},
		{"3.0%", Float(0.03), false},
		{"12 %", Float(0.12), false},
		{"", nil, false},
		{"NA", nil, false},
		{"n/a", nil, false},
		{"NaN", nil, false},
		{"null", nil, false},
		{"-", nil, false},
		{"Inf", nil, true},
		{"+Infinity", nil, true},
		{"-inf", nil, true},
		{"-NaN", nil, true},
		{"abc", nil, true},
		{"1,5", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIndicator(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-12)
		})
	}
}

func TestParseYear(t *testing.T) {
	y, err := ParseYear("2010")
	require.NoError(t, err)
	assert.Equal(t, 2010, y)

	y, err = ParseYear(" 2015.0 ")
	require.NoError(t, err)
	assert.Equal(t, 2015, y)

	for _, bad := range []string{"", "twenty", "2010.5"} {
		_, err := ParseYear(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidYear(t *testing.T) {
	assert.True(t, ValidYear(MinYear))
	assert.True(t, ValidYear(MaxYear))
	assert.False(t, ValidYear(1999))
	assert.False(t, ValidYear(2025))
}

func TestNormalizeColumn(t *testing.T) {
	tests := map[string]string{
		"Country":              "country",
		"\ufeffYear":           "year",
		" Temp Anomaly (°C) ":  "temp_anomaly_c",
		"CO2-Growth":           "co2_growth",
		"fatalities_per_100k ": "fatalities_per_100k",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeColumn(in), in)
	}
}

func TestSchemaResolve(t *testing.T) {
	s := DefaultSchema()

	t.Run("canonical headers", func(t *testing.T) {
		cols, err := s.Resolve([]string{"Country", "Year", "Temp_Anomaly", "CO2_Growth", "Sea_Level"}, true)
		require.NoError(t, err)
		assert.Equal(t, 0, cols.Index(ColCountry))
		assert.Equal(t, 1, cols.Index(ColYear))
		assert.Equal(t, 3, cols.Index(ColCO2Growth))
		assert.Equal(t, -1, cols.Index(ColCO2Emission))
	})

	t.Run("kaggle aliases without year", func(t *testing.T) {
		cols, err := s.Resolve([]string{"index", "rw_country_name", "cri_score", "losses_usdm_ppp_total", "fatalities_total"}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, cols.Index(ColCountry))
		assert.Equal(t, 2, cols.Index(ColTempAnomaly))
		assert.Equal(t, 3, cols.Index(ColCO2Emission))
		assert.Equal(t, 4, cols.Index(ColSeaLevel))
		assert.Equal(t, -1, cols.Index(ColYear))
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := s.Resolve([]string{"country", "temp_anomaly"}, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSchemaMismatch))
		assert.Contains(t, err.Error(), ColSeaLevel)
		assert.Contains(t, err.Error(), ColYear)
		assert.Contains(t, err.Error(), "co2_growth|co2_emission")
	})
}
