package model

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "60601", want: "60601"},
		{in: " 60601 ", want: "60601"},
		{in: "601", want: "00601"},
		{in: "7", want: "00007"},
		{in: "sw1a", want: "SW1A"},
		{in: "10115-1234", want: "10115-1234"},
		{in: "", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "60601.csv", wantErr: true},
		{in: "a", wantErr: true},
		{in: "12345678901", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePostalCode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWorkKey(t *testing.T) {
	k, err := NewWorkKey("restaurant", "2134")
	require.NoError(t, err)
	assert.Equal(t, WorkKey{Category: "restaurant", PostalCode: "02134"}, k)
	assert.Equal(t, "restaurant/02134", k.String())

	_, err = NewWorkKey("spaceport", "02134")
	assert.Error(t, err)
}

func TestCategoriesAndStatesSorted(t *testing.T) {
	// ValidCategory and ValidStateCode binary search these lists.
	assert.True(t, slices.IsSorted(Categories()))
	assert.True(t, slices.IsSorted(StateCodes()))
}

func TestValidCategory(t *testing.T) {
	assert.NoError(t, ValidCategory("accounting"))
	assert.NoError(t, ValidCategory("zoo"))
	assert.NoError(t, ValidCategory("car_wash"))
	assert.Error(t, ValidCategory("Restaurant"))
	assert.Error(t, ValidCategory(""))
}

func TestValidStateCode(t *testing.T) {
	assert.NoError(t, ValidStateCode("IL"))
	assert.NoError(t, ValidStateCode("PW"))
	assert.Error(t, ValidStateCode("il"))
	assert.Error(t, ValidStateCode("XX"))
}

func TestValidCountryCode(t *testing.T) {
	assert.NoError(t, ValidCountryCode("US"))
	assert.NoError(t, ValidCountryCode("DE"))
	assert.Error(t, ValidCountryCode("USA"))
	assert.Error(t, ValidCountryCode("Q1"))
	assert.Error(t, ValidCountryCode(""))
}

func TestNormalizeCountryCode(t *testing.T) {
	cc, err := NormalizeCountryCode("us")
	require.NoError(t, err)
	assert.Equal(t, "US", cc)

	cc, err = NormalizeCountryCode(" De ")
	require.NoError(t, err)
	assert.Equal(t, "DE", cc)

	_, err = NormalizeCountryCode("usa")
	assert.Error(t, err)
	assert.NoError(t, ValidCountryCode("us"))
}

func TestRowStringsMatchesHeader(t *testing.T) {
	r := Row{Establishment: "Cafe", PostalCode: "60601", DataSource: "src"}
	vals := r.Strings()
	require.Len(t, vals, len(RowHeader))
	assert.Equal(t, "Cafe", vals[0])
	assert.Equal(t, "60601", vals[slices.Index(RowHeader, "postal_code")])
	assert.Equal(t, "src", vals[len(vals)-1])
}
