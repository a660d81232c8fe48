package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "dotted day first", raw: "31.12.2020", want: time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)},
		{name: "dotted transposed", raw: "12.31.2020", want: time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)},
		{name: "slashed day first", raw: "05/04/2020", want: time.Date(2020, 4, 5, 0, 0, 0, 0, time.UTC)},
		{name: "iso", raw: "2020-04-05", want: time.Date(2020, 4, 5, 0, 0, 0, 0, time.UTC)},
		{name: "compact", raw: "20200405", want: time.Date(2020, 4, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Date(tc.raw)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestDateAbsent(t *testing.T) {
	for _, raw := range []string{"", "NA", "n/a", "None", "  "} {
		got, err := Date(raw)
		require.NoError(t, err, raw)
		assert.Nil(t, got, raw)
	}
}

func TestDateUnrecognized(t *testing.T) {
	_, err := Date("sometime in March")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized date format")
}

func TestAge(t *testing.T) {
	got, err := Age("42")
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)

	got, err = Age("6 months")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-9)

	got, err = Age("26 weeks")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestAgeOutOfBounds(t *testing.T) {
	_, err := Age("301")
	require.Error(t, err)
	_, err = Age("-5")
	require.Error(t, err)
}

func TestAgeRange(t *testing.T) {
	start, end, err := AgeRange("20-29")
	require.NoError(t, err)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, 20.0, *start)
	assert.Equal(t, 29.0, *end)

	start, end, err = AgeRange("90+")
	require.NoError(t, err)
	require.NotNil(t, start)
	assert.Equal(t, 90.0, *start)
	assert.Nil(t, end)

	start, end, err = AgeRange("-5")
	require.NoError(t, err)
	assert.Nil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, 5.0, *end)

	start, end, err = AgeRange("40")
	require.NoError(t, err)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, *start, *end)
}

func TestAgeRangeErrors(t *testing.T) {
	_, _, err := AgeRange("-")
	require.Error(t, err)
	_, _, err = AgeRange("1-2-3")
	require.Error(t, err)
}

func TestBool(t *testing.T) {
	got, err := Bool("Yes")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, *got)

	got, err = Bool("false")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, *got)

	got, err = Bool("na")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Bool("maybe")
	require.Error(t, err)
}

func TestListAuto(t *testing.T) {
	got, err := ListAuto("a, b ,c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got, err = ListAuto("a:b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = ListAuto("a,b:c")
	require.Error(t, err)
}

func TestUniqueList(t *testing.T) {
	got, err := UniqueList("x,y,x,z,y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, got)
}

func TestSex(t *testing.T) {
	for raw, want := range map[string]string{
		"male":      "Male",
		"M":         "Male",
		"Feminino":  "Female",
		"femenino":  "Female",
		"f":         "Female",
		"Other":     "Other",
	} {
		got, err := Sex(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := Sex("unknown value")
	require.Error(t, err)
}

func TestGeoResolution(t *testing.T) {
	got, err := GeoResolution("ADMIN2")
	require.NoError(t, err)
	assert.Equal(t, "Admin2", got)

	_, err = GeoResolution("continent")
	require.Error(t, err)
}
