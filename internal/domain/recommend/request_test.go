package recommend

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/outfit-recommender/pkg/errors"
)

func TestParseRequestAliases(t *testing.T) {
	req, err := ParseRequest([]byte(`{
		"style": "Casual",
		"colors": ["Red", " navy "],
		"occasion": ["work"],
		"bodyShape": "pear",
		"skin": "warm",
		"temperature": "21.5",
		"location": "Perth",
		"useWeather": "yes",
		"collectionName": "Custom",
		"image_count": "6",
		"excludeNames": ["a.png", "b.png"]
	}`))
	require.NoError(t, err)
	require.Equal(t, []string{"Casual"}, req.Styles)
	require.Equal(t, []string{"Red", "navy"}, req.Colours)
	require.Equal(t, []string{"work"}, req.Occasions)
	require.Equal(t, []string{"pear"}, req.BodyShapes)
	require.Equal(t, []string{"warm"}, req.SkinTones)
	require.NotNil(t, req.Temperature)
	require.Equal(t, 21.5, *req.Temperature)
	require.Equal(t, "Perth", req.City)
	require.True(t, req.UseWeather)
	require.Equal(t, "custom", req.Collection)
	require.Equal(t, 6, req.ImageCount)
	require.Equal(t, []string{"a.png", "b.png"}, req.ExcludeNames)
}

func TestParseRequestGarbageDegrades(t *testing.T) {
	req, err := ParseRequest([]byte(`{
		"styles": {"nested": true},
		"colours": [null, 7, "", {"x": 1}],
		"temperature": "warm",
		"use_weather": "nope",
		"image_count": "lots"
	}`))
	require.NoError(t, err)
	require.Empty(t, req.Styles)
	require.Equal(t, []string{"7"}, req.Colours)
	require.Nil(t, req.Temperature)
	require.False(t, req.UseWeather)
	require.Equal(t, ImageCountUnset, req.ImageCount)
}

func TestParseRequestEmptyBody(t *testing.T) {
	req, err := ParseRequest(nil)
	require.NoError(t, err)
	require.Equal(t, Request{}, req)

	req, err = ParseRequest([]byte("null"))
	require.NoError(t, err)
	require.Equal(t, Request{}, req)
}

func TestParseRequestRejectsUnparseableBody(t *testing.T) {
	_, err := ParseRequest([]byte(`{"styles": [`))
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = ParseRequest([]byte(`["casual"]`))
	require.Error(t, err)
}

func TestUseWeatherValues(t *testing.T) {
	for _, raw := range []string{`true`, `"true"`, `"1"`, `"YES"`, `"on"`, `1`} {
		req, err := ParseRequest([]byte(`{"use_weather": ` + raw + `}`))
		require.NoError(t, err)
		require.True(t, req.UseWeather, raw)
	}
	for _, raw := range []string{`false`, `"0"`, `"off"`, `0`, `null`} {
		req, err := ParseRequest([]byte(`{"use_weather": ` + raw + `}`))
		require.NoError(t, err)
		require.False(t, req.UseWeather, raw)
	}
}

func TestClampCount(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{raw: `{}`, want: 4},
		{raw: `{"image_count": "abc"}`, want: 4},
		{raw: `{"image_count": 0}`, want: 1},
		{raw: `{"image_count": -3}`, want: 1},
		{raw: `{"image_count": 7}`, want: 7},
		{raw: `{"image_count": 7.9}`, want: 7},
		{raw: `{"image_count": 100}`, want: 20},
		{raw: `{"image_count": 1e30}`, want: 20},
	}
	for _, tc := range cases {
		req, err := ParseRequest([]byte(tc.raw))
		require.NoError(t, err)
		require.Equal(t, tc.want, clampCount(req.ImageCount, 4, 20), tc.raw)
	}
}
