package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateUnmarshalJSON(t *testing.T) {
	tests := map[string]time.Time{
		`"2024-01-05"`:                time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		`"2024-01-05T09:30:00Z"`:      time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC),
		`"2024-01-05T09:30:00.5Z"`:    time.Date(2024, 1, 5, 9, 30, 0, 500000000, time.UTC),
		`"2024-01-05T09:30:00+02:00"`: time.Date(2024, 1, 5, 7, 30, 0, 0, time.UTC),
	}
	for input, want := range tests {
		var d Date
		require.NoError(t, d.UnmarshalJSON([]byte(input)), input)
		assert.True(t, want.Equal(d.Time), "%s: got %s", input, d.Time)
	}

	for _, input := range []string{`"05/01/2024"`, `"2024-13-01"`, `20240105`, `"yesterday"`} {
		var d Date
		assert.ErrorIs(t, d.UnmarshalJSON([]byte(input)), ErrInvalidDate, input)
	}
}

func TestRecordRequestDate(t *testing.T) {
	var req RecordRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Lunch","amount":1,"category":"Food","date":null}`), &req))
	assert.Nil(t, req.Date)

	require.NoError(t, json.Unmarshal([]byte(`{"date":""}`), &req))
	require.NotNil(t, req.Date)
	assert.True(t, req.Date.IsZero())

	err := json.Unmarshal([]byte(`{"date":"soon"}`), &req)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
