package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntent_DerivesFlags(t *testing.T) {
	tests := []struct {
		action     Action
		comparison bool
		trend      bool
	}{
		{ActionCompare, true, false},
		{ActionTrend, false, true},
		{ActionDisplay, false, false},
		{ActionUnknown, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			intent, err := NewIntent(tt.action, TimeframePast)
			require.NoError(t, err)
			assert.Equal(t, tt.comparison, intent.Comparison)
			assert.Equal(t, tt.trend, intent.Trend)
			assert.Equal(t, TimeframePast, intent.Timeframe)
		})
	}
}

func TestNewIntent_RejectsUnknownValues(t *testing.T) {
	_, err := NewIntent("summarize", TimeframeCurrent)
	assert.Error(t, err)

	_, err = NewIntent(ActionDisplay, "someday")
	assert.Error(t, err)
}

func TestIntent_ValidateFlags(t *testing.T) {
	assert.Error(t, Intent{Action: ActionDisplay, Comparison: true, Timeframe: TimeframeCurrent}.Validate())
	assert.NoError(t, UnknownIntent().Validate())
}

func TestIntent_UnmarshalEmptyObject(t *testing.T) {
	var intent Intent
	require.NoError(t, json.Unmarshal([]byte(`{}`), &intent))
	assert.Equal(t, UnknownIntent(), intent)
}

func TestIntent_UnmarshalRederivesFlags(t *testing.T) {
	var intent Intent
	require.NoError(t, json.Unmarshal([]byte(`{"action":"compare","comparison":false,"trend":true,"timeframe":"past"}`), &intent))

	assert.Equal(t, ActionCompare, intent.Action)
	assert.True(t, intent.Comparison)
	assert.False(t, intent.Trend)
	assert.Equal(t, TimeframePast, intent.Timeframe)
}

func TestIntent_UnmarshalRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "action", data: `{"action":"explode"}`},
		{name: "timeframe", data: `{"action":"trend","timeframe":"someday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var intent Intent
			assert.Error(t, json.Unmarshal([]byte(tt.data), &intent))
		})
	}
}
