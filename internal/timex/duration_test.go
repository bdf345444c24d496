package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Expiry Duration `json:"expiry"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"expiry":"15m"}`), &payload))
	assert.Equal(t, 15*time.Minute, payload.Expiry.Duration)

	require.NoError(t, json.Unmarshal([]byte(`{"expiry":60000000000}`), &payload))
	assert.Equal(t, time.Minute, payload.Expiry.Duration)

	assert.Error(t, json.Unmarshal([]byte(`{"expiry":"not-a-duration"}`), &payload))
	assert.Error(t, json.Unmarshal([]byte(`{"expiry":true}`), &payload))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 10 * 24 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, `"240h0m0s"`, string(b))
}
