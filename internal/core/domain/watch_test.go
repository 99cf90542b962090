package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  WatchConfig
		wantErr bool
	}{
		{name: "minimum interval", config: WatchConfig{Interval: MinWatchInterval}},
		{name: "with overlap", config: WatchConfig{Interval: time.Hour, Overlap: DefaultWatchOverlap, MaxRuns: 3}},
		{name: "interval too short", config: WatchConfig{Interval: 30 * time.Second}, wantErr: true},
		{name: "negative overlap", config: WatchConfig{Interval: time.Hour, Overlap: -time.Second}, wantErr: true},
		{name: "overlap as long as interval", config: WatchConfig{Interval: time.Hour, Overlap: time.Hour}, wantErr: true},
		{name: "negative max runs", config: WatchConfig{Interval: time.Hour, MaxRuns: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWatchResult_NextSince(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	started := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	ok := WatchResult{Since: since, StartedAt: started}
	assert.Equal(t, started, ok.NextSince(0))
	assert.Equal(t, started.Add(-time.Minute), ok.NextSince(time.Minute))

	failed := WatchResult{Since: since, StartedAt: started, Err: errors.New("boom")}
	assert.Equal(t, since, failed.NextSince(time.Minute))

	// The window never moves backwards.
	early := WatchResult{Since: since, StartedAt: since.Add(time.Second)}
	assert.Equal(t, since, early.NextSince(time.Minute))
}
