package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileByName(t *testing.T) {
	for _, name := range ProfileNames() {
		p, ok := ProfileByName(name)
		require.True(t, ok, "profile %s", name)
		assert.Equal(t, name, p.Name)
		assert.Greater(t, p.BatchSize, 0)
	}

	_, ok := ProfileByName("does-not-exist")
	assert.False(t, ok)

	p, ok := ProfileByName("COMPLETE")
	assert.True(t, ok)
	assert.Equal(t, "complete", p.Name)
}

func TestProfileDefaults(t *testing.T) {
	complete, _ := ProfileByName("complete")
	assert.Zero(t, complete.MaxMessages)
	assert.True(t, complete.DownloadFiles)

	meta, _ := ProfileByName("metadata")
	assert.False(t, meta.DownloadFiles)

	sample, _ := ProfileByName("sample")
	assert.Equal(t, 100, sample.MaxMessages)
}

func TestFingerprint(t *testing.T) {
	t.Run("stable for identical parameters", func(t *testing.T) {
		a := CustomProfile(0, 100, time.Second, time.Time{}, time.Time{}, true)
		b := CustomProfile(500, 25, 5*time.Second, time.Time{}, time.Time{}, true)

		// Batch size, delay and caps do not change what a scan can see.
		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("changes with date window", func(t *testing.T) {
		start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
		a := CustomProfile(0, 100, time.Second, time.Time{}, time.Time{}, true)
		b := CustomProfile(0, 100, time.Second, start, time.Time{}, true)

		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("changes with download mode", func(t *testing.T) {
		a := CustomProfile(0, 100, time.Second, time.Time{}, time.Time{}, true)
		b := CustomProfile(0, 100, time.Second, time.Time{}, time.Time{}, false)

		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("same-day timestamps match", func(t *testing.T) {
		morning := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
		evening := time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC)
		a := CustomProfile(0, 100, time.Second, morning, time.Time{}, true)
		b := CustomProfile(0, 100, time.Second, evening, time.Time{}, true)

		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})
}

func TestCustomProfileBatchSizeFloor(t *testing.T) {
	p := CustomProfile(0, 0, 0, time.Time{}, time.Time{}, true)
	assert.Equal(t, 100, p.BatchSize)
}
