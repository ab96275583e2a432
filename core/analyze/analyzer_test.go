package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavai-rg/telegram-automation/model"
)

type stubTrackRepo struct {
	items []*model.TrackItem
}

func (r *stubTrackRepo) Upsert(ctx context.Context, item *model.TrackItem) error { return nil }
func (r *stubTrackRepo) GetByID(ctx context.Context, itemID string) (*model.TrackItem, error) {
	return nil, nil
}
func (r *stubTrackRepo) ListByStatus(ctx context.Context, status model.Status, page, limit int) ([]*model.TrackItem, error) {
	return nil, nil
}
func (r *stubTrackRepo) CountsByStatus(ctx context.Context) (map[model.Status]int64, error) {
	return nil, nil
}

func (r *stubTrackRepo) List(ctx context.Context, page, limit int) ([]*model.TrackItem, error) {
	offset := (page - 1) * limit
	if offset >= len(r.items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.items) {
		end = len(r.items)
	}
	return r.items[offset:end], nil
}

const mb = 1 << 20

func track(id int, artist, year string, size int64, status model.Status) *model.TrackItem {
	return &model.TrackItem{
		ItemID:     fmt.Sprintf("%d", id),
		Title:      fmt.Sprintf("Track %d", id),
		Artist:     artist,
		Album:      "Album " + artist,
		Year:       year,
		Duration:   180,
		FileSize:   size,
		LocalPath:  fmt.Sprintf("/x/%d.mp3", id),
		UploadDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:     status,
		Side:       model.SideA,
	}
}

func TestAnalyzer_Run(t *testing.T) {
	repo := &stubTrackRepo{items: []*model.TrackItem{
		track(1, "Koes Plus", "1971", 3*mb, model.StatusSynced),
		track(2, "Koes Plus", "1972", 10*mb, model.StatusSynced),
		track(3, "Rhoma Irama", "1973", 50*mb, model.StatusUploaded),
		track(4, "Rhoma Irama", "1973", 150*mb, model.StatusFailed),
		track(5, "Elvy Sukaesih", "", 4*mb, model.StatusPending),
	}}

	report, err := NewAnalyzer(repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.TotalTracks)
	assert.Equal(t, int64(217*mb), report.TotalSizeBytes)
	assert.Equal(t, int64(5*180), report.TotalDuration)

	assert.Equal(t, int64(2), report.ByStatus[model.StatusSynced])
	assert.Equal(t, int64(1), report.ByStatus[model.StatusFailed])

	assert.Equal(t, 2, report.ByYear["1973"])
	assert.Equal(t, 1, report.ByYear["1971"])
	assert.NotContains(t, report.ByYear, "")

	assert.Equal(t, 5, report.ByMonth["2023-06"])
	assert.Equal(t, 5, report.ByFormat["mp3"])

	assert.Equal(t, 2, report.SizeBuckets["<5MB"])
	assert.Equal(t, 1, report.SizeBuckets["5-20MB"])
	assert.Equal(t, 1, report.SizeBuckets["20-100MB"])
	assert.Equal(t, 1, report.SizeBuckets[">=100MB"])

	assert.Equal(t, 3, report.UniqueArtists)
	assert.Equal(t, 3, report.UniqueAlbums)

	require.NotEmpty(t, report.TopArtists)
	assert.Equal(t, "Koes Plus", report.TopArtists[0].Artist)
	assert.Equal(t, 2, report.TopArtists[0].Count)
}

func TestAnalyzer_EmptyTracker(t *testing.T) {
	report, err := NewAnalyzer(&stubTrackRepo{}).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.TotalTracks)
	assert.Empty(t, report.TopArtists)
}

func TestTopArtists_RankingAndLimit(t *testing.T) {
	counts := map[string]int{"a": 1, "b": 3, "c": 3, "d": 2}

	ranked := topArtists(counts, 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, ArtistCount{Artist: "b", Count: 3}, ranked[0], "ties break alphabetically")
	assert.Equal(t, ArtistCount{Artist: "c", Count: 3}, ranked[1])
	assert.Equal(t, ArtistCount{Artist: "d", Count: 2}, ranked[2])
}

func TestSizeBucket(t *testing.T) {
	assert.Equal(t, "<5MB", sizeBucket(0))
	assert.Equal(t, "<5MB", sizeBucket(5*mb-1))
	assert.Equal(t, "5-20MB", sizeBucket(5*mb))
	assert.Equal(t, "20-100MB", sizeBucket(99*mb))
	assert.Equal(t, ">=100MB", sizeBucket(100*mb))
}

func TestReportFromItemsFile(t *testing.T) {
	items := []*model.TrackItem{
		track(1, "Koes Plus", "1971", 3*mb, model.StatusSynced),
		track(2, "Rhoma Irama", "1973", 10*mb, model.StatusSynced),
	}
	data, err := json.Marshal(items)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := ReadItemsFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	report := ReportFromItems(loaded)
	assert.Equal(t, 2, report.TotalTracks)
	assert.Equal(t, 2, report.UniqueArtists)

	_, err = ReadItemsFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReport_WriteJSON(t *testing.T) {
	report := &Report{GeneratedAt: time.Now(), TotalTracks: 1}
	path := filepath.Join(t.TempDir(), "reports", "out.json")

	require.NoError(t, report.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_tracks": 1`)
}
