package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lavai-rg/telegram-automation/model"
	"github.com/lavai-rg/telegram-automation/repository"
)

// topArtistLimit bounds the artist leaderboard in the report.
const topArtistLimit = 20

// ArtistCount is one leaderboard row.
type ArtistCount struct {
	Artist string `json:"artist"`
	Count  int    `json:"count"`
}

// Report is the archive analysis written as JSON and summarized on the
// command line.
type Report struct {
	GeneratedAt    time.Time              `json:"generated_at"`
	TotalTracks    int                    `json:"total_tracks"`
	TotalSizeBytes int64                  `json:"total_size_bytes"`
	TotalDuration  int64                  `json:"total_duration_seconds"`
	ByStatus       map[model.Status]int64 `json:"by_status"`
	ByYear         map[string]int         `json:"by_year"`
	ByMonth        map[string]int         `json:"by_month"`
	ByFormat       map[string]int         `json:"by_format"`
	BySide         map[model.Side]int     `json:"by_side"`
	SizeBuckets    map[string]int         `json:"size_buckets"`
	TopArtists     []ArtistCount          `json:"top_artists"`
	UniqueArtists  int                    `json:"unique_artists"`
	UniqueAlbums   int                    `json:"unique_albums"`
}

// Analyzer aggregates tracker contents into a Report.
type Analyzer struct {
	tracks repository.TrackRepository
}

func NewAnalyzer(tracks repository.TrackRepository) *Analyzer {
	return &Analyzer{tracks: tracks}
}

// pageSize for walking the tracker during analysis.
const pageSize = 500

// Run walks the whole tracker and aggregates the report.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	agg := newAggregation()

	for page := 1; ; page++ {
		items, err := a.tracks.List(ctx, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list tracks: %w", err)
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			agg.add(item)
		}
		if len(items) < pageSize {
			break
		}
	}

	return agg.finish(), nil
}

// ReportFromItems aggregates a report over an in-memory item set, e.g. one
// loaded from an exported JSON file.
func ReportFromItems(items []*model.TrackItem) *Report {
	agg := newAggregation()
	for _, item := range items {
		agg.add(item)
	}
	return agg.finish()
}

// ReadItemsFile loads previously exported track items from a JSON array.
func ReadItemsFile(path string) ([]*model.TrackItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exported items: %w", err)
	}
	var items []*model.TrackItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse exported items: %w", err)
	}
	return items, nil
}

type aggregation struct {
	report  *Report
	artists map[string]int
	albums  map[string]struct{}
}

func newAggregation() *aggregation {
	return &aggregation{
		report: &Report{
			GeneratedAt: time.Now(),
			ByStatus:    make(map[model.Status]int64),
			ByYear:      make(map[string]int),
			ByMonth:     make(map[string]int),
			ByFormat:    make(map[string]int),
			BySide:      make(map[model.Side]int),
			SizeBuckets: make(map[string]int),
		},
		artists: make(map[string]int),
		albums:  make(map[string]struct{}),
	}
}

func (a *aggregation) finish() *Report {
	a.report.UniqueArtists = len(a.artists)
	a.report.UniqueAlbums = len(a.albums)
	a.report.TopArtists = topArtists(a.artists, topArtistLimit)
	return a.report
}

func (a *aggregation) add(item *model.TrackItem) {
	report, artists, albums := a.report, a.artists, a.albums
	report.TotalTracks++
	report.TotalSizeBytes += item.FileSize
	report.TotalDuration += int64(item.Duration)
	report.ByStatus[item.Status]++
	report.BySide[item.Side]++
	report.SizeBuckets[sizeBucket(item.FileSize)]++

	if item.Year != "" {
		report.ByYear[item.Year]++
	}
	if !item.UploadDate.IsZero() {
		report.ByMonth[item.UploadDate.Format("2006-01")]++
	}
	if ext := formatOf(item); ext != "" {
		report.ByFormat[ext]++
	}
	if artist := strings.TrimSpace(item.Artist); artist != "" {
		artists[artist]++
	}
	if album := strings.TrimSpace(item.Album); album != "" {
		albums[strings.ToLower(album)] = struct{}{}
	}
}

// sizeBucket groups files into the coarse size classes used by the report.
func sizeBucket(size int64) string {
	const mb = 1 << 20
	switch {
	case size < 5*mb:
		return "<5MB"
	case size < 20*mb:
		return "5-20MB"
	case size < 100*mb:
		return "20-100MB"
	default:
		return ">=100MB"
	}
}

func formatOf(item *model.TrackItem) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(item.LocalPath), "."))
	if ext == "" && item.CloudURL != "" {
		ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(item.CloudURL), "."))
	}
	return ext
}

func topArtists(artists map[string]int, limit int) []ArtistCount {
	ranked := make([]ArtistCount, 0, len(artists))
	for artist, count := range artists {
		ranked = append(ranked, ArtistCount{Artist: artist, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Artist < ranked[j].Artist
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// WriteJSON stores the report at path, creating parent directories.
func (r *Report) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Summary renders the short human-readable digest printed after analysis.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tracks: %d (%.1f GB, %s play time)\n",
		r.TotalTracks,
		float64(r.TotalSizeBytes)/(1<<30),
		(time.Duration(r.TotalDuration) * time.Second).String())
	fmt.Fprintf(&b, "Artists: %d unique, Albums: %d unique\n", r.UniqueArtists, r.UniqueAlbums)

	if len(r.TopArtists) > 0 {
		b.WriteString("Top artists:\n")
		for i, a := range r.TopArtists {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  %d. %s (%d)\n", i+1, a.Artist, a.Count)
		}
	}

	if len(r.ByStatus) > 0 {
		b.WriteString("Status:\n")
		for _, status := range model.AllStatuses {
			if n := r.ByStatus[status]; n > 0 {
				fmt.Fprintf(&b, "  %-10s %d\n", status, n)
			}
		}
	}
	return b.String()
}
