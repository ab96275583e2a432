package model

import "time"

// Side classifies a track as primary or flip-side content, mirroring
// vinyl record sides. Detection is keyword-based and best-effort.
type Side string

const (
	SideA Side = "Side A"
	SideB Side = "Side B"
)

// Status is the processing state of a track item. The happy path is
// monotonic: pending -> downloaded -> organized -> uploaded -> synced ->
// forwarded. StatusFailed is reachable from any state and retryable.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDownloaded Status = "downloaded"
	StatusOrganized  Status = "organized"
	StatusUploaded   Status = "uploaded"
	StatusSynced     Status = "synced"
	StatusForwarded  Status = "forwarded"
	StatusFailed     Status = "failed"
)

// AllStatuses lists every status in lifecycle order, for summaries and
// dashboard filters.
var AllStatuses = []Status{
	StatusPending,
	StatusDownloaded,
	StatusOrganized,
	StatusUploaded,
	StatusSynced,
	StatusForwarded,
	StatusFailed,
}

// TrackItem is one audio attachment extracted from one channel message.
// ItemID is the platform-assigned file id and is the only key used for
// upsert into the tracker and every downstream sink, which is what makes
// re-running a scan over already-seen messages safe.
type TrackItem struct {
	ItemID            string     `json:"itemId" gorm:"column:item_id;primaryKey;size:64"`
	Title             string     `json:"title" gorm:"size:512"`
	Artist            string     `json:"artist" gorm:"size:512"`
	Album             string     `json:"album" gorm:"size:512"`
	Year              string     `json:"year" gorm:"size:8"`
	Genre             string     `json:"genre" gorm:"size:128"`
	Side              Side       `json:"side" gorm:"size:16"`
	Duration          int        `json:"duration"` // seconds
	FileSize          int64      `json:"fileSize"` // bytes
	LocalPath         string     `json:"-" gorm:"size:1024"`
	SourceMessageID   int64      `json:"sourceMessageId" gorm:"index"`
	SourceChannelID   string     `json:"sourceChannelId" gorm:"size:64;index"`
	UploadDate        time.Time  `json:"uploadDate"`
	ForwardedAt       *time.Time `json:"forwardedAt,omitempty"`
	CloudURL          string     `json:"cloudUrl,omitempty" gorm:"size:1024"`
	SecondaryCloudURL string     `json:"secondaryCloudUrl,omitempty" gorm:"size:1024"`
	DatabaseRecordID  string     `json:"databaseRecordId,omitempty" gorm:"size:128"`
	SpreadsheetRow    int        `json:"spreadsheetRow,omitempty"`
	Status            Status     `json:"status" gorm:"size:16;index"`
	ErrorNote         string     `json:"errorNote,omitempty" gorm:"size:1024"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// TableName overrides the GORM default pluralization.
func (TrackItem) TableName() string {
	return "track_items"
}
