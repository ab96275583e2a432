package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lavai-rg/telegram-automation/model"
)

// RecordClient talks to the spreadsheet-like record API. Records are
// upserted by item id, so re-syncing the same item updates the existing row
// instead of creating a duplicate.
type RecordClient struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

func NewRecordClient(baseURL, apiKey, table string) *RecordClient {
	return &RecordClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		table:   table,
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

// recordFields is the payload shape the record API expects.
type recordFields struct {
	ItemID     string `json:"item_id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Year       string `json:"year"`
	Side       string `json:"side"`
	Duration   int    `json:"duration"`
	FileSize   int64  `json:"file_size"`
	UploadDate string `json:"upload_date"`
	CloudURL   string `json:"cloud_url"`
	Status     string `json:"status"`
}

type recordResponse struct {
	ID  string `json:"id"`
	Row int    `json:"row"`
}

// Upsert writes the item's row and returns the record id and row number.
func (c *RecordClient) Upsert(ctx context.Context, item *model.TrackItem) (string, int, error) {
	fields := recordFields{
		ItemID:     item.ItemID,
		Title:      item.Title,
		Artist:     item.Artist,
		Album:      item.Album,
		Year:       item.Year,
		Side:       string(item.Side),
		Duration:   item.Duration,
		FileSize:   item.FileSize,
		UploadDate: item.UploadDate.Format(time.RFC3339),
		CloudURL:   item.CloudURL,
		Status:     string(item.Status),
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal record for %s: %w", item.ItemID, err)
	}

	endpoint := fmt.Sprintf("%s/tables/%s/records/%s",
		c.baseURL, url.PathEscape(c.table), url.PathEscape(item.ItemID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build record request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to call record API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", 0, fmt.Errorf("record API returned %d: %s", resp.StatusCode, string(data))
	}

	var out recordResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("failed to decode record API response: %w", err)
	}
	return out.ID, out.Row, nil
}

// RecordDispatcher syncs an item's metadata row to the record API.
type RecordDispatcher struct {
	client *RecordClient
}

func NewRecordDispatcher(client *RecordClient) *RecordDispatcher {
	return &RecordDispatcher{client: client}
}

func (d *RecordDispatcher) Name() string { return "record-sync" }

func (d *RecordDispatcher) Advances() model.Status { return model.StatusSynced }

func (d *RecordDispatcher) Dispatch(ctx context.Context, item *model.TrackItem) error {
	recordID, row, err := d.client.Upsert(ctx, item)
	if err != nil {
		return err
	}
	item.DatabaseRecordID = recordID
	if row > 0 {
		item.SpreadsheetRow = row
	}
	return nil
}
