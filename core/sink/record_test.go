package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavai-rg/telegram-automation/model"
)

func testItem() *model.TrackItem {
	return &model.TrackItem{
		ItemID:     "555",
		Title:      "Come Together",
		Artist:     "The Beatles",
		Album:      "Abbey Road",
		Year:       "1969",
		Side:       model.SideA,
		Duration:   259,
		FileSize:   8 << 20,
		UploadDate: time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
		CloudURL:   "http://minio/bucket/key.mp3",
		Status:     model.StatusUploaded,
	}
}

func TestRecordDispatcher_Dispatch(t *testing.T) {
	var gotPath, gotAuth string
	var gotFields map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotFields))
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "rec_9", "row": 42})
	}))
	defer srv.Close()

	dispatcher := NewRecordDispatcher(NewRecordClient(srv.URL, "secret", "MusicTracks"))
	item := testItem()

	require.NoError(t, dispatcher.Dispatch(context.Background(), item))

	assert.Equal(t, "/tables/MusicTracks/records/555", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "Come Together", gotFields["title"])
	assert.Equal(t, "Side A", gotFields["side"])
	assert.Equal(t, "http://minio/bucket/key.mp3", gotFields["cloud_url"])

	assert.Equal(t, "rec_9", item.DatabaseRecordID)
	assert.Equal(t, 42, item.SpreadsheetRow)
	assert.Equal(t, model.StatusSynced, dispatcher.Advances())
}

func TestRecordDispatcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "table locked", http.StatusConflict)
	}))
	defer srv.Close()

	dispatcher := NewRecordDispatcher(NewRecordClient(srv.URL, "secret", "MusicTracks"))
	item := testItem()

	err := dispatcher.Dispatch(context.Background(), item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "table locked")
	assert.Empty(t, item.DatabaseRecordID, "a failed sync must not set record references")
}
