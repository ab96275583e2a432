package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lavai-rg/telegram-automation/cache"
	"github.com/lavai-rg/telegram-automation/core/metadata"
	"github.com/lavai-rg/telegram-automation/core/organize"
	"github.com/lavai-rg/telegram-automation/core/sink"
	"github.com/lavai-rg/telegram-automation/core/telegram"
	"github.com/lavai-rg/telegram-automation/core/utils"
	"github.com/lavai-rg/telegram-automation/logger"
	"github.com/lavai-rg/telegram-automation/model"
	"github.com/lavai-rg/telegram-automation/repository"
)

// State is the scan driver's current phase, published with progress
// snapshots for the dashboard.
type State string

const (
	StateIdle         State = "idle"
	StateScanning     State = "scanning"
	StateBatchFull    State = "batch_full"
	StateDraining     State = "draining"
	StateCheckpointed State = "checkpointed"
	StateRateLimited  State = "rate_limited"
	StateDone         State = "done"
	StateFatal        State = "fatal"
)

// floodWaitMargin is added on top of the wait the platform asks for.
const floodWaitMargin = 5 * time.Second

// downloadRetries is how often a single item download is retried after a
// rate-limit signal before the item is marked failed.
const downloadRetries = 2

// ErrCheckpointIncompatible is returned when a resume is requested but the
// stored checkpoint was written under different scan parameters.
var ErrCheckpointIncompatible = errors.New("scan: checkpoint was written with incompatible parameters")

// Options configures a Driver beyond its collaborators.
type Options struct {
	Channel         string
	Profile         Profile
	Resume          bool
	SideFolders     bool
	RawDir          string
	OrganizedDir    string
	Workers         int // bounded pool size for per-batch item processing
	DownloadTimeout time.Duration
	ProgressEvery   int // log progress every N audio items
}

// Summary is the cumulative result of one scan run, reported even when the
// scan aborts early.
type Summary struct {
	RunID     string
	Channel   string
	Profile   string
	Scanned   int64 // messages pulled from the cursor
	Audio     int64 // messages classified as audio items
	Counts    map[model.Status]int64
	StartedAt time.Time
	Duration  time.Duration
}

// Driver runs the bulk history scan. A single goroutine drives message
// iteration and batching; items inside a completed batch are processed by a
// bounded worker pool. The tracker serializes writes per item because each
// item is handled by exactly one worker.
type Driver struct {
	source      telegram.MessageSource
	tags        metadata.TagReader
	tracks      repository.TrackRepository
	checkpoints repository.CheckpointRepository
	dispatchers []sink.Dispatcher
	progress    *cache.ProgressCache
	opts        Options

	// sleep is replaceable in tests so rate-limit waits don't stall them.
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	summary  *Summary
	statuses map[string]model.Status
}

// NewDriver wires a scan driver from explicitly constructed collaborators.
func NewDriver(
	source telegram.MessageSource,
	tags metadata.TagReader,
	tracks repository.TrackRepository,
	checkpoints repository.CheckpointRepository,
	dispatchers []sink.Dispatcher,
	progress *cache.ProgressCache,
	opts Options,
) *Driver {
	if opts.Workers <= 0 {
		opts.Workers = 3
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 50
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 5 * time.Minute
	}
	return &Driver{
		source:      source,
		tags:        tags,
		tracks:      tracks,
		checkpoints: checkpoints,
		dispatchers: dispatchers,
		progress:    progress,
		opts:        opts,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type batchEntry struct {
	item *model.TrackItem
	msg  *telegram.Message
}

// Run executes the scan until the history is exhausted, the message cap is
// reached, the context is cancelled, or a fatal error occurs. The returned
// Summary is valid in every case.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	d.statuses = make(map[string]model.Status)
	d.summary = &Summary{
		RunID:     runID,
		Channel:   d.opts.Channel,
		Profile:   d.opts.Profile.Name,
		Counts:    make(map[model.Status]int64),
		StartedAt: time.Now(),
	}
	defer func() {
		d.summary.Duration = time.Since(d.summary.StartedAt)
	}()

	logger.Info("starting scan",
		logger.String("run_id", runID),
		logger.String("channel", d.opts.Channel),
		logger.String("profile", d.opts.Profile.Name))

	var minID int64
	var processed int64
	if d.opts.Resume {
		cp, err := d.checkpoints.Get(ctx, d.opts.Channel, d.opts.Profile.Name)
		if err != nil {
			return d.summary, err
		}
		if cp != nil {
			if cp.ConfigFingerprint != d.opts.Profile.Fingerprint() {
				return d.summary, ErrCheckpointIncompatible
			}
			minID = cp.LastItemID
			processed = cp.ItemsProcessed
			logger.Info("resuming from checkpoint",
				logger.Int64("last_item_id", minID),
				logger.Int64("items_processed", processed))
		}
	}

	cursor, err := d.source.Iterate(ctx, d.opts.Channel, telegram.IterateOptions{
		MinID:       minID,
		MaxMessages: d.opts.Profile.MaxMessages,
		StartDate:   d.opts.Profile.StartDate,
		EndDate:     d.opts.Profile.EndDate,
	})
	if err != nil {
		return d.summary, fmt.Errorf("failed to open channel history: %w", err)
	}
	defer cursor.Close()

	var (
		batch         []batchEntry
		batchNumber   int
		lastScannedID int64
	)

	d.publishProgress(ctx, runID, StateScanning, processed, batchNumber, lastScannedID)

	for {
		// The cap is enforced here as well, so a source that cannot apply
		// MaxMessages server-side still stops the scan.
		if d.opts.Profile.MaxMessages > 0 && d.summary.Scanned >= int64(d.opts.Profile.MaxMessages) {
			break
		}

		msg, err := cursor.Next(ctx)
		if err != nil {
			if errors.Is(err, telegram.ErrEndOfHistory) {
				break
			}
			if fw, ok := telegram.AsFloodWait(err); ok {
				// The message is not consumed; sleep and pull it again.
				d.publishProgress(ctx, runID, StateRateLimited, processed, batchNumber, lastScannedID)
				logger.Warn("rate limit hit, waiting",
					logger.Duration("wait", fw.Wait),
					logger.Duration("margin", floodWaitMargin))
				if serr := d.sleep(ctx, fw.Wait+floodWaitMargin); serr != nil {
					return d.summary, serr
				}
				d.publishProgress(ctx, runID, StateScanning, processed, batchNumber, lastScannedID)
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Stop signal: finish what we accumulated so the checkpoint
				// reflects an "all attempted" state, then exit.
				return d.summary, d.shutdown(ctx, runID, batch, batchNumber, lastScannedID, processed, err)
			}
			d.publishProgress(ctx, runID, StateFatal, processed, batchNumber, lastScannedID)
			d.saveCheckpoint(context.WithoutCancel(ctx), lastScannedID, processed)
			return d.summary, fmt.Errorf("channel history iteration failed: %w", err)
		}

		d.summary.Scanned++

		if !d.inDateWindow(msg.Date) {
			continue
		}
		if !metadata.IsAudio(msg) {
			continue
		}

		item := d.buildItem(msg)
		batch = append(batch, batchEntry{item: item, msg: msg})
		lastScannedID = msg.ID
		processed++
		d.summary.Audio++

		if processed%int64(d.opts.ProgressEvery) == 0 {
			logger.Info("scan progress",
				logger.Int64("processed", processed),
				logger.Int64("message_id", msg.ID))
			d.publishProgress(ctx, runID, StateScanning, processed, batchNumber, lastScannedID)
		}

		if len(batch) >= d.opts.Profile.BatchSize {
			d.publishProgress(ctx, runID, StateBatchFull, processed, batchNumber, lastScannedID)
			if err := d.processBatch(ctx, batch); err != nil {
				d.publishProgress(ctx, runID, StateFatal, processed, batchNumber, lastScannedID)
				d.saveCheckpoint(context.WithoutCancel(ctx), lastScannedID, processed)
				return d.summary, err
			}

			d.publishProgress(ctx, runID, StateDraining, processed, batchNumber, lastScannedID)
			if err := d.saveCheckpoint(ctx, lastScannedID, processed); err != nil {
				return d.summary, err
			}
			d.publishProgress(ctx, runID, StateCheckpointed, processed, batchNumber, lastScannedID)

			batch = nil
			batchNumber++

			if d.opts.Profile.Delay > 0 {
				if serr := d.sleep(ctx, d.opts.Profile.Delay); serr != nil {
					return d.summary, serr
				}
			}
			d.publishProgress(ctx, runID, StateScanning, processed, batchNumber, lastScannedID)
		}
	}

	// End of history: drain the final partial batch.
	if len(batch) > 0 {
		if err := d.processBatch(ctx, batch); err != nil {
			d.saveCheckpoint(context.WithoutCancel(ctx), lastScannedID, processed)
			return d.summary, err
		}
	}
	if lastScannedID > 0 {
		if err := d.saveCheckpoint(ctx, lastScannedID, processed); err != nil {
			return d.summary, err
		}
	}

	d.publishProgress(ctx, runID, StateDone, processed, batchNumber, lastScannedID)
	logger.Info("scan completed",
		logger.String("run_id", runID),
		logger.Int64("scanned", d.summary.Scanned),
		logger.Int64("audio_items", d.summary.Audio))
	return d.summary, nil
}

// shutdown finishes the in-flight batch with a detached context, persists
// the checkpoint and returns the original stop cause.
func (d *Driver) shutdown(ctx context.Context, runID string, batch []batchEntry, batchNumber int, lastScannedID, processed int64, cause error) error {
	detached := context.WithoutCancel(ctx)
	if len(batch) > 0 {
		if err := d.processBatch(detached, batch); err != nil {
			return err
		}
	}
	if lastScannedID > 0 {
		if err := d.saveCheckpoint(detached, lastScannedID, processed); err != nil {
			return err
		}
	}
	d.publishProgress(detached, runID, StateDone, processed, batchNumber, lastScannedID)
	logger.Warn("scan stopped", logger.ErrorField(cause))
	return cause
}

// inDateWindow applies the most restrictive configured date pair; items
// outside it are skipped, not an error.
func (d *Driver) inDateWindow(date time.Time) bool {
	if !d.opts.Profile.StartDate.IsZero() && date.Before(d.opts.Profile.StartDate) {
		return false
	}
	if !d.opts.Profile.EndDate.IsZero() && date.After(d.opts.Profile.EndDate) {
		return false
	}
	return true
}

// buildItem turns a classified audio message into a pending track item.
// Parsed caption text wins; the embedded audio attributes fill title,
// performer and duration when the caption left them open. The title may
// still be empty here so that file tags get a chance to fill it later.
func (d *Driver) buildItem(msg *telegram.Message) *model.TrackItem {
	doc := msg.Document
	parsed := metadata.Parse(msg.Text)

	var attrTitle, attrPerformer string
	var duration int
	if doc.Audio != nil {
		attrTitle = strings.TrimSpace(doc.Audio.Title)
		attrPerformer = strings.TrimSpace(doc.Audio.Performer)
		duration = doc.Audio.Duration
	}

	itemID := fmt.Sprintf("%d", doc.ID)

	title := parsed.Title
	if title == "" {
		title = attrTitle
	}

	artist := parsed.Artist
	if artist == "" {
		artist = attrPerformer
	}

	item := &model.TrackItem{
		ItemID:          itemID,
		Title:           title,
		Artist:          artist,
		Album:           parsed.Album,
		Year:            parsed.Year,
		Genre:           parsed.Genre,
		Duration:        duration,
		FileSize:        doc.Size,
		SourceMessageID: msg.ID,
		SourceChannelID: msg.ChannelID,
		UploadDate:      msg.Date,
		Status:          model.StatusPending,
	}
	item.Side = metadata.Side(item.Title, item.Album)
	return item
}

// processBatch pushes every entry of a completed batch through the per-item
// pipeline on a bounded worker pool. Item failures are isolated; only a
// tracker-store failure is fatal and aborts the scan.
func (d *Driver) processBatch(ctx context.Context, batch []batchEntry) error {
	logger.Info("processing batch", logger.Int("items", len(batch)))

	jobs := make(chan batchEntry)
	errs := make(chan error, len(batch))

	var wg sync.WaitGroup
	for i := 0; i < d.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if err := d.processItem(ctx, entry); err != nil {
					errs <- err
				}
			}
		}()
	}

	for _, entry := range batch {
		jobs <- entry
	}
	close(jobs)
	wg.Wait()
	close(errs)

	// A worker only reports store failures; everything else was isolated.
	if err := <-errs; err != nil {
		return err
	}
	return nil
}

// processItem runs one item through download, tag refinement, organization
// and the sink dispatchers, persisting every state transition. The returned
// error is non-nil only when the tracker store itself failed.
func (d *Driver) processItem(ctx context.Context, entry batchEntry) error {
	item := entry.item

	if err := d.tracks.Upsert(ctx, item); err != nil {
		return err
	}
	d.tally(item)

	if !d.opts.Profile.DownloadFiles {
		return nil
	}

	path, err := d.download(ctx, entry)
	if err != nil {
		return d.markFailed(ctx, item, "download", err)
	}
	item.LocalPath = path
	item.Status = model.StatusDownloaded
	if err := d.tracks.Upsert(ctx, item); err != nil {
		return err
	}
	d.tally(item)

	// Tag refinement is best-effort: a missing or unreadable tag leaves the
	// caption-derived metadata in place.
	if emb, rerr := d.tags.Read(path); rerr == nil {
		metadata.Refine(item, emb)
	} else {
		logger.Debug("no usable embedded tags",
			logger.String("item_id", item.ItemID),
			logger.ErrorField(rerr))
	}

	// Organized paths need a non-empty title; the fallback is applied only
	// after the embedded tags had their chance to fill it.
	if item.Title == "" {
		item.Title = "Track_" + item.ItemID
	}

	ext := filepath.Ext(path)
	relPath := organize.Path(item, ext, d.opts.SideFolders)
	dest := filepath.Join(d.opts.OrganizedDir, relPath)
	if err := utils.MoveFile(path, dest); err != nil {
		return d.markFailed(ctx, item, "organize", err)
	}
	item.LocalPath = dest
	item.Status = model.StatusOrganized
	if err := d.tracks.Upsert(ctx, item); err != nil {
		return err
	}
	d.tally(item)

	for _, dispatcher := range d.dispatchers {
		if derr := dispatcher.Dispatch(ctx, item); derr != nil {
			// References set by earlier sinks stay on the item.
			return d.markFailed(ctx, item, dispatcher.Name(), derr)
		}
		item.Status = dispatcher.Advances()
		if err := d.tracks.Upsert(ctx, item); err != nil {
			return err
		}
		d.tally(item)
	}

	return nil
}

// download fetches the media into the raw directory, skipping files that
// are already there and retrying a bounded number of rate-limit signals.
func (d *Driver) download(ctx context.Context, entry batchEntry) (string, error) {
	ext := filepath.Ext(entry.msg.Document.FileName)
	if ext == "" {
		ext = ".mp3"
	}
	dest := filepath.Join(d.opts.RawDir, entry.item.ItemID+ext)

	if utils.FileExists(dest) {
		return dest, nil
	}

	var lastErr error
	for attempt := 0; attempt <= downloadRetries; attempt++ {
		dctx, cancel := context.WithTimeout(ctx, d.opts.DownloadTimeout)
		path, err := d.source.Download(dctx, entry.msg.ChannelID, entry.msg.ID, dest)
		cancel()
		if err == nil {
			return path, nil
		}
		lastErr = err
		if fw, ok := telegram.AsFloodWait(err); ok {
			if serr := d.sleep(ctx, fw.Wait+floodWaitMargin); serr != nil {
				return "", serr
			}
			continue
		}
		break
	}
	return "", lastErr
}

// markFailed records an isolated per-item failure. Only a store error
// propagates.
func (d *Driver) markFailed(ctx context.Context, item *model.TrackItem, stage string, cause error) error {
	logger.Error("item processing failed",
		logger.String("item_id", item.ItemID),
		logger.String("stage", stage),
		logger.ErrorField(cause))

	item.Status = model.StatusFailed
	item.ErrorNote = fmt.Sprintf("%s: %v", stage, cause)
	if err := d.tracks.Upsert(ctx, item); err != nil {
		return err
	}
	d.tally(item)
	return nil
}

// tally records the item's current status in the run summary, keeping only
// the latest status per item.
func (d *Driver) tally(item *model.TrackItem) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.statuses[item.ItemID]; ok {
		d.summary.Counts[prev]--
	}
	d.summary.Counts[item.Status]++
	d.statuses[item.ItemID] = item.Status
}

func (d *Driver) saveCheckpoint(ctx context.Context, lastItemID, processed int64) error {
	err := d.checkpoints.Save(ctx, &model.ScanCheckpoint{
		ChannelID:         d.opts.Channel,
		ProfileName:       d.opts.Profile.Name,
		LastItemID:        lastItemID,
		ItemsProcessed:    processed,
		ConfigFingerprint: d.opts.Profile.Fingerprint(),
	})
	if err != nil {
		logger.Error("failed to persist checkpoint", logger.ErrorField(err))
		return err
	}
	logger.Info("checkpoint saved",
		logger.Int64("last_item_id", lastItemID),
		logger.Int64("items_processed", processed))
	return nil
}

func (d *Driver) publishProgress(ctx context.Context, runID string, state State, processed int64, batchNumber int, lastItemID int64) {
	err := d.progress.Publish(ctx, cache.ScanProgress{
		RunID:       runID,
		ChannelID:   d.opts.Channel,
		Profile:     d.opts.Profile.Name,
		State:       string(state),
		Processed:   processed,
		BatchNumber: batchNumber,
		LastItemID:  lastItemID,
	})
	if err != nil {
		logger.Warn("failed to publish scan progress", logger.ErrorField(err))
	}
}
