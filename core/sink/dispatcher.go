// Package sink sends organized tracks to external systems: cloud storage,
// the record-sync API and the private mirror channel. Each dispatcher is
// invoked once per item after organization; a failure marks only that item
// as failed and never aborts the batch.
package sink

import (
	"context"

	"github.com/lavai-rg/telegram-automation/model"
)

// Dispatcher pushes one item to one external system. On success it records
// the returned reference on the item; the caller advances the status to
// Advances() and persists the item. On failure the item keeps whatever
// references it already had.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, item *model.TrackItem) error
	// Advances is the status the item moves to when Dispatch succeeds.
	Advances() model.Status
}
