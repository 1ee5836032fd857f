package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

type UploadState int

const (
	UploadIdle UploadState = iota
	UploadSelected
	Uploading
	UploadFinalizing
	UploadFailed
)

// File is a file the user picked, not yet transferred.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadController owns the single in-flight attachment transfer.
// Exactly one upload may run at a time: a second Select while a transfer
// is in flight is rejected rather than queued. A message is produced only
// by Start, and only after the blob URL resolved; cancellation or failure
// at any earlier point produces nothing.
type UploadController struct {
	blobs  gateway.BlobStore
	notify Notifier

	mu       sync.Mutex
	state    UploadState
	file     *File
	progress float64
	cancel   context.CancelFunc

	// OnProgress receives percentages in [0,100] during Uploading.
	OnProgress func(pct float64)
}

func NewUploadController(blobs gateway.BlobStore, notify Notifier) *UploadController {
	return &UploadController{blobs: blobs, notify: notify}
}

func (c *UploadController) State() UploadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *UploadController) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Select stores the picked file without starting the transfer. Replacing
// an earlier selection is fine; replacing a running transfer is not.
func (c *UploadController) Select(f File) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Uploading || c.state == UploadFinalizing {
		return errors.New("an upload is already in flight")
	}
	c.file = &f
	c.state = UploadSelected
	c.progress = 0
	return nil
}

// Cancel drops the selection, aborting the transfer if one is running.
// No partial message is ever produced: Start only builds the attachment
// after the URL resolved, and a cancelled transfer never gets there.
func (c *UploadController) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.file = nil
	c.state = UploadIdle
	c.progress = 0
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Start transfers the selected file and, once the durable URL is
// resolved, hands the attachment to send — the message path of the open
// room view. On transfer failure nothing is sent, the controller resets
// to Idle and the caller's typed text is untouched, free to be retried as
// text-only.
func (c *UploadController) Start(ctx context.Context, ownerID string, send func(att *model.Attachment) error) error {
	c.mu.Lock()
	if c.state != UploadSelected || c.file == nil {
		c.mu.Unlock()
		return errors.New("no file selected")
	}
	file := c.file
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = Uploading
	c.progress = 0
	c.mu.Unlock()

	path := fmt.Sprintf("chat_files/%s/%d_%s", ownerID, time.Now().UnixMilli(), file.Name)

	url, err := c.blobs.Upload(ctx, path, file.Name, file.ContentType, file.Content, file.Size, c.setProgress)
	if err != nil {
		c.mu.Lock()
		c.state = UploadFailed
		c.mu.Unlock()
		c.notify.Notify(Notice{Error: true, Title: "Upload failed", Body: err.Error()})
		c.reset()
		return err
	}

	c.mu.Lock()
	c.state = UploadFinalizing
	c.mu.Unlock()

	att := &model.Attachment{URL: url, Name: file.Name, Type: file.ContentType}
	if err := send(att); err != nil {
		c.reset()
		return err
	}

	c.reset()
	return nil
}

func (c *UploadController) setProgress(pct float64) {
	c.mu.Lock()
	c.progress = pct
	cb := c.OnProgress
	c.mu.Unlock()
	if cb != nil {
		cb(pct)
	}
}

func (c *UploadController) reset() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.file = nil
	c.state = UploadIdle
	c.progress = 0
	c.mu.Unlock()
}
