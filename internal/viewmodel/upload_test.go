package viewmodel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/model"
)

func selectedFile(name string) File {
	return File{
		Name:        name,
		ContentType: "image/png",
		Size:        4,
		Content:     strings.NewReader("data"),
	}
}

func TestUploadThenSendProducesOneMessage(t *testing.T) {
	blobs := &fakeBlobStore{steps: []float64{25, 50, 75, 100}}
	ctrl := NewUploadController(blobs, &fakeNotifier{})

	var seen []float64
	ctrl.OnProgress = func(pct float64) { seen = append(seen, pct) }

	if err := ctrl.Select(selectedFile("photo.png")); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if ctrl.State() != UploadSelected {
		t.Fatalf("state after Select = %v, want Selected", ctrl.State())
	}

	var sent []*model.Attachment
	err := ctrl.Start(context.Background(), "user-1", func(att *model.Attachment) error {
		sent = append(sent, att)
		return nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if len(sent) != 1 {
		t.Fatalf("got %d messages, want exactly 1", len(sent))
	}
	if sent[0].Name != "photo.png" || sent[0].Type != "image/png" {
		t.Fatalf("attachment = %+v", sent[0])
	}
	if !strings.Contains(sent[0].URL, "chat_files/user-1/") {
		t.Fatalf("attachment URL %q missing owner path", sent[0].URL)
	}
	if seen[len(seen)-1] != 100 {
		t.Fatalf("final progress = %v, want 100", seen[len(seen)-1])
	}
	if ctrl.State() != UploadIdle {
		t.Fatalf("state after success = %v, want Idle", ctrl.State())
	}
}

func TestUploadFailureMidTransfer(t *testing.T) {
	// Dies at 40%: zero messages, controller back to Idle, failure
	// surfaced. The caller's typed text is its own to keep.
	blobs := &fakeBlobStore{steps: []float64{20, 40, 60, 80, 100}, fail: true, failAt: 40}
	notify := &fakeNotifier{}
	ctrl := NewUploadController(blobs, notify)

	if err := ctrl.Select(selectedFile("doc.pdf")); err != nil {
		t.Fatalf("Select: %v", err)
	}

	sends := 0
	err := ctrl.Start(context.Background(), "user-1", func(att *model.Attachment) error {
		sends++
		return nil
	})

	var terr *gateway.TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("Start = %v, want TransferError", err)
	}
	if sends != 0 {
		t.Fatalf("got %d messages after failed transfer, want 0", sends)
	}
	if ctrl.State() != UploadIdle {
		t.Fatalf("state after failure = %v, want Idle", ctrl.State())
	}
	if notify.errorCount() != 1 {
		t.Fatalf("got %d error notices, want 1", notify.errorCount())
	}
}

func TestSecondSelectWhileUploadingIsRejected(t *testing.T) {
	blobs := &fakeBlobStore{steps: []float64{10, 100}, block: make(chan struct{})}
	ctrl := NewUploadController(blobs, &fakeNotifier{})

	if err := ctrl.Select(selectedFile("first.png")); err != nil {
		t.Fatalf("Select: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Start(context.Background(), "user-1", func(*model.Attachment) error { return nil })
	}()

	waitFor(t, "transfer in flight", func() bool { return ctrl.State() == Uploading })

	if err := ctrl.Select(selectedFile("second.png")); err == nil {
		t.Fatal("Select during an in-flight upload must be rejected")
	}

	close(blobs.block)
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestCancelDuringUploadProducesNoMessage(t *testing.T) {
	blobs := &fakeBlobStore{steps: []float64{10, 100}, block: make(chan struct{})}
	ctrl := NewUploadController(blobs, &fakeNotifier{})

	if err := ctrl.Select(selectedFile("big.iso")); err != nil {
		t.Fatalf("Select: %v", err)
	}

	sends := 0
	done := make(chan error, 1)
	go func() {
		done <- ctrl.Start(context.Background(), "user-1", func(*model.Attachment) error {
			sends++
			return nil
		})
	}()

	waitFor(t, "transfer in flight", func() bool { return ctrl.State() == Uploading })
	ctrl.Cancel()

	if err := <-done; err == nil {
		t.Fatal("cancelled upload should report an error")
	}
	if sends != 0 {
		t.Fatalf("got %d messages after cancel, want 0", sends)
	}
	if ctrl.State() != UploadIdle {
		t.Fatalf("state after cancel = %v, want Idle", ctrl.State())
	}
}

func TestStartWithoutSelection(t *testing.T) {
	ctrl := NewUploadController(&fakeBlobStore{}, &fakeNotifier{})
	if err := ctrl.Start(context.Background(), "user-1", func(*model.Attachment) error { return nil }); err == nil {
		t.Fatal("Start with nothing selected should fail")
	}
}
