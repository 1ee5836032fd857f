package gateway

import (
	"context"
	"io"
	"net/url"
)

// chunkSize keeps individual Scylla cells well under the practical blob
// ceiling while still giving coarse enough progress steps.
const chunkSize = 512 * 1024

// Upload streams r into blob_chunks under path, reporting progress as a
// percentage of size. The download URL is returned only after the final
// chunk and the metadata row landed; until then nothing references the
// blob, so a cancelled or failed upload never leaks into a message.
func (s *blobStore) Upload(ctx context.Context, path, name, contentType string, r io.Reader, size int64, progress func(pct float64)) (string, error) {
	if progress == nil {
		progress = func(float64) {}
	}

	buf := make([]byte, chunkSize)
	var transferred int64
	var seq int

	for {
		if err := ctx.Err(); err != nil {
			s.discardChunks(path, seq)
			return "", &TransferError{Path: path, Err: err}
		}

		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if werr := s.db.Query(`INSERT INTO blob_chunks (path, seq, data) VALUES (?, ?, ?)`,
				path, seq, buf[:n]).WithContext(ctx).Exec(); werr != nil {
				s.discardChunks(path, seq)
				return "", &TransferError{Path: path, Err: werr}
			}
			seq++
			transferred += int64(n)
			if size > 0 {
				pct := float64(transferred) / float64(size) * 100
				if pct > 100 {
					pct = 100
				}
				progress(pct)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			s.discardChunks(path, seq)
			return "", &TransferError{Path: path, Err: err}
		}
	}

	err := s.db.Query(`INSERT INTO blob_meta (path, name, content_type, size, chunks) VALUES (?, ?, ?, ?, ?)`,
		path, name, contentType, transferred, seq).WithContext(ctx).Exec()
	if err != nil {
		s.discardChunks(path, seq)
		return "", &TransferError{Path: path, Err: err}
	}

	progress(100)
	return s.DownloadURL(path), nil
}

func (s *blobStore) DownloadURL(path string) string {
	return s.baseURL + "/files?path=" + url.QueryEscape(path)
}

// discardChunks drops whatever landed before an upload died. Best effort:
// without the metadata row the chunks are unreachable either way.
func (s *blobStore) discardChunks(path string, written int) {
	if written == 0 {
		return
	}
	_ = s.db.Query(`DELETE FROM blob_chunks WHERE path = ?`, path).Exec()
}
