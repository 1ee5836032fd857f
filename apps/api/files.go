package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gocql/gocql"

	"github.com/mahaj/chatify/internal/gateway"
	"github.com/mahaj/chatify/pkg/db"
)

// maxUploadSize bounds a single attachment. Multipart parsing spills to
// disk past 32MB anyway; this just refuses absurd requests outright.
const maxUploadSize = 64 << 20

type UploadResponse struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// UploadHandler streams a multipart file into the blob store and returns
// the durable download URL. The file lands under the caller's own prefix;
// "scope" picks chat_files or status_files.
func UploadHandler(blobs gateway.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		claims, ok := callerClaims(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		scope := r.FormValue("scope")
		if scope != "status_files" {
			scope = "chat_files"
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		path := fmt.Sprintf("%s/%s/%d_%s", scope, claims.UserID, time.Now().UnixMilli(), header.Filename)
		url, err := blobs.Upload(r.Context(), path, header.Filename, contentType, file, header.Size, nil)
		if err != nil {
			log.Printf("Upload failed for %s: %v", path, err)
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UploadResponse{URL: url, Name: header.Filename, Type: contentType})
	}
}

// FilesHandler serves a stored blob back out, chunk by chunk in order.
// Public: the URLs are capability-style, held inside messages.
func FilesHandler(session *db.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		path := r.URL.Query().Get("path")
		if path == "" {
			http.Error(w, "path is required", http.StatusBadRequest)
			return
		}

		var name, contentType string
		var size int64
		var chunks int
		err := session.Query(`SELECT name, content_type, size, chunks FROM blob_meta WHERE path = ?`, path).
			WithContext(r.Context()).Scan(&name, &contentType, &size, &chunks)
		if err == gocql.ErrNotFound {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("Failed to read blob meta for %s: %v", path, err)
			http.Error(w, "Failed to read file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)

		iter := session.Query(`SELECT data FROM blob_chunks WHERE path = ?`, path).
			WithContext(r.Context()).Iter()
		var data []byte
		for iter.Scan(&data) {
			if _, err := w.Write(data); err != nil {
				iter.Close()
				return
			}
		}
		if err := iter.Close(); err != nil {
			log.Printf("Failed to stream blob %s: %v", path, err)
		}
	}
}
