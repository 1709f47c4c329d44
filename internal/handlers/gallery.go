package handlers

import (
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
)

const processedPrefix = "rgb_"

// GalleryItem pairs a translated output with the upload it came from.
type GalleryItem struct {
	Filename  string `json:"filename"`
	Original  string `json:"original"`
	Processed string `json:"processed"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// GalleryResponse lists every upload that has a translated output, newest
// name first.
type GalleryResponse struct {
	Success bool          `json:"success"`
	Images  []GalleryItem `json:"images"`
}

func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	items, err := h.gallery()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list gallery")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, GalleryResponse{Success: true, Images: items})
}

func (h *Handler) gallery() ([]GalleryItem, error) {
	uploads, err := os.ReadDir(h.uploadDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list uploads")
	}
	stored := make(map[string]bool, len(uploads))
	for _, e := range uploads {
		if !e.IsDir() && codec.Supported(e.Name()) {
			stored[e.Name()] = true
		}
	}

	outputs, err := os.ReadDir(h.outputDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list outputs")
	}
	items := []GalleryItem{}
	for _, e := range outputs {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, processedPrefix) {
			continue
		}
		upload := strings.TrimPrefix(name, processedPrefix)
		if !stored[upload] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to stat %s", name)
		}
		mod := info.ModTime()
		items = append(items, GalleryItem{
			Filename:  upload,
			Original:  UploadsPrefix + upload,
			Processed: OutputsPrefix + name,
			Date:      mod.Format("2006-01-02"),
			Time:      mod.Format("15:04:05"),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Filename > items[j].Filename })
	return items, nil
}
