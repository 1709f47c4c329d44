package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Brownie44l1/sar2rgb/internal/codec"
	"github.com/Brownie44l1/sar2rgb/internal/logging"
)

// URL prefixes under which Router serves stored uploads and outputs.
const (
	UploadsPrefix = "/static/uploads/"
	OutputsPrefix = "/static/outputs/"
)

// FileTranslator translates the image at in and writes the result to out.
type FileTranslator interface {
	TranslateFile(in, out string) error
}

type Handler struct {
	translator FileTranslator
	uploadDir  string
	outputDir  string
	maxUpload  int64
	logger     zerolog.Logger
	now        func() time.Time
}

func NewHandler(translator FileTranslator, uploadDir, outputDir string, maxUpload int64, logger zerolog.Logger) *Handler {
	return &Handler{
		translator: translator,
		uploadDir:  uploadDir,
		outputDir:  outputDir,
		maxUpload:  maxUpload,
		logger:     logging.Component(logger, "http"),
		now:        time.Now,
	}
}

// ProcessResponse is returned by a successful upload. Original and Processed
// are URL paths served by Router.
type ProcessResponse struct {
	Success   bool   `json:"success"`
	Original  string `json:"original"`
	Processed string `json:"processed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds the %s limit", humanize.IBytes(uint64(h.maxUpload))))
			return
		}
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided, use 'file' as the form field name")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}
	if err := codec.CheckExtension(header.Filename); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := h.uploadName(header.Filename)
	uploadPath := filepath.Join(h.uploadDir, name)
	if err := saveUpload(uploadPath, file); err != nil {
		h.logger.Error().Err(err).Str("file", header.Filename).Msg("failed to store upload")
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	h.logger.Info().
		Str("file", header.Filename).
		Str("stored", name).
		Str("size", humanize.IBytes(uint64(header.Size))).
		Msg("received upload")

	processed := processedPrefix + name
	if err := h.translator.TranslateFile(uploadPath, filepath.Join(h.outputDir, processed)); err != nil {
		if rmErr := os.Remove(uploadPath); rmErr != nil {
			h.logger.Debug().Err(rmErr).Str("file", uploadPath).Msg("failed to remove upload")
		}
		h.logger.Error().Err(err).Str("file", header.Filename).Msg("translation failed")
		writeError(w, statusFor(err), fmt.Sprintf("error processing image: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Success:   true,
		Original:  UploadsPrefix + name,
		Processed: OutputsPrefix + processed,
	})
}

// uploadName keeps the original extension and makes the stored name unique.
func (h *Handler) uploadName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s%s", h.now().Format("20060102_150405"), id, ext)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return errors.Wrapf(dst.Close(), "failed to close %s", path)
}

// statusFor maps client-side image problems to 400 and everything else to 500.
func statusFor(err error) int {
	var inputErr *codec.InputError
	var decodeErr *codec.DecodeError
	if errors.As(err, &inputErr) || errors.As(err, &decodeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
