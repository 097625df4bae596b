package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docdrip/docdrip"
	"github.com/docdrip/docdrip/internal/service/document"
	"github.com/docdrip/docdrip/pkg/logger"
)

// DocumentHandler serves the conversion and validation endpoints.
type DocumentHandler struct {
	service *document.Service
	log     logger.Logger
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(service *document.Service, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{service: service, log: log}
}

// ConvertResponse is the success payload of POST /v1/convert. Markdown
// is always present, even when the converted document is empty.
type ConvertResponse struct {
	Status   string           `json:"status"`
	Format   string           `json:"format"`
	Markdown string           `json:"markdown"`
	Metadata docdrip.Metadata `json:"metadata"`
}

// ErrorResponse is the failure payload of every endpoint. Metadata is
// included when the pipeline got far enough to produce it.
type ErrorResponse struct {
	Status   string            `json:"status"`
	Format   string            `json:"format,omitempty"`
	Error    string            `json:"error"`
	Metadata *docdrip.Metadata `json:"metadata,omitempty"`
}

// ValidateResponse is the payload of POST /v1/validate.
type ValidateResponse struct {
	Valid    bool     `json:"valid"`
	Format   string   `json:"format"`
	Filename string   `json:"filename"`
	Reasons  []string `json:"reasons"`
}

// FormatsResponse is the payload of GET /v1/formats.
type FormatsResponse struct {
	SupportedFormats []string `json:"supported_formats"`
	MaxFileSizeMB    float64  `json:"max_file_size_mb"`
}

// Convert handles POST /v1/convert: multipart upload in, markdown plus
// metadata out.
func (h *DocumentHandler) Convert(c *gin.Context) {
	doc, ok := h.readUpload(c)
	if !ok {
		return
	}

	result, err := h.service.Convert(c.Request.Context(), doc)
	if err != nil {
		// The request was cancelled or the server is shutting down
		// before a conversion slot opened up.
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Status: string(docdrip.StatusFailed),
			Error:  "conversion could not be scheduled",
		})
		return
	}

	if result.Err == nil {
		c.JSON(http.StatusOK, ConvertResponse{
			Status:   string(result.Status),
			Format:   string(result.Format),
			Markdown: result.Markdown,
			Metadata: result.Metadata,
		})
		return
	}

	meta := result.Metadata
	resp := ErrorResponse{
		Status:   string(docdrip.StatusFailed),
		Format:   string(result.Format),
		Metadata: &meta,
	}

	switch {
	case docdrip.IsInvalidInput(result.Err), docdrip.IsValidationError(result.Err):
		resp.Error = result.Err.Error()
		c.JSON(http.StatusBadRequest, resp)
	case docdrip.IsUnsupportedFormat(result.Err):
		resp.Error = result.Err.Error()
		c.JSON(http.StatusUnsupportedMediaType, resp)
	default:
		// Converter internals stay out of the response.
		h.log.Error("conversion error",
			logger.String("filename", doc.Filename),
			logger.Error(result.Err),
		)
		resp.Error = "document conversion failed"
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// Validate handles POST /v1/validate: structural checks only, no
// conversion. Calling it twice on the same bytes yields the same
// response.
func (h *DocumentHandler) Validate(c *gin.Context) {
	doc, ok := h.readUpload(c)
	if !ok {
		return
	}

	vr := h.service.Validate(doc.Data, doc.Filename)
	c.JSON(http.StatusOK, ValidateResponse{
		Valid:    vr.Valid,
		Format:   string(vr.Format),
		Filename: doc.Filename,
		Reasons:  vr.Reasons,
	})
}

// Formats handles GET /v1/formats.
func (h *DocumentHandler) Formats(c *gin.Context) {
	engine := h.service.Engine()
	c.JSON(http.StatusOK, FormatsResponse{
		SupportedFormats: engine.SupportedExtensions(),
		MaxFileSizeMB:    float64(engine.MaxFileSize()) / (1 << 20),
	})
}

// multipartOverhead is slack on top of the file size cap for multipart
// boundaries and part headers.
const multipartOverhead = 64 << 10

// readUpload extracts the multipart "file" field. On failure it writes
// a 400 and returns ok=false. The request body is capped at the
// configured file size limit plus overhead, so an oversized upload is
// rejected without being buffered whole.
func (h *DocumentHandler) readUpload(c *gin.Context) (docdrip.UploadedDocument, bool) {
	if maxSize := h.service.Engine().MaxFileSize(); maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Status: string(docdrip.StatusFailed),
				Error:  "request body exceeds the maximum allowed size",
			})
			return docdrip.UploadedDocument{}, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status: string(docdrip.StatusFailed),
			Error:  "multipart field \"file\" is required",
		})
		return docdrip.UploadedDocument{}, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status: string(docdrip.StatusFailed),
			Error:  "uploaded file could not be opened",
		})
		return docdrip.UploadedDocument{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status: string(docdrip.StatusFailed),
			Error:  "uploaded file could not be read",
		})
		return docdrip.UploadedDocument{}, false
	}

	return docdrip.UploadedDocument{
		Data:        data,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, true
}
