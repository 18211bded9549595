package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reglens/backend/internal/queue"
	"github.com/reglens/backend/internal/server/middleware"
	"github.com/reglens/backend/internal/storage"
	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/common"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/segment"

	"github.com/labstack/echo/v4"
)

// UploadDocumentHandler ingests a regulation document, either as a
// multipart/form-data file upload or as a JSON body with filename and content.
// The raw text goes to object storage and an index job is queued; segmentation
// and embedding happen in the worker.
func UploadDocumentHandler(c echo.Context) error {
	type uploadResponse struct {
		Message  string           `json:"message"`
		Document *common.Document `json:"document,omitempty"`
	}

	filename, text, errMsg := readUpload(c)
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, uploadResponse{
			Message: errMsg,
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	doc := common.Document{
		ID:         util.NewID(),
		Filename:   filename,
		UploadTime: time.Now().UTC(),
		Status:     "processing",
		Metadata:   segment.ExtractMetadata(string(text), filename),
	}

	if app.S3 != nil {
		key, err := storage.PutDocumentText(ctx, app.S3, doc.ID, text)
		if err != nil {
			logger.Error("Failed to upload document text", "err", err)
			return c.JSON(http.StatusInternalServerError, uploadResponse{
				Message: "Internal server error",
			})
		}
		doc.StorageKey = key
	}

	if err := app.Store.SaveDocument(ctx, doc); err != nil {
		logger.Error("Failed to save document", "err", err)
		return c.JSON(http.StatusInternalServerError, uploadResponse{
			Message: "Internal server error",
		})
	}

	queueData := queue.IndexJobMsg{
		Message:    "Document uploaded",
		DocumentID: doc.ID,
	}
	msgBytes, _ := json.Marshal(queueData)
	if err := queue.PublishFIFO(app.Queue, queue.QueueIndex, msgBytes); err != nil {
		logger.Error("Failed to publish to index_queue", "err", err)
	}

	return c.JSON(http.StatusOK, uploadResponse{
		Message:  "Document uploaded successfully",
		Document: &doc,
	})
}

// readUpload pulls the document text out of the request. JSON bodies carry
// filename and content directly; anything else is treated as a multipart form
// with a "file" field. A non-empty error message means a bad request.
func readUpload(c echo.Context) (filename string, text []byte, errMsg string) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		type uploadRequest struct {
			Filename string `json:"filename" validate:"required"`
			Content  string `json:"content" validate:"required"`
		}
		data := new(uploadRequest)
		if err := c.Bind(data); err != nil {
			return "", nil, "Invalid request body"
		}
		if err := c.Validate(data); err != nil {
			return "", nil, "Invalid request body"
		}
		return data.Filename, []byte(data.Content), ""
	}

	form, err := c.MultipartForm()
	if err != nil {
		return "", nil, "Invalid request body"
	}
	uploads := form.File["file"]
	if len(uploads) == 0 {
		return "", nil, "No file provided"
	}
	upload := uploads[0]

	src, err := upload.Open()
	if err != nil {
		return "", nil, "Could not open file"
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		return "", nil, "Could not read file"
	}
	if len(raw) == 0 {
		return "", nil, "File is empty"
	}
	return upload.Filename, raw, ""
}
