package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/timeseries-dashboard/internal/export"
	"github.com/irfndi/timeseries-dashboard/internal/logging"
	"github.com/irfndi/timeseries-dashboard/internal/middleware"
	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/services"
	"github.com/irfndi/timeseries-dashboard/internal/session"
	"github.com/irfndi/timeseries-dashboard/internal/telemetry"
)

// msgNoResults is returned when a download is requested without stored results.
const msgNoResults = "No analysis results found. Please run an analysis first."

var errNoResults = errors.New("no stored analysis results")

// ExportHandler serves dataset CSVs and the raw API response.
type ExportHandler struct {
	store      session.Store
	normalizer *services.Normalizer
	tracer     *telemetry.AnalysisTracer
	logger     logging.Logger

	// Now stamps download filenames.
	Now func() time.Time
}

type apiResponsePage struct {
	JSON string
}

func NewExportHandler(store session.Store, normalizer *services.Normalizer, logger logging.Logger) *ExportHandler {
	return &ExportHandler{
		store:      store,
		normalizer: normalizer,
		tracer:     telemetry.NewAnalysisTracer(),
		logger:     logger,
		Now:        time.Now,
	}
}

// DatasetCSV downloads one raw dataset, e.g. /results/export/returns_data.csv.
func (h *ExportHandler) DatasetCSV(c *gin.Context) {
	key := strings.TrimSuffix(c.Param("dataset"), ".csv")
	if !models.IsDatasetKey(key) {
		abortJSON(c, http.StatusNotFound, fmt.Sprintf("unknown dataset %q", key), nil)
		return
	}

	sid := middleware.SessionID(c)
	ctx, span := h.tracer.TraceExport(c.Request.Context(), "csv", key)
	defer span.Finish()

	raw, ok := session.LoadRawResponse(ctx, h.store, sid, h.logger.WithDataset(key))
	if !ok {
		h.tracer.RecordExportResult(span, 0, errNoResults)
		abortJSON(c, http.StatusNotFound, msgNoResults, nil)
		return
	}

	table := h.normalizer.Normalize(raw).RawData[key]
	data, err := export.CSV(table)
	if err != nil {
		h.tracer.RecordExportResult(span, 0, err)
		if errors.Is(err, export.ErrNoData) {
			abortJSON(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		abortJSON(c, http.StatusInternalServerError, "failed to export dataset", err)
		return
	}
	h.tracer.RecordExportResult(span, len(table.Rows), nil)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.CSVFilename(key, h.Now())))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ViewAPIResponse shows the stored response pretty-printed with a copy button.
func (h *ExportHandler) ViewAPIResponse(c *gin.Context) {
	data, err := h.prettyResponse(c)
	if err != nil {
		return
	}
	c.HTML(http.StatusOK, pageAPIResponse, apiResponsePage{JSON: string(data)})
}

// DownloadAPIResponse sends the stored response as a JSON attachment.
func (h *ExportHandler) DownloadAPIResponse(c *gin.Context) {
	ctx, span := h.tracer.TraceExport(c.Request.Context(), "json", "")
	defer span.Finish()
	c.Request = c.Request.WithContext(ctx)

	data, err := h.prettyResponse(c)
	h.tracer.RecordExportResult(span, 0, err)
	if err != nil {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.JSONFilename(h.Now())))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// prettyResponse loads and indents the stored response, writing the error
// response itself when that fails.
func (h *ExportHandler) prettyResponse(c *gin.Context) ([]byte, error) {
	sid := middleware.SessionID(c)
	raw, ok := session.LoadRawResponse(c.Request.Context(), h.store, sid, h.logger.WithSession(sid))
	if !ok {
		abortJSON(c, http.StatusNotFound, msgNoResults, nil)
		return nil, errNoResults
	}

	data, err := export.PrettyJSON(raw)
	if err != nil {
		abortJSON(c, http.StatusInternalServerError, "Error downloading API response: "+err.Error(), err)
		return nil, err
	}
	return data, nil
}
