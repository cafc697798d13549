package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"eukexpress-backend/internal/middleware"
	"eukexpress-backend/internal/models"
	"eukexpress-backend/internal/timeutil"
	"eukexpress-backend/pkg/utils"
)

// Multipart bodies carry two images of at most 10MB each plus the JSON part.
const maxCreateBody = 25 << 20

// ShipmentCommands are the state-changing shipment operations
type ShipmentCommands interface {
	Create(ctx context.Context, req *models.CreateShipmentRequest, front, rear *models.ImageUpload, actor string) (*models.Shipment, error)
	UpdateStatus(ctx context.Context, tracking string, req *models.StatusUpdateRequest, actor string) (*models.StatusChangeResult, error)
	ToggleIntervention(ctx context.Context, tracking string, t models.InterventionType, req *models.InterventionRequest, actor string) (*models.InterventionResult, error)
	AvailableStatuses(ctx context.Context, tracking string) (*models.AvailableStatuses, error)
	Delete(ctx context.Context, tracking string, actor string) error
	RecordPayment(ctx context.Context, tracking string, req *models.ManualPaymentRequest) (*models.Shipment, error)
}

// ShipmentQueries are the read-only admin projections
type ShipmentQueries interface {
	List(ctx context.Context, f models.ListFilter) (*models.ShipmentList, error)
	FilterOptions(ctx context.Context) (*models.FilterOptions, error)
	Export(ctx context.Context, f models.ListFilter, w io.Writer) (int, error)
	Detail(ctx context.Context, tracking string) (*models.ShipmentDetail, error)
	EmailHistory(ctx context.Context, tracking string) ([]models.EmailHistoryItem, error)
}

// ImageSource serves stored shipment photos
type ImageSource interface {
	Image(ctx context.Context, tracking, side string) ([]byte, string, error)
}

type ShipmentHandler struct {
	commands ShipmentCommands
	queries  ShipmentQueries
	images   ImageSource
	logger   *zap.Logger
}

func NewShipmentHandler(commands ShipmentCommands, queries ShipmentQueries, images ImageSource, logger *zap.Logger) *ShipmentHandler {
	return &ShipmentHandler{commands: commands, queries: queries, images: images, logger: logger}
}

// Create handles POST /api/v1/shipments. The body is either plain JSON or
// multipart with a "data" JSON field and optional front_image/rear_image files.
func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateShipmentRequest
	var front, rear *models.ImageUpload

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxCreateBody)
		if err := r.ParseMultipartForm(maxCreateBody); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid multipart body")
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("data")), &req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid shipment data")
			return
		}
		var err error
		if front, err = formImage(r.MultipartForm, "front_image"); err != nil {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if rear, err = formImage(r.MultipartForm, "rear_image"); err != nil {
			utils.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.commands.Create(r.Context(), &req, front, rear, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"success":         true,
		"tracking_number": s.TrackingNumber,
		"invoice_number":  s.InvoiceNumber,
		"shipment":        s,
	})
}

func formImage(form *multipart.Form, field string) (*models.ImageUpload, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("cannot read %s", field)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s", field)
	}
	return &models.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// parseListFilter reads page, limit, status, search, date_from and date_to
func parseListFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	f := models.ListFilter{
		Status: strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		Search: strings.TrimSpace(q.Get("search")),
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	v := models.NewValidationError()
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"date_from", &f.DateFrom}, {"date_to", &f.DateTo}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		d, err := timeutil.ParseDate(raw)
		if err != nil {
			v.Add(p.name, "must be YYYY-MM-DD")
			continue
		}
		*p.dst = &d
	}
	return f, v.OrNil()
}

// List handles GET /api/v1/shipments
func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	list, err := h.queries.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// Filters handles GET /api/v1/shipments/filters
func (h *ShipmentHandler) Filters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.queries.FilterOptions(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, opts)
}

// Export handles GET /api/v1/shipments/export
func (h *ShipmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var buf bytes.Buffer
	n, err := h.queries.Export(ctx, f, &buf)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.logger.Info("shipments exported", zap.Int("rows", n), zap.String("status", f.Status))

	filename := fmt.Sprintf("shipments_%s.csv", timeutil.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Write(buf.Bytes())
}

// Detail handles GET /api/v1/shipments/{tracking}
func (h *ShipmentHandler) Detail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.queries.Detail(r.Context(), mux.Vars(r)["tracking"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, detail)
}

// UpdateStatus handles PUT /api/v1/shipments/{tracking}/status
func (h *ShipmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		utils.Error(w, http.StatusBadRequest, "Status is required")
		return
	}

	res, err := h.commands.UpdateStatus(r.Context(), mux.Vars(r)["tracking"], &req, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"success":              true,
		"tracking_number":      res.Shipment.TrackingNumber,
		"old_status":           res.OldStatus,
		"new_status":           res.NewStatus,
		"timestamp":            res.Timestamp,
		"notifications_queued": res.NotificationsQueued,
		"shipment":             res.Shipment,
	})
}

// AvailableStatuses handles GET /api/v1/shipments/{tracking}/available-statuses
func (h *ShipmentHandler) AvailableStatuses(w http.ResponseWriter, r *http.Request) {
	res, err := h.commands.AvailableStatuses(r.Context(), mux.Vars(r)["tracking"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

// ToggleIntervention handles POST /api/v1/shipments/{tracking}/interventions/{type}
func (h *ShipmentHandler) ToggleIntervention(w http.ResponseWriter, r *http.Request) {
	var req models.InterventionRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	vars := mux.Vars(r)
	res, err := h.commands.ToggleIntervention(r.Context(), vars["tracking"],
		models.InterventionType(vars["type"]), &req, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

// Delete handles DELETE /api/v1/shipments/{tracking}
func (h *ShipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tracking := mux.Vars(r)["tracking"]
	if err := h.commands.Delete(r.Context(), tracking, middleware.Actor(r.Context())); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Shipment %s deleted", strings.ToUpper(tracking)),
	})
}

// RecordPayment handles PATCH /api/v1/shipments/{tracking}/payment
func (h *ShipmentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req models.ManualPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s, err := h.commands.RecordPayment(r.Context(), mux.Vars(r)["tracking"], &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "shipment": s})
}

// EmailHistory handles GET /api/v1/shipments/{tracking}/email-history
func (h *ShipmentHandler) EmailHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.queries.EmailHistory(r.Context(), mux.Vars(r)["tracking"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"emails": items, "total": len(items)})
}

// Image handles GET /api/v1/shipments/{tracking}/images/{side}
func (h *ShipmentHandler) Image(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data, contentType, err := h.images.Image(r.Context(), vars["tracking"], vars["side"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
