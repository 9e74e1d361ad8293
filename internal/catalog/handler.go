package catalog

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"microteca/internal/csvcodec"
	"microteca/internal/metrics"
	"microteca/internal/sync"
	"microteca/pkg/models"
)

// Broadcaster receives change events after every write.
type Broadcaster interface {
	BroadcastJSON(v any)
}

type Handler struct {
	Store   *Store
	Hub     Broadcaster
	Metrics *metrics.Metrics
	Log     *zap.Logger

	// CSVFormat is used when a request does not name one.
	CSVFormat csvcodec.Format
	CSVLimits csvcodec.Options

	Now func() time.Time
}

func NewHandler(store *Store, hub Broadcaster, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Hub:       hub,
		Metrics:   m,
		Log:       logger,
		CSVFormat: csvcodec.FormatNaive,
		Now:       time.Now,
	}
}

// RegisterPublicRoutes mounts the read-only browse endpoints.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listPublic)  // GET /microorganisms
	rg.GET("/:id", h.getByID) // GET /microorganisms/:id
}

// RegisterAdminRoutes mounts the console endpoints; rg must already be
// behind the auth middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/microorganisms", h.listAdmin)
	rg.POST("/microorganisms", h.create)
	rg.GET("/microorganisms/:id", h.getByID)
	rg.PUT("/microorganisms/:id", h.update)
	rg.DELETE("/microorganisms/:id", h.remove)
	rg.GET("/stats", h.stats)
	rg.GET("/export", h.exportCSV)
	rg.POST("/import", h.importCSV)
}

func queryFrom(c *gin.Context, scope Scope) Query {
	return Query{
		Search:       c.Query("q"),
		Category:     c.Query("category"),
		Availability: c.Query("availability"),
		Scope:        scope,
	}
}

func (h *Handler) list(c *gin.Context, scope Scope) {
	q := queryFrom(c, scope)
	items := Filter(h.Store.All(), q)
	h.Metrics.Queried(string(scope))

	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) listPublic(c *gin.Context) { h.list(c, ScopePublic) }

func (h *Handler) listAdmin(c *gin.Context) { h.list(c, ScopeAdmin) }

func (h *Handler) getByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rec, found := h.Store.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) create(c *gin.Context) {
	var f models.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := Validate(f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := h.Store.Insert(f)
	h.Metrics.Mutated("create", Applied.String())
	h.Log.Info("record created", zap.Int("id", rec.ID), zap.String("internal_code", rec.InternalCode))
	h.broadcast(sync.CatalogEvent{Type: sync.EventCreate, ID: rec.ID, InternalCode: rec.InternalCode})

	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var f models.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := Validate(f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, outcome := h.Store.Update(id, f)
	h.Metrics.Mutated("update", outcome.String())
	if outcome == NotFound {
		// a missing id is a no-op, not an error
		h.Log.Debug("update of unknown record ignored", zap.Int("id", id))
		c.JSON(http.StatusOK, gin.H{"status": outcome.String()})
		return
	}

	h.Log.Info("record updated", zap.Int("id", rec.ID))
	h.broadcast(sync.CatalogEvent{Type: sync.EventUpdate, ID: rec.ID, InternalCode: rec.InternalCode})
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) remove(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	outcome := h.Store.Delete(id)
	h.Metrics.Mutated("delete", outcome.String())
	if outcome == NotFound {
		c.JSON(http.StatusOK, gin.H{"status": outcome.String()})
		return
	}

	h.Log.Info("record deleted", zap.Int("id", id))
	h.broadcast(sync.CatalogEvent{Type: sync.EventDelete, ID: id})
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "status": outcome.String()})
}

func (h *Handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, ComputeStats(h.Store.All()))
}

// exportCSV downloads the admin view as filtered by the request query.
func (h *Handler) exportCSV(c *gin.Context) {
	format, ok := h.formatFrom(c)
	if !ok {
		return
	}

	items := Filter(h.Store.All(), queryFrom(c, ScopeAdmin))
	body, err := csvcodec.Encode(format, items)
	if err != nil {
		h.Log.Error("csv export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	h.Metrics.Exported(string(format))
	h.Log.Info("csv exported", zap.Int("records", len(items)), zap.String("format", string(format)))

	c.Header("Content-Disposition", `attachment; filename="`+csvcodec.ExportFilename(h.Now().UTC())+`"`)
	c.Header("X-Record-Count", strconv.Itoa(len(items)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

// importCSV accepts a multipart "file" field or a raw text body. Nothing
// is inserted unless the whole file parses.
func (h *Handler) importCSV(c *gin.Context) {
	format, ok := h.formatFrom(c)
	if !ok {
		return
	}

	src, closeSrc, err := uploadReader(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no csv file provided"})
		return
	}
	defer closeSrc()

	rows, err := csvcodec.Decode(format, src, h.CSVLimits)
	if err != nil {
		h.Metrics.ImportFailed()
		h.Log.Warn("csv import rejected", zap.Error(err))
		status := http.StatusBadRequest
		if errors.Is(err, csvcodec.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": "import failed: check the CSV file format", "detail": err.Error()})
		return
	}

	inserted := h.Store.InsertMany(rows)
	h.Metrics.ImportSucceeded(len(inserted))
	h.Log.Info("csv imported", zap.Int("records", len(inserted)), zap.String("format", string(format)))
	if len(inserted) > 0 {
		h.broadcast(sync.CatalogEvent{Type: sync.EventImport, Count: len(inserted)})
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": len(inserted),
		"items":    inserted,
	})
}

func (h *Handler) formatFrom(c *gin.Context) (csvcodec.Format, bool) {
	raw := c.Query("format")
	if raw == "" {
		return h.CSVFormat, true
	}
	format, err := csvcodec.ParseFormat(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return format, true
}

func (h *Handler) broadcast(ev sync.CatalogEvent) {
	if h.Hub == nil {
		return
	}
	ev.At = h.Now().UTC()
	go h.Hub.BroadcastJSON(ev)
}

func uploadReader(c *gin.Context) (io.Reader, func(), error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	}
	if c.Request.Body == nil {
		return nil, nil, errors.New("empty body")
	}
	return c.Request.Body, func() {}, nil
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return 0, false
	}
	return id, true
}
