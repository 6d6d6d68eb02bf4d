package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"imagevault/internal/domain/upload"
	"imagevault/internal/middleware"
	"imagevault/internal/repository"
	"imagevault/internal/services"
	"imagevault/internal/transport/httpdto"
	"imagevault/internal/validation"
	vault_errors "imagevault/pkg/errors"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit  = 50
	defaultURLTTLSecs = 3600
	maxURLTTLSecs     = 7 * 24 * 3600
)

type UploadHandler struct {
	svc *services.UploadService
}

func NewUploadHandler(svc *services.UploadService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// Create handles POST /api/v1/uploads
func (h *UploadHandler) Create(c *gin.Context) {
	in, err := h.parseCreateForm(c)
	if err != nil {
		c.Error(err)
		return
	}

	u, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromRecord(services.Record{Upload: u})))
}

// CreateWithBackgroundRemoval handles POST /api/v1/uploads/background-removal
func (h *UploadHandler) CreateWithBackgroundRemoval(c *gin.Context) {
	in, err := h.parseCreateForm(c)
	if err != nil {
		c.Error(err)
		return
	}

	opts := services.RemovalOptions{
		Model:           c.DefaultPostForm("model", "u2net"),
		EdgeSmoothing:   formBool(c, "edge_smoothing", true),
		GenerateCaption: formBool(c, "generate_caption", true),
	}

	u, err := h.svc.CreateWithBackgroundRemoval(c.Request.Context(), in, opts)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromRecord(services.Record{Upload: u})))
}

// List handles GET /api/v1/uploads
func (h *UploadHandler) List(c *gin.Context) {
	filter := repository.UploadFilter{
		Limit: queryInt64(c, "limit", defaultListLimit),
		Skip:  queryInt64(c, "skip", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := upload.ParseStatus(raw)
		if err != nil {
			c.Error(err)
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("category"); raw != "" {
		category, err := upload.ParseCategory(raw)
		if err != nil {
			c.Error(err)
			return
		}
		filter.Category = &category
	}

	records, err := h.svc.List(c.Request.Context(), middleware.OwnerID(c), filter, urlTTL(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListUploadsResponse{
		Uploads: httpdto.FromRecords(records),
		Count:   len(records),
		Limit:   filter.Limit,
		Skip:    filter.Skip,
	}))
}

// Public handles GET /api/v1/uploads/public
func (h *UploadHandler) Public(c *gin.Context) {
	limit := queryInt64(c, "limit", defaultListLimit)
	skip := queryInt64(c, "skip", 0)

	records, err := h.svc.Public(c.Request.Context(), limit, skip, urlTTL(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListUploadsResponse{
		Uploads: httpdto.FromRecords(records),
		Count:   len(records),
		Limit:   limit,
		Skip:    skip,
	}))
}

// Get handles GET /api/v1/uploads/:id
func (h *UploadHandler) Get(c *gin.Context) {
	record, err := h.svc.Get(c.Request.Context(), c.Param("id"), middleware.OwnerID(c), urlTTL(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromRecord(record)))
}

// Update handles PATCH /api/v1/uploads/:id
func (h *UploadHandler) Update(c *gin.Context) {
	var req httpdto.UpdateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(fmt.Errorf("%w: %v", vault_errors.ErrInvalidInput, err))
		return
	}

	u, err := h.svc.Edit(c.Request.Context(), c.Param("id"), middleware.OwnerID(c), upload.Update{
		Description: req.Description,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromRecord(services.Record{Upload: u})))
}

// Delete handles DELETE /api/v1/uploads/:id
func (h *UploadHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id, middleware.OwnerID(c)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.DeleteUploadResponse{UploadID: id}))
}

// Models handles GET /api/v1/models
func (h *UploadHandler) Models(c *gin.Context) {
	infos := h.svc.SupportedModels()
	models := make([]httpdto.ModelDTO, len(infos))
	for i, info := range infos {
		models[i] = httpdto.ModelDTO{Name: info.Name, Description: info.Description}
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ModelsResponse{Models: models}))
}

func (h *UploadHandler) parseCreateForm(c *gin.Context) (services.CreateUploadInput, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return services.CreateUploadInput{}, fmt.Errorf("%w: file field is required", vault_errors.ErrInvalidInput)
	}
	if fileHeader.Size > validation.MaxUploadBytes {
		return services.CreateUploadInput{}, fmt.Errorf("%w: file size exceeds 10MB limit", vault_errors.ErrInvalidMedia)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return services.CreateUploadInput{}, fmt.Errorf("%w: %v", vault_errors.ErrInvalidInput, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validation.MaxUploadBytes+1))
	if err != nil {
		return services.CreateUploadInput{}, fmt.Errorf("%w: reading file: %v", vault_errors.ErrInvalidInput, err)
	}

	category, err := upload.ParseCategory(c.PostForm("category"))
	if err != nil {
		return services.CreateUploadInput{}, err
	}

	return services.CreateUploadInput{
		OwnerID:      middleware.OwnerID(c),
		FileName:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Data:         data,
		DeclaredSize: fileHeader.Size,
		Category:     category,
		Description:  c.PostForm("description"),
		Tags:         parseTags(c.PostForm("tags")),
		IsPublic:     formBool(c, "is_public", false),
	}, nil
}

func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func formBool(c *gin.Context, key string, fallback bool) bool {
	raw := c.PostForm(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryInt64(c *gin.Context, key string, fallback int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func urlTTL(c *gin.Context) time.Duration {
	secs := queryInt64(c, "url_ttl", defaultURLTTLSecs)
	if secs <= 0 || secs > maxURLTTLSecs {
		secs = defaultURLTTLSecs
	}
	return time.Duration(secs) * time.Second
}
