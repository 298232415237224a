package controllers

import (
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"customer-option-service/models"
	aws_pkg "customer-option-service/pkg/aws"
	"customer-option-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxUploadSize   = 50 * 1024 * 1024 // 50MB
	maxPageSize     = 100
	defaultPageSize = 20
)

var allowedImportExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".xlsx": true,
}

type PriceImportController struct {
	importService services.PriceImportService
	uploadDir     string
	logger        *zap.Logger
}

// NewPriceImportController creates the controller. Uploads are stored in
// uploadDir for the duration of the import, and JSON sources that are not
// S3 URIs must name a file inside it.
func NewPriceImportController(svc services.PriceImportService, uploadDir string, logger *zap.Logger) *PriceImportController {
	return &PriceImportController{importService: svc, uploadDir: uploadDir, logger: logger}
}

// ImportPrices handles POST /admin/customer-option-prices/import
func (pc *PriceImportController) ImportPrices(ctx *gin.Context) {
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		pc.importUpload(ctx)
		return
	}

	var req models.ImportFromSourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	source, err := pc.resolveSource(req.Source)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pc.runCSVImport(ctx, source)
}

func (pc *PriceImportController) importUpload(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if err := validateUpload(file); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := os.MkdirAll(pc.uploadDir, 0o755); err != nil {
		pc.logger.Error("failed to create upload directory", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	path := filepath.Join(pc.uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(file.Filename)))
	if err := ctx.SaveUploadedFile(file, path); err != nil {
		pc.logger.Error("failed to store upload", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	defer os.Remove(path)

	pc.runCSVImport(ctx, path)
}

func (pc *PriceImportController) runCSVImport(ctx *gin.Context, source string) {
	resp, svcErr := pc.importService.ImportCSV(ctx.Request.Context(), source)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ImportByExample handles POST /admin/customer-option-prices/import-by-example
func (pc *PriceImportController) ImportByExample(ctx *gin.Context) {
	var req models.ImportByExampleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := pc.importService.ImportByExample(ctx.Request.Context(), req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListImportRuns handles GET /admin/customer-option-prices/imports
func (pc *PriceImportController) ListImportRuns(ctx *gin.Context) {
	kind := ctx.Query("kind")
	if kind != "" && kind != models.ImportKindCSV && kind != models.ImportKindByExample {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
		return
	}

	page, pageSize := parsePaginationParams(ctx)
	runs, total, svcErr := pc.importService.ListRuns(ctx.Request.Context(), models.PriceImportRunFilter{
		Kind:     kind,
		Page:     page,
		PageSize: pageSize,
	})
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":        runs,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

// ValidateOption handles POST /admin/customer-options/:code/validate
func (pc *PriceImportController) ValidateOption(ctx *gin.Context) {
	var req models.ValidateOptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	violations, svcErr := pc.importService.ValidateOption(ctx.Request.Context(), ctx.Param("code"), req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"valid": len(violations) == 0, "violations": violations})
}

// resolveSource accepts S3 URIs as is and maps anything else to a file in the upload directory.
func (pc *PriceImportController) resolveSource(source string) (string, error) {
	source = strings.TrimSpace(source)
	if _, _, ok := aws_pkg.ParseS3URI(source); ok {
		return source, nil
	}
	if source == "" || filepath.IsAbs(source) || strings.Contains(filepath.ToSlash(source), "..") {
		return "", fmt.Errorf("source must be an s3:// URI or a file name in the upload directory")
	}
	if !allowedImportExtensions[strings.ToLower(filepath.Ext(source))] {
		return "", fmt.Errorf("invalid file type. Allowed: csv, txt, xlsx")
	}
	return filepath.Join(pc.uploadDir, filepath.Clean(source)), nil
}

func validateUpload(file *multipart.FileHeader) error {
	if !allowedImportExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		return fmt.Errorf("invalid file type. Allowed: csv, txt, xlsx")
	}
	if file.Size > MaxUploadSize {
		return fmt.Errorf("file too large. Maximum size is %d MB", MaxUploadSize/(1024*1024))
	}
	return nil
}

func parsePaginationParams(ctx *gin.Context) (int, int) {
	page, pageSize := 1, defaultPageSize
	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("page_size", strconv.Itoa(defaultPageSize))); err == nil && l > 0 {
		pageSize = l
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
	}
	return page, pageSize
}
