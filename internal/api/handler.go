package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/statement-importer/internal/buildinfo"
	"github.com/insightdelivered/statement-importer/internal/ingest"
	"github.com/insightdelivered/statement-importer/internal/models"
	"github.com/insightdelivered/statement-importer/internal/reconcile"
)

// UserHeader carries the authenticated user id, set by the upstream gateway.
const UserHeader = "X-User-ID"

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Preview is the dry-run view of a parsed statement.
type Preview struct {
	BankDetected       models.BankType            `json:"bankDetected"`
	TotalTransactions  int                        `json:"totalTransactions"`
	Summary            models.Summary             `json:"summary"`
	SampleTransactions []models.ParsedTransaction `json:"sampleTransactions"`
	SkippedLines       int                        `json:"skippedLines"`
	Filename           string                     `json:"filename"`
}

// PreviewResponse is the body of POST /api/preview.
type PreviewResponse struct {
	Success bool    `json:"success"`
	Preview Preview `json:"preview"`
}

// ImportResponse is the body of POST /api/import.
type ImportResponse struct {
	Success bool             `json:"success"`
	Import  reconcile.Report `json:"import"`
	Summary models.Summary   `json:"summary"`
}

// Handler serves the statement upload endpoints.
type Handler struct {
	Parser     *ingest.Service
	Reconciler *reconcile.Reconciler
	Logger     *log.Logger

	// PreviewLimit caps SampleTransactions.
	PreviewLimit int
	// UploadDir receives uploads while they are parsed. Empty means os.TempDir.
	UploadDir string
}

// RegisterRoutes sets up the API routes on app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Post("/preview", h.requireUser, h.HandlePreview)
	api.Post("/import", h.requireUser, h.HandleImport)
}

// NewApp creates a fiber app with the upload limit applied and routes registered.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	h.RegisterRoutes(app)
	return app
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	result, filename, err := h.parseUpload(c)
	if err != nil {
		return err
	}
	if !result.Success {
		return writeError(c, fiber.StatusBadRequest, "failed to parse statement", result.Errors...)
	}

	limit := h.PreviewLimit
	if limit <= 0 || limit > len(result.Transactions) {
		limit = len(result.Transactions)
	}

	return c.JSON(PreviewResponse{
		Success: true,
		Preview: Preview{
			BankDetected:       result.BankDetected,
			TotalTransactions:  result.TotalTransactions,
			Summary:            result.Summary,
			SampleTransactions: result.Transactions[:limit],
			SkippedLines:       len(result.SkippedLines),
			Filename:           filename,
		},
	})
}

func (h *Handler) HandleImport(c *fiber.Ctx) error {
	if h.Reconciler == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "imports are not configured")
	}

	result, filename, err := h.parseUpload(c)
	if err != nil {
		return err
	}
	if !result.Success {
		return writeError(c, fiber.StatusBadRequest, "failed to parse statement", result.Errors...)
	}

	req := reconcile.Request{
		UserID:      userID(c),
		AccountName: strings.TrimSpace(c.FormValue("accountName")),
		SourceName:  filename,
	}
	report, err := h.Reconciler.Import(c.UserContext(), req, result)
	if err != nil {
		h.Logger.Error("import failed", "file", filename, "user", req.UserID, "err", err)
		return writeError(c, fiber.StatusInternalServerError, "failed to import statement", err.Error())
	}

	return c.JSON(ImportResponse{
		Success: true,
		Import:  report,
		Summary: result.Summary,
	})
}

// parseUpload stores the "file" form field in a temporary file, parses it
// and removes the file again on every path.
func (h *Handler) parseUpload(c *fiber.Ctx) (models.ParsingResult, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return models.ParsingResult{}, "", fiber.NewError(fiber.StatusBadRequest, "no file uploaded, use form field 'file'")
	}

	filename := filepath.Base(fh.Filename)
	if err := ingest.ValidateExtension(filename); err != nil {
		return models.ParsingResult{}, "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	tmp, err := os.CreateTemp(h.UploadDir, "statement-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return models.ParsingResult{}, "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(fh, tmpPath); err != nil {
		return models.ParsingResult{}, "", fmt.Errorf("save upload: %w", err)
	}

	result := h.Parser.ParseFile(tmpPath, filename)
	if !result.Success {
		h.Logger.Warn("statement rejected", "file", filename, "errors", result.Errors)
	}
	return result, filename, nil
}

func (h *Handler) requireUser(c *fiber.Ctx) error {
	if userID(c) == "" {
		return fiber.NewError(fiber.StatusUnauthorized, fmt.Sprintf("missing %s header", UserHeader))
	}
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(UserHeader))
}

func writeError(c *fiber.Ctx, status int, msg string, details ...string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   msg,
		Details: details,
	})
}

// errorHandler renders every error returned by a handler as ErrorResponse.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return writeError(c, code, err.Error())
}
