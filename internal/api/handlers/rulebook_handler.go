package handlers

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/payguard/backend/internal/extract"
	"github.com/payguard/backend/internal/rulebook"
	"github.com/payguard/backend/internal/rules"
	"github.com/payguard/backend/internal/storage/models"
	"github.com/payguard/backend/internal/storage/sqlite"
	"github.com/payguard/backend/pkg/logger"
)

type RulebookHandler struct {
	coordinator *rulebook.Coordinator
	store       *rulebook.Store
	repo        *rules.Repository
	cache       ResultCache
	history     *sqlite.Client
}

func NewRulebookHandler(coordinator *rulebook.Coordinator, store *rulebook.Store, repo *rules.Repository, cache ResultCache, history *sqlite.Client) *RulebookHandler {
	return &RulebookHandler{
		coordinator: coordinator,
		store:       store,
		repo:        repo,
		cache:       cache,
		history:     history,
	}
}

// HandleUpload ingests a rulebook document for a scheme. The uploaded file
// replaces any prior rulebook for that scheme.
func (h *RulebookHandler) HandleUpload(c *fiber.Ctx) error {
	scheme := strings.ToUpper(c.Params("scheme"))
	if scheme == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Scheme is required",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A rulebook file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	extracted, err := extract.FromBytes(fileHeader.Filename, data)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Could not extract text from the uploaded document",
		})
	}

	report, err := h.coordinator.Ingest(c.Context(), scheme, fileHeader.Filename, extracted.Text, extracted.Pages)
	if err != nil {
		if errors.Is(err, rulebook.ErrInsufficientText) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Failed to ingest rulebook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ingest rulebook",
		})
	}

	if h.cache != nil {
		if err := h.cache.InvalidateScheme(c.Context(), scheme); err != nil {
			logger.Warn("Failed to invalidate result cache", zap.Error(err))
		}
	}

	if h.history != nil {
		record := &models.IngestionRecord{
			Scheme:     report.Scheme,
			Filename:   report.Filename,
			TextLength: report.TextLength,
			Pages:      report.Pages,
			RulesAdded: report.RulesAdded,
			RuleSource: report.Provenance,
			Summary:    report.Summary,
			CreatedAt:  time.Now(),
		}
		if err := h.history.RecordIngestion(record); err != nil {
			logger.Warn("Failed to record ingestion", zap.Error(err))
		}
	}

	return c.JSON(report)
}

// HandleList returns the uploaded rulebook sources. Raw text is excluded.
func (h *RulebookHandler) HandleList(c *fiber.Ctx) error {
	sources := h.store.List()
	return c.JSON(fiber.Map{
		"rulebooks": sources,
		"count":     len(sources),
	})
}

// HandleDelete removes a scheme's uploaded rulebook. Extracted rules stay in
// the repository unless rules=true is passed.
func (h *RulebookHandler) HandleDelete(c *fiber.Ctx) error {
	scheme := strings.ToUpper(c.Params("scheme"))

	if !h.store.Delete(scheme) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No rulebook uploaded for scheme",
		})
	}

	if c.Query("rules") == "true" {
		h.repo.DeleteScheme(scheme)
	}

	if h.cache != nil {
		if err := h.cache.InvalidateScheme(c.Context(), scheme); err != nil {
			logger.Warn("Failed to invalidate result cache", zap.Error(err))
		}
	}

	logger.Info("Rulebook deleted", zap.String("scheme", scheme))

	return c.JSON(fiber.Map{
		"scheme":  scheme,
		"deleted": true,
	})
}

// HandleAllRules returns every stored rule across schemes.
func (h *RulebookHandler) HandleAllRules(c *fiber.Ctx) error {
	all := h.repo.All()
	return c.JSON(fiber.Map{
		"rules": all,
		"count": len(all),
	})
}

// HandleSchemeRules returns a scheme's rules grouped by category. Schemes
// with no stored rules fall back to their built-in defaults.
func (h *RulebookHandler) HandleSchemeRules(c *fiber.Ctx) error {
	scheme := strings.ToUpper(c.Params("scheme"))

	categorized := h.repo.Get(scheme)
	source := "repository"
	if len(categorized) == 0 {
		defaults := rules.DefaultRules(scheme)
		if len(defaults) == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No rules available for scheme",
			})
		}
		categorized = map[string][]rules.Rule{}
		for _, rule := range defaults {
			categorized[rule.Category] = append(categorized[rule.Category], rule)
		}
		source = "default"
	}

	count := 0
	for _, list := range categorized {
		count += len(list)
	}

	return c.JSON(fiber.Map{
		"scheme": scheme,
		"rules":  categorized,
		"count":  count,
		"source": source,
	})
}

// HandleDeleteSchemeRules clears a scheme's rules from the repository.
func (h *RulebookHandler) HandleDeleteSchemeRules(c *fiber.Ctx) error {
	scheme := strings.ToUpper(c.Params("scheme"))
	h.repo.DeleteScheme(scheme)

	// Cached results were evaluated against the rules just removed.
	if h.cache != nil {
		if err := h.cache.InvalidateScheme(c.Context(), scheme); err != nil {
			logger.Warn("Failed to invalidate result cache", zap.Error(err))
		}
	}

	logger.Info("Scheme rules deleted", zap.String("scheme", scheme))

	return c.JSON(fiber.Map{
		"scheme":  scheme,
		"deleted": true,
	})
}

// HandleIngestionHistory returns persisted ingestion events.
func (h *RulebookHandler) HandleIngestionHistory(c *fiber.Ctx) error {
	if h.history == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Ingestion history is not enabled",
		})
	}

	records, err := h.history.GetIngestionHistory(50)
	if err != nil {
		logger.Error("Failed to get ingestion history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get ingestion history",
		})
	}

	return c.JSON(fiber.Map{
		"history": records,
		"count":   len(records),
	})
}
