package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/payguard/backend/internal/evaluation"
	"github.com/payguard/backend/internal/metrics"
	"github.com/payguard/backend/internal/payment"
	"github.com/payguard/backend/internal/queue"
	"github.com/payguard/backend/internal/storage/sqlite"
	"github.com/payguard/backend/pkg/logger"
	"github.com/payguard/backend/pkg/utils"
)

type ValidationHandler struct {
	evaluator *evaluation.Evaluator
	queue     *queue.Queue
	cache     ResultCache
	history   *sqlite.Client
}

func NewValidationHandler(evaluator *evaluation.Evaluator, q *queue.Queue, cache ResultCache, history *sqlite.Client) *ValidationHandler {
	return &ValidationHandler{
		evaluator: evaluator,
		queue:     q,
		cache:     cache,
		history:   history,
	}
}

type validateRequest struct {
	Scheme  string                 `json:"scheme"`
	Payment map[string]interface{} `json:"payment"`
}

func (r *validateRequest) normalize() (*payment.CanonicalPaymentRecord, error) {
	record, err := payment.NormalizeMap(r.Payment)
	if err != nil {
		return nil, err
	}
	if r.Scheme != "" {
		record.Scheme = strings.ToUpper(r.Scheme)
	}
	return record, nil
}

// HandleValidate evaluates a single payment synchronously.
func (h *ValidationHandler) HandleValidate(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := req.normalize()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	cacheKey := h.cacheKey(record)
	if h.cache != nil {
		if result, ok, err := h.cache.GetResult(c.Context(), cacheKey); err == nil && ok {
			metrics.CacheHits.WithLabelValues("validation").Inc()
			return c.JSON(result)
		}
		metrics.CacheMisses.WithLabelValues("validation").Inc()
	}

	result, err := h.evaluator.Evaluate(c.Context(), record)
	if err != nil {
		logger.Error("Failed to evaluate payment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to evaluate payment",
		})
	}

	if h.cache != nil {
		if err := h.cache.SetResult(c.Context(), cacheKey, result); err != nil {
			logger.Warn("Failed to cache result", zap.Error(err))
		}
	}

	return c.JSON(result)
}

// HandleQueueMessage enqueues a payment for background validation.
func (h *ValidationHandler) HandleQueueMessage(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := req.normalize()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	job, err := h.queue.Submit(record)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Validation queue is full",
			})
		}
		logger.Error("Failed to enqueue payment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enqueue payment",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message_id": job.ID,
		"status":     job.Status,
		"position":   job.Position,
		"queued_at":  job.QueuedAt,
	})
}

type batchRequest struct {
	Scheme   string                   `json:"scheme"`
	Payments []map[string]interface{} `json:"payments"`
}

// HandleQueueBatch enqueues every payment in the request under one batch id.
// Records that fail normalization are reported but do not block siblings.
func (h *ValidationHandler) HandleQueueBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Payments) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one payment is required",
		})
	}

	records := make([]*payment.CanonicalPaymentRecord, 0, len(req.Payments))
	rejected := []fiber.Map{}
	for i, fields := range req.Payments {
		single := validateRequest{Scheme: req.Scheme, Payment: fields}
		record, err := single.normalize()
		if err != nil {
			rejected = append(rejected, fiber.Map{"index": i, "error": err.Error()})
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "No payment could be normalized",
			"rejected": rejected,
		})
	}

	batchID, jobs, err := h.queue.SubmitBatch(records)
	if err != nil && len(jobs) == 0 {
		logger.Error("Failed to enqueue batch", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Validation queue is full",
		})
	}

	jobIDs := make([]string, 0, len(jobs))
	for _, job := range jobs {
		jobIDs = append(jobIDs, job.ID)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"batch_id":    batchID,
		"message_ids": jobIDs,
		"accepted":    len(jobIDs),
		"rejected":    rejected,
	})
}

// HandleJobStatus returns the current state of one queued job.
func (h *ValidationHandler) HandleJobStatus(c *fiber.Ctx) error {
	jobID := c.Params("id")

	job, ok := h.queue.Status(jobID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Message not found",
		})
	}

	return c.JSON(job)
}

// HandleJobList returns a snapshot of the tracked queue window.
func (h *ValidationHandler) HandleJobList(c *fiber.Ctx) error {
	jobs := h.queue.List()
	return c.JSON(fiber.Map{
		"messages": jobs,
		"count":    len(jobs),
	})
}

// HandleStatistics returns the cumulative processing counters.
func (h *ValidationHandler) HandleStatistics(c *fiber.Ctx) error {
	return c.JSON(h.queue.Statistics())
}

// HandleUploadPayment accepts a pacs.008 XML file, normalizes it and
// enqueues the resulting record.
func (h *ValidationHandler) HandleUploadPayment(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A payment file is required",
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

	record, err := payment.ParsePACS008(data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	job, err := h.queue.Submit(record)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Validation queue is full",
			})
		}
		logger.Error("Failed to enqueue payment", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enqueue payment",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message_id": job.ID,
		"record_id":  record.ID,
		"scheme":     record.Scheme,
		"status":     job.Status,
		"filename":   fileHeader.Filename,
	})
}

// HandleValidationHistory returns persisted evaluation results.
func (h *ValidationHandler) HandleValidationHistory(c *fiber.Ctx) error {
	if h.history == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Validation history is not enabled",
		})
	}

	scheme := strings.ToUpper(c.Query("scheme"))
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	records, err := h.history.GetValidationHistory(scheme, limit)
	if err != nil {
		logger.Error("Failed to get validation history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get validation history",
		})
	}

	return c.JSON(fiber.Map{
		"history": records,
		"count":   len(records),
	})
}

func (h *ValidationHandler) cacheKey(record *payment.CanonicalPaymentRecord) string {
	data, _ := json.Marshal(record)
	return record.Scheme + ":" + utils.HashString(string(data))
}
