package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/httperror"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/metrics"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/usage"
)

const usageDateLayout = "2006-01-02"

// UsageResponse 는 사용량 합계 응답이다.
type UsageResponse struct {
	InputTokens     int64  `json:"input_tokens"`
	OutputTokens    int64  `json:"output_tokens"`
	TotalTokens     int64  `json:"total_tokens"`
	ReasoningTokens int64  `json:"reasoning_tokens"`
	CachedTokens    int64  `json:"cached_tokens,omitempty"`
	RequestCount    int64  `json:"request_count,omitempty"`
	Model           string `json:"model,omitempty"`
}

// DailyUsageResponse: 일자/모델별 사용량 응답입니다.
type DailyUsageResponse struct {
	UsageDate       string `json:"usage_date"`
	Model           string `json:"model"`
	InputTokens     int64  `json:"input_tokens"`
	OutputTokens    int64  `json:"output_tokens"`
	TotalTokens     int64  `json:"total_tokens"`
	ReasoningTokens int64  `json:"reasoning_tokens"`
	RequestCount    int64  `json:"request_count"`
}

// UsageListResponse: 사용량 목록 응답입니다.
type UsageListResponse struct {
	Usages            []DailyUsageResponse `json:"usages"`
	TotalInputTokens  int64                `json:"total_input_tokens"`
	TotalOutputTokens int64                `json:"total_output_tokens"`
	TotalTokens       int64                `json:"total_tokens"`
	TotalRequestCount int64                `json:"total_request_count"`
}

// UsageHandler: 사용량 API 핸들러입니다.
// repo 가 nil 이면 사용량 원장이 비활성화된 상태입니다.
type UsageHandler struct {
	cfg     *config.Config
	repo    usage.Store
	metrics *metrics.Store
	logger  *slog.Logger
}

// NewUsageHandler: 사용량 핸들러를 생성합니다.
func NewUsageHandler(cfg *config.Config, repo usage.Store, metricsStore *metrics.Store, logger *slog.Logger) *UsageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageHandler{
		cfg:     cfg,
		repo:    repo,
		metrics: metricsStore,
		logger:  logger,
	}
}

// RegisterRoutes: 사용량 라우트를 등록합니다.
func (h *UsageHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/oracle")
	group.GET("/usage", h.handleUsage)
	group.GET("/usage/daily", h.handleDaily)
	group.GET("/usage/total", h.handleTotal)
	group.GET("/metrics", h.handleMetrics)
}

func (h *UsageHandler) handleUsage(c *gin.Context) {
	totals := h.metrics.UsageTotals()
	c.JSON(http.StatusOK, UsageResponse{
		InputTokens:     int64(totals.InputTokens),
		OutputTokens:    int64(totals.OutputTokens),
		TotalTokens:     int64(totals.TotalTokens),
		ReasoningTokens: int64(totals.ReasoningTokens),
		CachedTokens:    int64(totals.CachedTokens),
	})
}

func (h *UsageHandler) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func (h *UsageHandler) handleDaily(c *gin.Context) {
	if !h.requireLedger(c) {
		return
	}
	days, ok := parseDays(c, 7)
	if !ok {
		return
	}

	usages, err := h.repo.GetRecentUsage(c.Request.Context(), days)
	if err != nil {
		h.logError(c, err)
		writeError(c, httperror.NewInternalError("failed to load usage"))
		return
	}

	c.JSON(http.StatusOK, buildUsageListResponse(usages))
}

func (h *UsageHandler) handleTotal(c *gin.Context) {
	if !h.requireLedger(c) {
		return
	}
	days, ok := parseDays(c, 30)
	if !ok {
		return
	}

	row, err := h.repo.GetTotalUsage(c.Request.Context(), days)
	if err != nil {
		h.logError(c, err)
		writeError(c, httperror.NewInternalError("failed to load usage"))
		return
	}

	c.JSON(http.StatusOK, UsageResponse{
		InputTokens:     row.InputTokens,
		OutputTokens:    row.OutputTokens,
		TotalTokens:     row.TotalTokens(),
		ReasoningTokens: row.ReasoningTokens,
		RequestCount:    row.RequestCount,
	})
}

func (h *UsageHandler) requireLedger(c *gin.Context) bool {
	if h.repo != nil {
		return true
	}
	writeError(c, httperror.NewUnavailable("usage ledger"))
	return false
}

func buildUsageListResponse(usages []usage.DailyUsage) UsageListResponse {
	response := UsageListResponse{
		Usages: make([]DailyUsageResponse, 0, len(usages)),
	}

	for _, row := range usages {
		response.Usages = append(response.Usages, DailyUsageResponse{
			UsageDate:       row.UsageDate.Format(usageDateLayout),
			Model:           row.Model,
			InputTokens:     row.InputTokens,
			OutputTokens:    row.OutputTokens,
			TotalTokens:     row.TotalTokens(),
			ReasoningTokens: row.ReasoningTokens,
			RequestCount:    row.RequestCount,
		})
		response.TotalInputTokens += row.InputTokens
		response.TotalOutputTokens += row.OutputTokens
		response.TotalTokens += row.TotalTokens()
		response.TotalRequestCount += row.RequestCount
	}

	return response
}

func parseDays(c *gin.Context, defaultDays int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return defaultDays, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		writeError(c, httperror.NewInvalidInput("days must be a positive integer"))
		return 0, false
	}
	return parsed, true
}

func (h *UsageHandler) logError(c *gin.Context, err error) {
	h.logger.WarnContext(c.Request.Context(), "usage_request_failed",
		"request_id", requestID(c),
		"err", err,
	)
}
