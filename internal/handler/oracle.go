package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/httperror"
	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/oracle"
)

// GenerateOptionsRequest: 선택지 생성 요청 본문입니다.
// question 은 존재만 확인하며 빈 문자열도 허용합니다.
type GenerateOptionsRequest struct {
	Question *string `json:"question" binding:"required"`
}

// PredictProbabilitiesRequest: 확률 예측 요청 본문입니다.
// options 는 문자열 배열이어야 하며 빈 배열도 허용합니다.
type PredictProbabilitiesRequest struct {
	Question *string  `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

// GenerateOptionsResponse: 모델이 돌려준 JSON 을 그대로 담습니다.
type GenerateOptionsResponse struct {
	Options json.RawMessage `json:"options"`
}

// PredictProbabilitiesResponse: 모델이 돌려준 JSON 을 그대로 담습니다.
type PredictProbabilitiesResponse struct {
	Probabilities json.RawMessage `json:"probabilities"`
}

// OracleHandler: 예측 시장 오라클 API 핸들러입니다.
type OracleHandler struct {
	service *oracle.Service
	logger  *slog.Logger
}

// NewOracleHandler: 오라클 핸들러를 생성합니다.
func NewOracleHandler(service *oracle.Service, logger *slog.Logger) *OracleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OracleHandler{service: service, logger: logger}
}

// RegisterRoutes: 루트와 /api/oracle 아래에 같은 라우트를 등록합니다.
func (h *OracleHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/generate-options", h.handleGenerateOptions)
	router.POST("/predict-probabilities", h.handlePredictProbabilities)

	group := router.Group("/api/oracle")
	group.POST("/generate-options", h.handleGenerateOptions)
	group.POST("/predict-probabilities", h.handlePredictProbabilities)
}

func (h *OracleHandler) handleGenerateOptions(c *gin.Context) {
	var req GenerateOptionsRequest
	if !bindJSON(c, &req) {
		return
	}

	options, err := h.service.GenerateOptions(c.Request.Context(), *req.Question)
	if err != nil {
		h.fail(c, oracle.OperationGenerateOptions, err)
		return
	}

	c.JSON(http.StatusOK, GenerateOptionsResponse{Options: options})
}

func (h *OracleHandler) handlePredictProbabilities(c *gin.Context) {
	var req PredictProbabilitiesRequest
	if !bindJSON(c, &req) {
		return
	}

	probabilities, err := h.service.PredictProbabilities(c.Request.Context(), *req.Question, req.Options)
	if err != nil {
		h.fail(c, oracle.OperationPredictProbabilities, err)
		return
	}

	c.JSON(http.StatusOK, PredictProbabilitiesResponse{Probabilities: probabilities})
}

func (h *OracleHandler) fail(c *gin.Context, operation string, err error) {
	h.logger.WarnContext(c.Request.Context(), "oracle_request_failed",
		"operation", operation,
		"request_id", requestID(c),
		"err", err,
	)
	writeError(c, httperror.NewOracleFailure(err))
}
