// 包 http 提供指数成分数据服务的 HTTP 处理器
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/indexdata/internal/indexdata/application"
	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// IndexDataHandler HTTP 处理器
type IndexDataHandler struct {
	reconcile  *application.ReconcileService
	query      *application.IndexQueryService
	marketData *application.MarketDataService
}

// NewIndexDataHandler 创建 HTTP 处理器实例
func NewIndexDataHandler(reconcile *application.ReconcileService, query *application.IndexQueryService, marketData *application.MarketDataService) *IndexDataHandler {
	return &IndexDataHandler{reconcile: reconcile, query: query, marketData: marketData}
}

// RegisterRoutes 将处理器方法绑定到 Gin 路由
func (h *IndexDataHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/v1/indexdata")
	{
		api.POST("/indices", h.RegisterIndex)
		api.GET("/indices", h.ListIndices)
		api.GET("/indices/:code", h.GetIndex)
		api.POST("/indices/:code/snapshot", h.ReconcileSnapshot)
		api.GET("/indices/:code/constituents", h.GetConstituents)
		api.GET("/indices/:code/constituents/:symbol/history", h.GetConstituentHistory)
		api.GET("/indices/:code/members/:symbol", h.CheckMembership)
		api.GET("/indices/:code/changes", h.GetChanges)
		api.GET("/indices/:code/delta", h.GetDelta)
		api.POST("/bars/:symbol", h.SaveBars)
		api.GET("/bars/:symbol", h.GetBars)
	}
}

// RegisterIndex 注册或更新指数
func (h *IndexDataHandler) RegisterIndex(c *gin.Context) {
	var cmd application.RegisterIndexCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	index, err := h.reconcile.RegisterIndex(c.Request.Context(), cmd)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to register index", "index_code", cmd.IndexCode, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, index)
}

// ListIndices 列出已注册指数
func (h *IndexDataHandler) ListIndices(c *gin.Context) {
	indices, err := h.query.ListIndices(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "failed to list indices", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, indices)
}

// GetIndex 获取指数详情
func (h *IndexDataHandler) GetIndex(c *gin.Context) {
	code := c.Param("code")
	index, err := h.query.GetIndex(c.Request.Context(), code)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to get index", "index_code", code, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if index == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "index not found", "")
		return
	}
	response.Success(c, index)
}

// ReconcileSnapshot 用成分快照对账指数
func (h *IndexDataHandler) ReconcileSnapshot(c *gin.Context) {
	var cmd application.ReconcileCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	cmd.IndexCode = c.Param("code")

	result, err := h.reconcile.Reconcile(c.Request.Context(), cmd)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	response.Success(c, result)
}

// GetConstituents 当前成分或 as_of 指定日期的成分
func (h *IndexDataHandler) GetConstituents(c *gin.Context) {
	code := c.Param("code")
	asOf := c.Query("as_of")

	var (
		constituents []*domain.Constituent
		err          error
	)
	if asOf == "" {
		constituents, err = h.query.CurrentMembers(c.Request.Context(), code)
	} else {
		constituents, err = h.query.MembersAsOf(c.Request.Context(), code, asOf)
	}
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	response.Success(c, constituents)
}

// GetConstituentHistory 单只代码的全部成员区间
func (h *IndexDataHandler) GetConstituentHistory(c *gin.Context) {
	history, err := h.query.ConstituentHistory(c.Request.Context(), c.Param("code"), c.Param("symbol"))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	response.Success(c, history)
}

// CheckMembership 某代码在给定日期是否属于指数
func (h *IndexDataHandler) CheckMembership(c *gin.Context) {
	code := c.Param("code")
	symbol := c.Param("symbol")
	date := c.Query("date")

	member, err := h.query.IsMember(c.Request.Context(), code, symbol, date)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	response.Success(c, gin.H{"index_code": code, "symbol": symbol, "date": date, "is_member": member})
}

// GetChanges 日期区间内的变更流水
func (h *IndexDataHandler) GetChanges(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "start and end are required", "")
		return
	}

	changes, err := h.query.ChangesInRange(c.Request.Context(), c.Param("code"), start, end)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	response.Success(c, changes)
}

// GetDelta 两个时点之间的成分净差
func (h *IndexDataHandler) GetDelta(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "from and to are required", "")
		return
	}

	delta, err := h.query.Delta(c.Request.Context(), c.Param("code"), from, to)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	response.Success(c, delta)
}

// SaveBars 批量写入行情
func (h *IndexDataHandler) SaveBars(c *gin.Context) {
	var cmds []application.SavePriceBarCommand
	if err := c.ShouldBindJSON(&cmds); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	saved, err := h.marketData.SaveBars(c.Request.Context(), c.Param("symbol"), cmds)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	response.Success(c, gin.H{"symbol": c.Param("symbol"), "saved": saved})
}

// GetBars 查询日期区间内的行情
func (h *IndexDataHandler) GetBars(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "start and end are required", "")
		return
	}

	bars, err := h.marketData.GetBars(c.Request.Context(), c.Param("symbol"), start, end)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}
	response.Success(c, bars)
}

// writeDomainError 领域错误到 HTTP 状态码的统一映射
func (h *IndexDataHandler) writeDomainError(c *gin.Context, err error) {
	var (
		conflictErr   *domain.ConflictError
		outOfOrderErr *domain.OutOfOrderSnapshotError
		dateErr       *domain.InvalidDateError
	)
	switch {
	case errors.As(err, &dateErr):
		response.ErrorWithStatus(c, http.StatusBadRequest, dateErr.Error(), "")
	case errors.As(err, &outOfOrderErr):
		response.ErrorWithStatus(c, http.StatusConflict, outOfOrderErr.Error(), "")
	case errors.As(err, &conflictErr):
		response.ErrorWithStatus(c, http.StatusConflict, conflictErr.Error(), "")
	case errors.Is(err, domain.ErrIndexNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}
