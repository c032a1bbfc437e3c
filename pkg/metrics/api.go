package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitorAPI 监控API处理器
type MonitorAPI struct {
	monitor *Monitor
}

// NewMonitorAPI 创建监控API处理器
func NewMonitorAPI(monitor *Monitor) *MonitorAPI {
	return &MonitorAPI{
		monitor: monitor,
	}
}

// RegisterRoutes 注册监控API路由
func (api *MonitorAPI) RegisterRoutes(r *gin.RouterGroup) {
	// 系统概览
	r.GET("/overview", api.GetOverview)

	// 系统监控
	r.GET("/system", api.GetSystemStats)
	r.GET("/system/latest", api.GetLatestSystemStats)

	// SQL分析
	r.GET("/sql/slow", api.GetSlowQueries)
	r.GET("/sql/patterns", api.GetQueryPatterns)
	r.GET("/sql/stats", api.GetSQLStats)
	r.GET("/sql/table/:table", api.GetQueriesByTable)
	r.GET("/sql/operation/:operation", api.GetQueriesByOperation)

	// 链路追踪
	r.GET("/traces", api.GetTraces)
	r.GET("/traces/:traceID", api.GetTraceDetail)

	// 指标数据
	r.GET("/metrics", api.GetMetrics)
}

func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func queryLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// GetOverview 获取系统概览
func (api *MonitorAPI) GetOverview(c *gin.Context) {
	respondData(c, api.monitor.GetSystemSummary())
}

// GetSystemStats 获取系统统计
func (api *MonitorAPI) GetSystemStats(c *gin.Context) {
	respondData(c, api.monitor.GetSystemStats(queryLimit(c, 100)))
}

// GetLatestSystemStats 获取最新系统统计
func (api *MonitorAPI) GetLatestSystemStats(c *gin.Context) {
	respondData(c, api.monitor.GetLatestSystemStats())
}

// GetSlowQueries 获取慢查询列表
func (api *MonitorAPI) GetSlowQueries(c *gin.Context) {
	respondData(c, api.monitor.GetSlowQueries(queryLimit(c, 50)))
}

// GetQueryPatterns 获取查询模式
func (api *MonitorAPI) GetQueryPatterns(c *gin.Context) {
	respondData(c, api.monitor.GetQueryPatterns(queryLimit(c, 50)))
}

// GetSQLStats 获取SQL统计信息
func (api *MonitorAPI) GetSQLStats(c *gin.Context) {
	if api.monitor.GetSQLAnalyzer() == nil {
		respondData(c, nil)
		return
	}
	respondData(c, api.monitor.GetSQLAnalyzer().GetQueryStats())
}

// GetQueriesByTable 按表获取查询
func (api *MonitorAPI) GetQueriesByTable(c *gin.Context) {
	respondData(c, api.monitor.GetQueriesByTable(c.Param("table"), queryLimit(c, 50)))
}

// GetQueriesByOperation 按操作类型获取查询
func (api *MonitorAPI) GetQueriesByOperation(c *gin.Context) {
	respondData(c, api.monitor.GetQueriesByOperation(c.Param("operation"), queryLimit(c, 50)))
}

// GetTraces 获取追踪列表
func (api *MonitorAPI) GetTraces(c *gin.Context) {
	if api.monitor.GetTracer() == nil {
		respondData(c, []interface{}{})
		return
	}

	spans := api.monitor.GetTracer().GetSpans()
	if limit := queryLimit(c, len(spans)); limit < len(spans) {
		spans = spans[len(spans)-limit:]
	}
	respondData(c, spans)
}

// GetTraceDetail 获取追踪详情
func (api *MonitorAPI) GetTraceDetail(c *gin.Context) {
	if api.monitor.GetTracer() == nil {
		respondData(c, nil)
		return
	}
	respondData(c, api.monitor.GetTraceSpans(c.Param("traceID")))
}

// GetMetrics 获取指标采集状态, Prometheus 文本格式由根路径 /metrics 暴露
func (api *MonitorAPI) GetMetrics(c *gin.Context) {
	if api.monitor.GetMetrics() == nil {
		respondData(c, nil)
		return
	}

	respondData(c, map[string]interface{}{
		"timestamp": time.Now(),
		"enabled":   true,
	})
}
