package router

import (
	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/interfaces/http/handler"
	"github.com/procurement/backend/internal/interfaces/http/middleware"
)

// Handlers groups the HTTP handlers of the procurement API
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Supplier     *handler.SupplierHandler
	Onboarding   *handler.OnboardingHandler
	Portal       *handler.PortalHandler
	Approval     *handler.ApprovalHandler
	Requisition  *handler.RequisitionHandler
	Contract     *handler.ContractHandler
	Spend        *handler.SpendHandler
	Evaluation   *handler.EvaluationHandler
	Dashboard    *handler.DashboardHandler
	Notification *handler.NotificationHandler
	Cron         *handler.CronHandler
}

// Guards holds the middleware protecting the different route classes
type Guards struct {
	// Authenticate runs before every route that needs a signed-in user
	Authenticate gin.HandlerFunc
	// CronSecret protects the cron endpoints
	CronSecret string
	// PublicLimiter throttles login, refresh and the supplier portal per client IP
	PublicLimiter *middleware.RateLimiter
}

// Mount declares the procurement API on the engine
func Mount(engine *gin.Engine, h Handlers, guards Guards) *Router {
	r := NewRouter(engine, WithAPIVersion("v1"))
	for _, g := range publicGroups(h, guards) {
		r.Public(g)
	}
	if guards.Authenticate != nil {
		r.Use(guards.Authenticate)
	}
	for _, g := range protectedGroups(h) {
		r.Register(g)
	}
	r.Setup()
	return r
}

func publicGroups(h Handlers, guards Guards) []*DomainGroup {
	var throttle []gin.HandlerFunc
	if guards.PublicLimiter != nil {
		throttle = append(throttle, middleware.RateLimit(guards.PublicLimiter))
	}

	authGroup := NewDomainGroup("auth", "/auth").Use(throttle...)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)

	portal := NewDomainGroup("portal", "/portal/onboarding").Use(throttle...)
	portal.GET("/:token", h.Portal.View)
	portal.POST("/:token/upload-url", h.Portal.UploadURL)
	portal.POST("/:token/submit", h.Portal.Submit)

	approvals := NewDomainGroup("approvals", "/approvals")
	approvals.GET("/:token", h.Approval.Describe)
	approvals.POST("/:token", h.Approval.Apply)

	cron := NewDomainGroup("cron", "/cron").Use(middleware.CronSecret(guards.CronSecret))
	cron.POST("/reminders", h.Cron.Reminders)
	cron.POST("/contracts", h.Cron.Contracts)

	return []*DomainGroup{authGroup, portal, approvals, cron}
}

func protectedGroups(h Handlers) []*DomainGroup {
	manage := middleware.RequirePermission(identity.PermProcurementManage)
	spendWrite := middleware.RequireAnyPermission(identity.PermProcurementManage, identity.PermFinanceApprove)

	session := NewDomainGroup("session", "/auth")
	session.GET("/me", h.Auth.Me)

	users := NewDomainGroup("users", "/users").Use(middleware.RequirePermission(identity.PermUsersManage))
	users.POST("", h.User.Create)
	users.GET("", h.User.List)
	users.GET("/:id", h.User.Get)
	users.PUT("/:id", h.User.Update)

	suppliers := NewDomainGroup("suppliers", "/suppliers")
	suppliers.GET("", h.Supplier.List)
	suppliers.GET("/:id", h.Supplier.Get)
	suppliers.PUT("/:id", manage, h.Supplier.Update)
	suppliers.POST("/:id/suspend", manage, h.Supplier.Suspend)
	suppliers.POST("/:id/reactivate", manage, h.Supplier.Reactivate)
	suppliers.GET("/:id/scorecard", h.Supplier.Scorecard)
	suppliers.GET("/:id/documents/:doc_id/download-url", h.Supplier.DocumentDownloadURL)

	onboarding := NewDomainGroup("onboarding", "/onboarding")
	onboarding.POST("", h.Onboarding.Initiate)
	onboarding.GET("", h.Onboarding.List)
	onboarding.GET("/:id", h.Onboarding.Get)
	onboarding.GET("/:id/history", h.Onboarding.History)
	onboarding.POST("/:id/manager-decision", h.Onboarding.ManagerDecision)
	onboarding.POST("/:id/procurement-decision", h.Onboarding.ProcurementDecision)
	onboarding.POST("/:id/resend-invitation", h.Onboarding.ResendInvitation)
	onboarding.POST("/:id/start-review", h.Onboarding.StartReview)
	onboarding.POST("/:id/request-revision", h.Onboarding.RequestRevision)
	onboarding.POST("/:id/approve", h.Onboarding.Approve)
	onboarding.POST("/:id/reject", h.Onboarding.Reject)
	onboarding.POST("/:id/cancel", h.Onboarding.Cancel)

	requisitions := NewDomainGroup("requisitions", "/requisitions")
	requisitions.POST("", h.Requisition.Create)
	requisitions.GET("", h.Requisition.List)
	requisitions.GET("/pending-approvals", h.Requisition.PendingApprovals)
	requisitions.GET("/:id", h.Requisition.Get)
	requisitions.PUT("/:id", h.Requisition.Update)
	requisitions.POST("/:id/submit", h.Requisition.Submit)
	requisitions.POST("/:id/approve", h.Requisition.Approve)
	requisitions.POST("/:id/reject", h.Requisition.Reject)
	requisitions.POST("/:id/cancel", h.Requisition.Cancel)
	requisitions.POST("/:id/order", h.Requisition.Order)

	contracts := NewDomainGroup("contracts", "/contracts")
	contracts.POST("", h.Contract.Create)
	contracts.GET("", h.Contract.List)
	contracts.GET("/:id", h.Contract.Get)
	contracts.PUT("/:id", h.Contract.Update)
	contracts.POST("/:id/activate", h.Contract.Activate)
	contracts.POST("/:id/terminate", h.Contract.Terminate)
	contracts.POST("/:id/renew", h.Contract.Renew)
	contracts.POST("/:id/document-upload-url", h.Contract.DocumentUploadURL)
	contracts.POST("/:id/document", h.Contract.AttachDocument)
	contracts.GET("/:id/document/download-url", h.Contract.DocumentDownloadURL)

	spendGroup := NewDomainGroup("spend", "/spend")
	spendGroup.POST("", spendWrite, h.Spend.Record)
	spendGroup.GET("", h.Spend.List)
	spendGroup.POST("/import", spendWrite, h.Spend.Import)
	spendGroup.DELETE("/:id", spendWrite, h.Spend.Delete)

	evaluations := NewDomainGroup("evaluations", "/evaluations")
	evaluations.POST("", h.Evaluation.Create)
	evaluations.GET("", h.Evaluation.List)
	evaluations.GET("/:id", h.Evaluation.Get)
	evaluations.PUT("/:id", h.Evaluation.Update)

	dashboard := NewDomainGroup("dashboard", "/dashboard").Use(middleware.RequirePermission(identity.PermDashboardView))
	dashboard.GET("/summary", h.Dashboard.Summary)
	dashboard.GET("/contracts", h.Dashboard.Contracts)
	dashboard.GET("/spend", h.Dashboard.Spend)
	dashboard.GET("/evaluations", h.Dashboard.Evaluations)
	dashboard.GET("/onboarding", h.Dashboard.Onboarding)
	dashboard.GET("/requisitions", h.Dashboard.Requisitions)

	notifications := NewDomainGroup("notifications", "/notifications")
	notifications.GET("", h.Notification.List)

	return []*DomainGroup{
		session, users, suppliers, onboarding, requisitions, contracts,
		spendGroup, evaluations, dashboard, notifications,
	}
}
