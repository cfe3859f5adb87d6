package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/reachpay/ledger/pkg/ledger"
	"go.uber.org/zap"
)

const (
	adminContextKey     = "admin_id"
	adminRole           = "admin"
	defaultListLimit    = 100
	shutdownTimeout     = 5 * time.Second
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// Config carries the HTTP façade settings.
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
	JWTSecret      string
}

// Run serves the admin API until ctx is cancelled.
func Run(ctx context.Context, cfg Config, service *ledger.Service, logger *zap.Logger, metricsHandler http.Handler) error {
	router := NewRouter(cfg, service, logger, metricsHandler)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ledger api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter builds the gin engine with routes, CORS, and admin auth.
func NewRouter(cfg Config, service *ledger.Service, logger *zap.Logger, metricsHandler http.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	handler := &httpHandler{logger: logger, service: service}

	api := router.Group("/api/v1")
	api.Use(adminAuthMiddleware([]byte(cfg.JWTSecret)))

	api.POST("/submissions", handler.handleCreateSubmission)
	api.GET("/submissions", handler.handleListSubmissions)
	api.GET("/submissions/:id", handler.handleGetSubmission)
	api.POST("/submissions/:id/approve", handler.handleResolveSubmission(ledger.DecisionApprove))
	api.POST("/submissions/:id/reject", handler.handleResolveSubmission(ledger.DecisionReject))

	api.POST("/payouts", handler.handleCreatePayout)
	api.GET("/payouts", handler.handleListPayouts)
	api.GET("/payouts/:id", handler.handleGetPayout)
	api.POST("/payouts/:id/approve", handler.handleResolvePayout(ledger.DecisionApprove))
	api.POST("/payouts/:id/reject", handler.handleResolvePayout(ledger.DecisionReject))
	api.POST("/payouts/:id/hold", handler.handleHoldPayout)
	api.POST("/payouts/:id/release", handler.handleReleasePayout)

	api.GET("/accounts/:userID", handler.handleGetAccount)

	api.GET("/cashflow", handler.handleCashflow)
	api.PUT("/cashflow/limit", handler.handleSetDailyLimit)
	api.POST("/cashflow/reset", handler.handleResetDailySpend)

	return router
}

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func adminAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader(authorizationHeader)
		if !strings.HasPrefix(header, bearerPrefix) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing bearer token"))
			return
		}
		tokenString := strings.TrimPrefix(header, bearerPrefix)

		claims := &adminClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid token"))
			return
		}
		if claims.Role != adminRole || claims.Subject == "" {
			ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse("forbidden", "admin role required"))
			return
		}
		ctx.Set(adminContextKey, claims.Subject)
		ctx.Next()
	}
}

type httpHandler struct {
	logger  *zap.Logger
	service *ledger.Service
}

type createSubmissionRequest struct {
	UserID      string `json:"user_id"`
	CampaignID  string `json:"campaign_id"`
	RewardCents int64  `json:"reward_cents"`
	ViralClaim  bool   `json:"viral_claim"`
}

type createPayoutRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	Details     string `json:"details"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type setLimitRequest struct {
	DailyLimitCents int64 `json:"daily_limit_cents"`
}

func (handler *httpHandler) handleCreateSubmission(ctx *gin.Context) {
	var request createSubmissionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	userID, err := ledger.NewUserID(request.UserID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_user_id", err.Error()))
		return
	}
	campaignID, err := ledger.NewCampaignID(request.CampaignID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_campaign_id", err.Error()))
		return
	}
	reward, err := ledger.NewPositiveAmountCents(request.RewardCents)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_reward_cents", err.Error()))
		return
	}

	submissionID, err := handler.service.CreateSubmission(ctx.Request.Context(), userID, campaignID, reward, request.ViralClaim)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"submission_id": submissionID.String()})
}

func (handler *httpHandler) handleResolveSubmission(decision ledger.Decision) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		submissionID, err := ledger.NewSubmissionID(ctx.Param("id"))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_submission_id", err.Error()))
			return
		}
		adminID, ok := handler.adminID(ctx)
		if !ok {
			return
		}
		if err := handler.service.ResolveSubmission(ctx.Request.Context(), submissionID, decision, adminID); err != nil {
			handler.respondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "resolved", "decision": decision.String()})
	}
}

func (handler *httpHandler) handleGetSubmission(ctx *gin.Context) {
	submissionID, err := ledger.NewSubmissionID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_submission_id", err.Error()))
		return
	}
	submission, err := handler.service.GetSubmission(ctx.Request.Context(), submissionID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, submissionPayloadFrom(submission))
}

func (handler *httpHandler) handleListSubmissions(ctx *gin.Context) {
	status, err := ledger.ParseSubmissionStatus(ctx.DefaultQuery("status", ledger.SubmissionStatusPending.String()))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_status", err.Error()))
		return
	}
	limit := parseLimit(ctx)
	submissions, err := handler.service.ListSubmissions(ctx.Request.Context(), status, limit)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]gin.H, 0, len(submissions))
	for _, submission := range submissions {
		payloads = append(payloads, submissionPayloadFrom(submission))
	}
	ctx.JSON(http.StatusOK, gin.H{"submissions": payloads})
}

func (handler *httpHandler) handleCreatePayout(ctx *gin.Context) {
	var request createPayoutRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	userID, err := ledger.NewUserID(request.UserID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_user_id", err.Error()))
		return
	}
	amount, err := ledger.NewPositiveAmountCents(request.AmountCents)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_amount_cents", err.Error()))
		return
	}
	method, err := ledger.NewPayoutMethod(request.Method)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_method", err.Error()))
		return
	}
	details, err := ledger.NewDetailsJSON(request.Details)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_details", err.Error()))
		return
	}

	payoutID, err := handler.service.CreatePayout(ctx.Request.Context(), userID, amount, method, details)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"payout_id": payoutID.String()})
}

func (handler *httpHandler) handleResolvePayout(decision ledger.Decision) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		payoutID, err := ledger.NewPayoutID(ctx.Param("id"))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payout_id", err.Error()))
			return
		}
		adminID, ok := handler.adminID(ctx)
		if !ok {
			return
		}
		var request reasonRequest
		_ = ctx.ShouldBindJSON(&request)
		if err := handler.service.ResolvePayout(ctx.Request.Context(), payoutID, decision, adminID, request.Reason); err != nil {
			handler.respondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "resolved", "decision": decision.String()})
	}
}

func (handler *httpHandler) handleHoldPayout(ctx *gin.Context) {
	payoutID, err := ledger.NewPayoutID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payout_id", err.Error()))
		return
	}
	var request reasonRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	if err := handler.service.HoldPayout(ctx.Request.Context(), payoutID, request.Reason); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "held"})
}

func (handler *httpHandler) handleReleasePayout(ctx *gin.Context) {
	payoutID, err := ledger.NewPayoutID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payout_id", err.Error()))
		return
	}
	if err := handler.service.ReleasePayout(ctx.Request.Context(), payoutID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "released"})
}

func (handler *httpHandler) handleGetPayout(ctx *gin.Context) {
	payoutID, err := ledger.NewPayoutID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payout_id", err.Error()))
		return
	}
	payout, err := handler.service.GetPayout(ctx.Request.Context(), payoutID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, payoutPayloadFrom(payout))
}

func (handler *httpHandler) handleListPayouts(ctx *gin.Context) {
	status, err := ledger.ParsePayoutStatus(ctx.DefaultQuery("status", ledger.PayoutStatusPending.String()))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_status", err.Error()))
		return
	}
	limit := parseLimit(ctx)
	payouts, err := handler.service.ListPayouts(ctx.Request.Context(), status, limit)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]gin.H, 0, len(payouts))
	for _, payout := range payouts {
		payloads = append(payloads, payoutPayloadFrom(payout))
	}
	ctx.JSON(http.StatusOK, gin.H{"payouts": payloads})
}

func (handler *httpHandler) handleGetAccount(ctx *gin.Context) {
	userID, err := ledger.NewUserID(ctx.Param("userID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_user_id", err.Error()))
		return
	}
	account, err := handler.service.GetAccount(ctx.Request.Context(), userID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"user_id":            account.UserID().String(),
		"wallet_cents":       account.WalletCents().Int64(),
		"pending_cents":      account.PendingCents().Int64(),
		"total_earned_cents": account.TotalEarnedCents().Int64(),
	})
}

func (handler *httpHandler) handleCashflow(ctx *gin.Context) {
	status, err := handler.service.Cashflow(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"daily_limit_cents": status.LimitCents.Int64(),
		"spent_cents":       status.SpentCents.Int64(),
		"remaining_cents":   status.RemainingCents.Int64(),
		"window_start":      status.WindowStart,
		"window_end":        status.WindowEnd,
	})
}

func (handler *httpHandler) handleSetDailyLimit(ctx *gin.Context) {
	var request setLimitRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	limit, err := ledger.NewAmountCents(request.DailyLimitCents)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_daily_limit_cents", err.Error()))
		return
	}
	adminID, ok := handler.adminID(ctx)
	if !ok {
		return
	}
	swept, err := handler.service.SetDailyLimit(ctx.Request.Context(), limit, adminID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	sweptIDs := make([]string, 0, len(swept))
	for _, payoutID := range swept {
		sweptIDs = append(sweptIDs, payoutID.String())
	}
	ctx.JSON(http.StatusOK, gin.H{
		"daily_limit_cents": limit.Int64(),
		"swept_to_hold":     sweptIDs,
	})
}

func (handler *httpHandler) handleResetDailySpend(ctx *gin.Context) {
	adminID, ok := handler.adminID(ctx)
	if !ok {
		return
	}
	if err := handler.service.ResetDailySpend(ctx.Request.Context(), adminID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (handler *httpHandler) adminID(ctx *gin.Context) (ledger.AdminID, bool) {
	rawValue, exists := ctx.Get(adminContextKey)
	if !exists {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing admin identity"))
		return ledger.AdminID{}, false
	}
	raw, _ := rawValue.(string)
	adminID, err := ledger.NewAdminID(raw)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid admin identity"))
		return ledger.AdminID{}, false
	}
	return adminID, true
}

// respondError maps domain errors onto HTTP statuses. A lost double-resolve race
// is reported as success so admin retries stay idempotent.
func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	var limitErr ledger.DailyLimitError
	switch {
	case errors.Is(err, ledger.ErrAlreadyResolved):
		ctx.JSON(http.StatusOK, gin.H{"status": "already_resolved"})
	case errors.As(err, &limitErr):
		ctx.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":    "daily_limit_exceeded",
				"message": "daily payout limit exceeded",
			},
			"remaining_cents": limitErr.RemainingCents.Int64(),
		})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		ctx.JSON(http.StatusUnprocessableEntity, errorResponse("insufficient_funds", "wallet balance too low"))
	case errors.Is(err, ledger.ErrPayoutHeld):
		ctx.JSON(http.StatusConflict, errorResponse("payout_held", "payout is on hold"))
	case errors.Is(err, ledger.ErrPayoutNotHeld):
		ctx.JSON(http.StatusConflict, errorResponse("payout_not_held", "payout is not on hold"))
	case errors.Is(err, ledger.ErrInvalidHoldReason):
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_reason", "hold reason required"))
	case errors.Is(err, ledger.ErrUnknownSubmission):
		ctx.JSON(http.StatusNotFound, errorResponse("unknown_submission", "submission not found"))
	case errors.Is(err, ledger.ErrUnknownPayout):
		ctx.JSON(http.StatusNotFound, errorResponse("unknown_payout", "payout not found"))
	case errors.Is(err, ledger.ErrUnknownAccount):
		ctx.JSON(http.StatusNotFound, errorResponse("unknown_account", "account not found"))
	default:
		handler.logger.Error("ledger operation failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal", "operation failed"))
	}
}

func submissionPayloadFrom(submission ledger.Submission) gin.H {
	return gin.H{
		"submission_id": submission.ID().String(),
		"user_id":       submission.UserID().String(),
		"campaign_id":   submission.CampaignID().String(),
		"reward_cents":  submission.RewardCents().Int64(),
		"status":        submission.Status().String(),
		"resolved_by":   submission.ResolvedBy().String(),
	}
}

func payoutPayloadFrom(payout ledger.Payout) gin.H {
	return gin.H{
		"payout_id":         payout.ID().String(),
		"user_id":           payout.UserID().String(),
		"amount_cents":      payout.AmountCents().Int64(),
		"method":            payout.Method().String(),
		"details":           payout.Details().String(),
		"status":            payout.Status().String(),
		"hold_reason":       payout.HoldReason(),
		"resolved_by":       payout.ResolvedBy().String(),
		"resolution_reason": payout.ResolutionReason(),
	}
}

func parseLimit(ctx *gin.Context) int {
	raw := ctx.Query("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
