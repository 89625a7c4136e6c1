package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garment-platform/production-service/pkg/errors"
	"github.com/garment-platform/production-service/pkg/kafka"
	"github.com/garment-platform/production-service/pkg/logging"
	"github.com/garment-platform/production-service/pkg/middleware"
	"github.com/garment-platform/production-service/pkg/mongodb"

	"github.com/garment-platform/production-service/internal/application"
	"github.com/garment-platform/production-service/internal/domain"
)

const serviceName = "production-service"

// Config holds application configuration
type Config struct {
	ServerAddr         string
	EscalationInterval time.Duration
	MaxDamagedPieces   int
	MongoDB            *mongodb.Config
	Kafka              *kafka.Config
}

func loadConfig() *Config {
	escalationInterval := time.Minute
	if v := os.Getenv("ESCALATION_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			escalationInterval = d
		}
	}

	maxDamagedPieces := application.DefaultMaxDamagedPieces
	if v := os.Getenv("MAX_DAMAGED_PIECES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxDamagedPieces = n
		}
	}

	return &Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8010"),
		EscalationInterval: escalationInterval,
		MaxDamagedPieces:   maxDamagedPieces,
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "production_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: "production-service",
			ClientID:      "production-service",
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func respondError(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}

// Work unit handlers

func createWorkUnitHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			WorkID       string  `json:"workId"`
			BundleNumber string  `json:"bundleNumber" binding:"required,bundle_number"`
			Article      string  `json:"article" binding:"required"`
			ArticleName  string  `json:"articleName"`
			Operation    string  `json:"operation" binding:"required"`
			Color        string  `json:"color"`
			Size         string  `json:"size"`
			Pieces       int     `json:"pieces" binding:"required,gte=1"`
			RatePerPiece float64 `json:"ratePerPiece" binding:"required,gt=0"`
			MachineType  string  `json:"machineType"`
			Priority     int     `json:"priority"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"bundle.number": req.BundleNumber,
		})

		cmd := application.CreateWorkUnitCommand{
			WorkID:       req.WorkID,
			BundleNumber: req.BundleNumber,
			Article:      req.Article,
			ArticleName:  req.ArticleName,
			Operation:    req.Operation,
			Color:        req.Color,
			Size:         req.Size,
			Pieces:       req.Pieces,
			RatePerPiece: req.RatePerPiece,
			MachineType:  req.MachineType,
			Priority:     req.Priority,
		}

		unit, err := service.CreateWorkUnit(c.Request.Context(), cmd)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, unit)
	}
}

func getWorkUnitHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workID := c.Param("workId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"work.id": workID,
		})

		unit, err := service.GetWorkUnit(c.Request.Context(), application.GetWorkUnitQuery{WorkID: workID})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, unit)
	}
}

func listAvailableWorkHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		query := application.ListAvailableWorkQuery{
			MachineType: c.Query("machineType"),
			Limit:       limit,
		}

		units, err := service.ListAvailableWork(c.Request.Context(), query)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, units)
	}
}

func listWorkUnitsHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		query := application.ListWorkUnitsQuery{
			Status: domain.WorkUnitStatus(c.Query("status")),
			Limit:  limit,
			Offset: offset,
		}

		units, err := service.ListWorkUnits(c.Request.Context(), query)
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, units)
	}
}

func listOperatorWorkHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		operatorID := c.Param("operatorId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"operator.id": operatorID,
		})

		units, err := service.ListOperatorWork(c.Request.Context(), application.ListOperatorWorkQuery{OperatorID: operatorID})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, units)
	}
}

type claimRequest struct {
	OperatorID      string `json:"operatorId" binding:"required"`
	OperatorName    string `json:"operatorName"`
	OperatorMachine string `json:"operatorMachine"`
	SelfAssigned    bool   `json:"selfAssigned"`
	Priority        int    `json:"priority" binding:"omitempty,gte=1"`
}

func claimWorkHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workID := c.Param("workId")
		var req claimRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"work.id":     workID,
			"operator.id": req.OperatorID,
		})

		unit, err := service.ClaimWork(c.Request.Context(), application.ClaimWorkCommand{
			WorkID:          workID,
			OperatorID:      req.OperatorID,
			OperatorName:    req.OperatorName,
			OperatorMachine: req.OperatorMachine,
			SelfAssigned:    req.SelfAssigned,
			Priority:        req.Priority,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, unit)
	}
}

// queueClaimWorkHandler routes the claim through the contention queue, which
// settles near-simultaneous requests by priority and arrival order instead
// of raw request timing.
func queueClaimWorkHandler(queue *application.AssignmentQueue, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workID := c.Param("workId")
		var req claimRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"work.id":     workID,
			"operator.id": req.OperatorID,
		})

		unit, err := queue.Claim(c.Request.Context(), application.ClaimWorkCommand{
			WorkID:          workID,
			OperatorID:      req.OperatorID,
			OperatorName:    req.OperatorName,
			OperatorMachine: req.OperatorMachine,
			SelfAssigned:    req.SelfAssigned,
			Priority:        req.Priority,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, unit)
	}
}

func releaseWorkHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workID := c.Param("workId")
		var req struct {
			OperatorID string `json:"operatorId" binding:"required"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"work.id":     workID,
			"operator.id": req.OperatorID,
		})

		unit, err := service.ReleaseWork(c.Request.Context(), application.ReleaseWorkCommand{
			WorkID:     workID,
			OperatorID: req.OperatorID,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, unit)
	}
}

func startWorkHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workID := c.Param("workId")
		var req struct {
			OperatorID string `json:"operatorId" binding:"required"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		unit, err := service.StartWork(c.Request.Context(), application.StartWorkCommand{
			WorkID:     workID,
			OperatorID: req.OperatorID,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, unit)
	}
}

func completeWorkHandler(service *application.AssignmentService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		workID := c.Param("workId")
		var req struct {
			OperatorID      string `json:"operatorId" binding:"required"`
			CompletedPieces int    `json:"completedPieces" binding:"required,gte=1"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"work.id":     workID,
			"operator.id": req.OperatorID,
		})

		unit, err := service.CompleteWork(c.Request.Context(), application.CompleteWorkCommand{
			WorkID:          workID,
			OperatorID:      req.OperatorID,
			CompletedPieces: req.CompletedPieces,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, unit)
	}
}

// Damage report handlers

func submitDamageReportHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			WorkID       string `json:"workId" binding:"required"`
			OperatorID   string `json:"operatorId" binding:"required"`
			SupervisorID string `json:"supervisorId" binding:"required"`
			DamageTypeID string `json:"damageTypeId" binding:"required"`
			PieceNumbers []int  `json:"pieceNumbers" binding:"required,min=1"`
			Urgency      string `json:"urgency" binding:"required,urgency"`
			Description  string `json:"description" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"work.id":     req.WorkID,
			"damage.type": req.DamageTypeID,
		})

		report, err := service.SubmitReport(c.Request.Context(), application.SubmitDamageReportCommand{
			WorkID:       req.WorkID,
			OperatorID:   req.OperatorID,
			SupervisorID: req.SupervisorID,
			DamageTypeID: req.DamageTypeID,
			PieceNumbers: req.PieceNumbers,
			Urgency:      domain.Urgency(req.Urgency),
			Description:  req.Description,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, report)
	}
}

func getDamageReportHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		reportID := c.Param("reportId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"report.id": reportID,
		})

		report, err := service.GetReport(c.Request.Context(), application.GetReportQuery{ReportID: reportID})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func listDamageReportsHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		var statuses []domain.ReportStatus
		for _, s := range c.QueryArray("status") {
			statuses = append(statuses, domain.ReportStatus(s))
		}

		reports, err := service.ListReports(c.Request.Context(), application.ListReportsQuery{
			SupervisorID: c.Query("supervisorId"),
			OperatorID:   c.Query("operatorId"),
			Statuses:     statuses,
			Limit:        limit,
			Offset:       offset,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, reports)
	}
}

func acknowledgeReportHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		reportID := c.Param("reportId")
		var req struct {
			SupervisorID string `json:"supervisorId" binding:"required"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		report, err := service.AcknowledgeReport(c.Request.Context(), application.AcknowledgeReportCommand{
			ReportID:     reportID,
			SupervisorID: req.SupervisorID,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func startReworkHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		reportID := c.Param("reportId")
		var req struct {
			SupervisorID string `json:"supervisorId" binding:"required"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		report, err := service.StartRework(c.Request.Context(), application.StartReworkCommand{
			ReportID:     reportID,
			SupervisorID: req.SupervisorID,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func completeReworkHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		reportID := c.Param("reportId")
		var req struct {
			SupervisorID     string   `json:"supervisorId" binding:"required"`
			PartsReplaced    []string `json:"partsReplaced"`
			TimeSpentMinutes int      `json:"timeSpentMinutes" binding:"omitempty,gte=0"`
			Quality          string   `json:"quality"`
			CostEstimate     float64  `json:"costEstimate" binding:"omitempty,gte=0"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		report, err := service.CompleteRework(c.Request.Context(), application.CompleteReworkCommand{
			ReportID:         reportID,
			SupervisorID:     req.SupervisorID,
			PartsReplaced:    req.PartsReplaced,
			TimeSpentMinutes: req.TimeSpentMinutes,
			Quality:          req.Quality,
			CostEstimate:     req.CostEstimate,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func returnToOperatorHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		reportID := c.Param("reportId")
		var req struct {
			SupervisorID string `json:"supervisorId" binding:"required"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		report, err := service.ReturnToOperator(c.Request.Context(), application.ReturnToOperatorCommand{
			ReportID:     reportID,
			SupervisorID: req.SupervisorID,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func finalizeReportHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		reportID := c.Param("reportId")
		var req struct {
			OperatorID     string `json:"operatorId" binding:"required"`
			ResolutionNote string `json:"resolutionNote" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"report.id":   reportID,
			"operator.id": req.OperatorID,
		})

		report, err := service.FinalizeReport(c.Request.Context(), application.FinalizeReportCommand{
			ReportID:       reportID,
			OperatorID:     req.OperatorID,
			ResolutionNote: req.ResolutionNote,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func cancelReportHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		reportID := c.Param("reportId")
		var req struct {
			CancelledBy string `json:"cancelledBy" binding:"required"`
			Reason      string `json:"reason" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		report, err := service.CancelReport(c.Request.Context(), application.CancelReportCommand{
			ReportID:    reportID,
			CancelledBy: req.CancelledBy,
			Reason:      req.Reason,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func rejectReportHandler(service *application.DamageService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		reportID := c.Param("reportId")
		var req struct {
			SupervisorID string `json:"supervisorId" binding:"required"`
			Reason       string `json:"reason" binding:"omitempty,safe_string"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		report, err := service.RejectReport(c.Request.Context(), application.RejectReportCommand{
			ReportID:     reportID,
			SupervisorID: req.SupervisorID,
			Reason:       req.Reason,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func listDamageTypesHandler(service *application.DamageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, service.ListDamageTypes())
	}
}

// Wallet handlers

func getWalletHandler(service *application.WalletService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		operatorID := c.Param("operatorId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"operator.id": operatorID,
		})

		wallet, err := service.GetBalance(c.Request.Context(), application.GetWalletQuery{OperatorID: operatorID})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, wallet)
	}
}

func getHeldBundlesHandler(service *application.WalletService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		operatorID := c.Param("operatorId")

		bundles, err := service.GetHeldBundles(c.Request.Context(), application.GetHeldBundlesQuery{OperatorID: operatorID})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, bundles)
	}
}

func getLedgerHandler(service *application.WalletService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		operatorID := c.Param("operatorId")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		entries, err := service.GetLedger(c.Request.Context(), application.GetLedgerQuery{
			OperatorID: operatorID,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			respondError(responder, err)
			return
		}

		c.JSON(http.StatusOK, entries)
	}
}
