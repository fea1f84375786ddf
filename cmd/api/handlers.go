package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/application"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/middleware"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

const serviceName = "scheduling-service"

func respondServiceError(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}

func actorID(c *gin.Context) string {
	return tenant.GetUserID(c.Request.Context())
}

// Shift handlers

func createShiftHandler(service *application.ShiftService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.CreateShiftCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		shift, err := service.CreateShift(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, shift)
	}
}

func getShiftHandler(service *application.ShiftService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		shift, err := service.GetShift(c.Request.Context(), c.Param("shiftId"))
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, shift)
	}
}

func listShiftsHandler(service *application.ShiftService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.ListShiftsQuery{Status: c.Query("status")}
		if v := c.Query("from"); v != "" {
			from, err := time.Parse(time.RFC3339, v)
			if err != nil {
				responder.RespondBadRequest("invalid from timestamp, expected RFC3339")
				return
			}
			query.From = from
		}
		if v := c.Query("to"); v != "" {
			to, err := time.Parse(time.RFC3339, v)
			if err != nil {
				responder.RespondBadRequest("invalid to timestamp, expected RFC3339")
				return
			}
			query.To = to
		}

		shifts, err := service.ListShifts(c.Request.Context(), query)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, shifts)
	}
}

func openShiftsHandler(service *application.ShiftService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			responder.RespondBadRequest("lat is required and must be a number")
			return
		}
		lng, err := strconv.ParseFloat(c.Query("lng"), 64)
		if err != nil {
			responder.RespondBadRequest("lng is required and must be a number")
			return
		}
		radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "25"), 64)
		if err != nil || radius <= 0 {
			responder.RespondBadRequest("radius must be a positive number of miles")
			return
		}

		query := application.OpenShiftsQuery{
			Center:      geo.Point{Latitude: lat, Longitude: lng},
			RadiusMiles: radius,
		}
		if v := c.Query("from"); v != "" {
			if query.From, err = time.Parse(time.RFC3339, v); err != nil {
				responder.RespondBadRequest("invalid from timestamp, expected RFC3339")
				return
			}
		}
		if v := c.Query("to"); v != "" {
			if query.To, err = time.Parse(time.RFC3339, v); err != nil {
				responder.RespondBadRequest("invalid to timestamp, expected RFC3339")
				return
			}
		}

		shifts, err := service.FindOpenShifts(c.Request.Context(), query)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, shifts)
	}
}

func publishShiftHandler(service *application.ShiftService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		cmd := application.PublishShiftCommand{
			ShiftID: c.Param("shiftId"),
			ActorID: actorID(c),
		}

		shift, err := service.PublishShift(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, shift)
	}
}

func offerShiftHandler(service *application.ShiftService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.OfferShiftCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ShiftID = c.Param("shiftId")
		cmd.ActorID = actorID(c)

		shift, err := service.OfferShift(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, shift)
	}
}

func cancelShiftHandler(service *application.ShiftService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.CancelShiftCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ShiftID = c.Param("shiftId")
		cmd.ActorID = actorID(c)

		shift, err := service.CancelShift(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, shift)
	}
}

func transitionShiftHandler(service *application.ShiftService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.TransitionShiftCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ShiftID = c.Param("shiftId")
		cmd.ActorID = actorID(c)

		shift, err := service.TransitionShift(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, shift)
	}
}

// Claim handlers

func submitClaimHandler(service *application.ClaimService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.SubmitClaimCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ShiftID = c.Param("shiftId")

		claim, err := service.SubmitClaim(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, claim)
	}
}

func rankedClaimsHandler(service *application.ClaimService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		claims, err := service.RankedClaims(c.Request.Context(), c.Param("shiftId"))
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, claims)
	}
}

func resolveClaimHandler(service *application.ClaimService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.ResolveClaimCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.ClaimID = c.Param("claimId")
		cmd.ResolverID = actorID(c)

		resolution, err := service.ResolveClaim(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, resolution)
	}
}

func workerClaimsHandler(service *application.ClaimService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		claims, err := service.WorkerClaims(c.Request.Context(), c.Param("workerId"))
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, claims)
	}
}

// Swap handlers

func requestSwapHandler(service *application.SwapService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.RequestSwapCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		swap, err := service.RequestSwap(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusCreated, swap)
	}
}

func decideSwapHandler(service *application.SwapService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.DecideSwapCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.SwapID = c.Param("swapId")
		cmd.ApproverID = actorID(c)

		swap, err := service.DecideSwap(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, swap)
	}
}

func acceptSwapHandler(service *application.SwapService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.AcceptSwapCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.SwapID = c.Param("swapId")
		if cmd.TargetWorkerID == "" {
			cmd.TargetWorkerID = actorID(c)
		}

		swap, err := service.AcceptSwap(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, swap)
	}
}

func rejectSwapHandler(service *application.SwapService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.RejectSwapCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.SwapID = c.Param("swapId")
		cmd.ActorID = actorID(c)

		swap, err := service.RejectSwap(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, swap)
	}
}

func cancelSwapHandler(service *application.SwapService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		swap, err := service.CancelSwap(c.Request.Context(), c.Param("swapId"), actorID(c))
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, swap)
	}
}

func workerSwapsHandler(service *application.SwapService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		swaps, err := service.WorkerSwaps(c.Request.Context(), c.Param("workerId"))
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, swaps)
	}
}

// Notification handlers

func inboxHandler(service *application.NotificationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		userID := actorID(c)
		if userID == "" {
			responder.RespondBadRequest("acting user is required")
			return
		}

		limit := 0
		if v := c.Query("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 0 {
				responder.RespondBadRequest("limit must be a non-negative integer")
				return
			}
			limit = parsed
		}

		records, err := service.Inbox(c.Request.Context(), userID, limit)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, records)
	}
}

func unreadCountHandler(service *application.NotificationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		userID := actorID(c)
		if userID == "" {
			responder.RespondBadRequest("acting user is required")
			return
		}

		count, err := service.UnreadCount(c.Request.Context(), userID)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"unread": count})
	}
}

func markReadHandler(service *application.NotificationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		record, err := service.MarkRead(c.Request.Context(), c.Param("recordId"), actorID(c))
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func getPreferencesHandler(service *application.NotificationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		userID := actorID(c)
		if userID == "" {
			responder.RespondBadRequest("acting user is required")
			return
		}

		prefs, err := service.GetPreferences(c.Request.Context(), userID)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, prefs)
	}
}

func updatePreferencesHandler(service *application.NotificationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var cmd application.UpdatePreferencesCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.UserID = actorID(c)
		if cmd.UserID == "" {
			responder.RespondBadRequest("acting user is required")
			return
		}

		prefs, err := service.UpdatePreferences(c.Request.Context(), cmd)
		if err != nil {
			respondServiceError(responder, err)
			return
		}

		c.JSON(http.StatusOK, prefs)
	}
}

// Sweeper handlers

func sweeperStatusHandler(sweeper *application.ExpirySweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"running": sweeper.IsRunning(),
		})
	}
}

func sweeperStartHandler(sweeper *application.ExpirySweeper, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sweeper.IsRunning() {
			c.JSON(http.StatusOK, gin.H{"message": "Sweeper already running"})
			return
		}
		if err := sweeper.Start(c.Request.Context()); err != nil {
			logger.WithError(err).Error("Failed to start sweeper")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		logger.Info("Sweeper started via API")
		c.JSON(http.StatusOK, gin.H{"message": "Sweeper started"})
	}
}

func sweeperStopHandler(sweeper *application.ExpirySweeper, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sweeper.IsRunning() {
			c.JSON(http.StatusOK, gin.H{"message": "Sweeper already stopped"})
			return
		}
		sweeper.Stop()
		logger.Info("Sweeper stopped via API")
		c.JSON(http.StatusOK, gin.H{"message": "Sweeper stopped"})
	}
}

func sweeperRunHandler(sweeper *application.ExpirySweeper, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sweeper.Sweep(c.Request.Context())
		logger.Info("Sweep triggered via API")
		c.JSON(http.StatusOK, gin.H{"message": "Sweep completed"})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
