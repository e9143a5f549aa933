package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/campuscash/collections_backend/config"
	"github.com/campuscash/collections_backend/middlewares"
	"github.com/campuscash/collections_backend/models"
	"github.com/campuscash/collections_backend/models/reports"
	"github.com/campuscash/collections_backend/utils"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	router := gin.Default()
	router.Use(cors.New(corsConfig()))
	router.Use(middlewares.CorrelationMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/reports/collections", handleCollectionsReport)
	router.POST("/reports/collections/export", handleCollectionsExport)
	router.POST("/reports/receivables", handleReceivablesReport)
	router.POST("/reports/cash-progress", handleCashProgressReport)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Connect shared infrastructure AFTER the listener is up; the container
	// must bind $PORT quickly. Tenant connections are always per-request and
	// never touched here.
	config.ConnectRegistryWithRetry()
	config.ConnectRedisWithRetry()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Printf("server stopped")
}

func corsConfig() cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Correlation-Id")
	return corsCfg
}

func handleCollectionsReport(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": "validation", "message": err.Error()})
		return
	}
	ctx := utils.SetTenantDbInContext(c.Request.Context(), req.Tenant.DbName)

	resp, err := reports.GetCollectionsReport(ctx, &req)
	if err != nil {
		renderReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": resp})
}

func handleCollectionsExport(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": "validation", "message": err.Error()})
		return
	}
	ctx := utils.SetTenantDbInContext(c.Request.Context(), req.Tenant.DbName)

	resp, err := reports.GetCollectionsReport(ctx, &req)
	if err != nil {
		renderReportError(c, err)
		return
	}
	workbook, err := reports.BuildCollectionsWorkbook(resp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": "export_failed", "message": err.Error()})
		return
	}

	filename := fmt.Sprintf("collections_%s_%s.xlsx", req.Filters.DateFrom, req.Filters.DateTo)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		config.LogError(config.GetLogger(), "main", "handleCollectionsExport", "write", filename, err)
	}
}

func handleReceivablesReport(c *gin.Context) {
	var req models.TenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": "validation", "message": err.Error()})
		return
	}
	ctx := utils.SetTenantDbInContext(c.Request.Context(), req.Tenant.DbName)

	resp, err := reports.GetReceivablesReport(ctx, &req)
	if err != nil {
		renderReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": resp})
}

func handleCashProgressReport(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": "validation", "message": err.Error()})
		return
	}
	ctx := utils.SetTenantDbInContext(c.Request.Context(), req.Tenant.DbName)

	resp, err := reports.GetCashProgressReport(ctx, &req)
	if err != nil {
		renderReportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "data": resp})
}

// renderReportError maps the error taxonomy onto specific user-facing
// responses. Partial results are never passed off as complete: a failed
// required read fails the whole report.
func renderReportError(c *gin.Context, err error) {
	var vErr *utils.ValidationError
	var connErr *utils.ConnectionError
	var queryErr *utils.QueryError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": "validation", "message": vErr.Error()})
	case errors.As(err, &connErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"status":  "error",
			"code":    "connection_" + connErr.Cause,
			"message": connectionMessage(connErr),
		})
	case errors.As(err, &queryErr):
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": "query_failed", "message": queryErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "code": "internal", "message": err.Error()})
	}
}

func connectionMessage(err *utils.ConnectionError) string {
	switch err.Cause {
	case utils.ConnCauseAccessDenied:
		return "access denied for the supplied tenant credentials"
	case utils.ConnCauseUnknownDatabase:
		return fmt.Sprintf("database %q does not exist", err.Db)
	case utils.ConnCauseTimeout:
		return "connection to the tenant database timed out"
	default:
		return "tenant database is unreachable"
	}
}
