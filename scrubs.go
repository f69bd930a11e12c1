package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/scrub_backend/config"
	"bitbucket.org/mmdatafocus/scrub_backend/imports"
	"bitbucket.org/mmdatafocus/scrub_backend/models"
	"bitbucket.org/mmdatafocus/scrub_backend/models/reports"
	"bitbucket.org/mmdatafocus/scrub_backend/scrub"
	"bitbucket.org/mmdatafocus/scrub_backend/utils"
	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxWorkbookSizeBytes int64 = 10 * 1024 * 1024

func createScrubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		user, err := getSessionUser(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		customerName := strings.TrimSpace(c.PostForm("customer_name"))
		if customerName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "customer_name is required"})
			return
		}

		jbData, jbName, err := readWorkbookFile(c, "jobboss_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		custData, custName, err := readWorkbookFile(c, "customer_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		jbRows, err := imports.ParseJobBossWorkbook(bytes.NewReader(jbData), jbName)
		if err != nil {
			respondParseError(c, err)
			return
		}
		custRows, err := imports.ParseCustomerWorkbook(bytes.NewReader(custData), custName)
		if err != nil {
			respondParseError(c, err)
			return
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), user.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUsernameInContext(ctx, user.Username)

		ctx, span := tracer.Start(ctx, "scrub.reconcile")
		report, err := scrub.Reconcile(jbRows, custRows, jbName, custName, customerName, user.Username)
		span.End()
		if err != nil {
			respondNormalizeError(c, err)
			return
		}

		// Best-effort: serialize persistence per business so two uploads
		// for the same customer don't interleave report numbers.
		var lock *redislock.Lock
		if redisLock := config.GetRedisLock(); redisLock != nil {
			lock, err = redisLock.Obtain(ctx, "lock:scrub:"+user.BusinessId, 30*time.Second, nil)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"field":       "createScrubHandler",
					"business_id": user.BusinessId,
				}).Warn("could not obtain redis lock; proceeding without redis lock")
				lock = nil
			}
		}

		stored, err := models.CreateScrubReport(ctx, report)
		if lock != nil {
			if releaseErr := lock.Release(ctx); releaseErr != nil {
				logger.WithFields(logrus.Fields{
					"field":       "createScrubHandler",
					"business_id": user.BusinessId,
				}).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}
		if err != nil {
			config.LogError(logger, "scrubs.go", "createScrubHandler", "CreateScrubReport", report.ReportNumber, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store report"})
			return
		}

		// Archive the source workbooks; failure never blocks the response.
		go archiveWorkbooks(user.BusinessId, stored.ReportNumber, jbName, jbData, custName, custData)

		cid, _ := utils.GetCorrelationIdFromContext(ctx)
		c.JSON(http.StatusCreated, gin.H{
			"data":           stored,
			"correlation_id": cid,
		})
	}
}

func readWorkbookFile(c *gin.Context, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%s is required", field)
	}
	if fileHeader.Size > maxWorkbookSizeBytes {
		return nil, "", fmt.Errorf("%s exceeds 10MB limit", field)
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		return nil, "", fmt.Errorf("%s must be an .xlsx file", field)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("%s could not be read", field)
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	data, err := io.ReadAll(io.LimitReader(f, maxWorkbookSizeBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%s could not be read", field)
	}
	if int64(len(data)) > maxWorkbookSizeBytes {
		return nil, "", fmt.Errorf("%s exceeds 10MB limit", field)
	}
	return data, fileHeader.Filename, nil
}

func respondParseError(c *gin.Context, err error) {
	var parseErr *imports.ParseError
	if errors.As(err, &parseErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "workbook could not be parsed",
			"detail": gin.H{
				"file":   parseErr.FileName,
				"sheet":  parseErr.Sheet,
				"row":    parseErr.Row,
				"reason": parseErr.Reason,
			},
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func respondNormalizeError(c *gin.Context, err error) {
	var normErr *scrub.NormalizeError
	if errors.As(err, &normErr) {
		fields := make([]gin.H, 0, len(normErr.Fields))
		for _, fe := range normErr.Fields {
			fields = append(fields, gin.H{
				"source": string(fe.Source),
				"row":    fe.RowNum,
				"field":  fe.Field,
				"value":  fe.Value,
				"reason": fe.Reason,
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "rows could not be normalized",
			"fields": fields,
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func archiveWorkbooks(businessId, reportNumber, jbName string, jbData []byte, custName string, custData []byte) {
	logger := config.GetLogger()
	if strings.TrimSpace(businessId) == "" {
		return
	}

	ctx, cancel := contextWithArchiveTimeout()
	defer cancel()

	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	for _, obj := range []struct {
		label string
		name  string
		data  []byte
	}{
		{"jobboss", jbName, jbData},
		{"customer", custName, custData},
	} {
		// Source label keeps same-named uploads from clobbering each other.
		key := path.Join(businessId, "scrubs", reportNumber, obj.label+"-"+path.Base(obj.name))
		if err := utils.UploadBytesToGCS(ctx, key, obj.data, contentType); err != nil {
			logger.WithFields(logrus.Fields{
				"field":      "archiveWorkbooks",
				"object_key": key,
			}).Warn("failed to archive workbook: " + err.Error())
		}
	}
}

func contextWithArchiveTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func listScrubsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := getSessionUser(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", fmt.Sprint(config.SearchLimit)))

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), user.BusinessId)
		page, err := models.GetScrubReports(ctx, c.Query("customer"), offset, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": page})
	}
}

func getScrubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := getSessionUser(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
			return
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), user.BusinessId)
		report, err := models.GetScrubReport(ctx, id)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": report})
	}
}

func exportScrubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := getSessionUser(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
			return
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), user.BusinessId)
		report, err := models.GetScrubReport(ctx, id)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
			return
		}

		f, err := reports.BuildScrubWorkbook(report)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build workbook"})
			return
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write workbook"})
			return
		}

		fileName := "scrub-" + report.ReportNumber + ".xlsx"
		c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			buf.Bytes())
	}
}

func deleteScrubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := getSessionUser(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if user.Role != models.UserRoleAdmin && user.Role != models.UserRoleOwner {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
			return
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), user.BusinessId)
		err = models.DeleteScrubReport(ctx, id)
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete report"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": true})
	}
}
