package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/scrub_backend/config"
	"bitbucket.org/mmdatafocus/scrub_backend/scrub"
	"bitbucket.org/mmdatafocus/scrub_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ScrubReport is the persisted aggregate of one reconciliation run.
// Immutable after creation.
type ScrubReport struct {
	ID                  int          `gorm:"primary_key" json:"id"`
	BusinessId          string       `gorm:"index;not null" json:"business_id"`
	ReportNumber        string       `gorm:"size:64;not null;uniqueIndex" json:"report_number"`
	CustomerName        string       `gorm:"size:255;index" json:"customer_name"`
	JobBossFileName     string       `gorm:"size:255" json:"jobboss_file_name"`
	CustomerFileName    string       `gorm:"size:255" json:"customer_file_name"`
	RequestedBy         string       `gorm:"size:100" json:"requested_by"`
	TotalOrders         int          `gorm:"not null;default:0" json:"total_orders"`
	PerfectMatches      int          `gorm:"not null;default:0" json:"perfect_matches"`
	CriticalIssues      int          `gorm:"not null;default:0" json:"critical_issues"`
	HighIssues          int          `gorm:"not null;default:0" json:"high_issues"`
	MediumIssues        int          `gorm:"not null;default:0" json:"medium_issues"`
	MissingFromCustomer int          `gorm:"not null;default:0" json:"missing_from_customer"`
	MissingFromJobBoss  int          `gorm:"not null;default:0" json:"missing_from_jobboss"`
	CreatedAt           time.Time    `gorm:"autoCreateTime" json:"created_at"`
	Matches             []ScrubMatch `gorm:"foreignKey:ScrubReportId" json:"matches,omitempty"`
}

// ScrubMatch is one matched pair. Position preserves the engine's
// deterministic output order. Missing-side rows leave that side's
// columns at their zero values.
type ScrubMatch struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ScrubReportId int             `gorm:"index;not null" json:"scrub_report_id"`
	Position      int             `gorm:"not null" json:"position"`
	MatchType     scrub.MatchType `gorm:"type:enum('Perfect Match','Critical','High','Medium','Missing From Customer','Missing From JobBoss');not null" json:"match_type"`
	CustomerPO    string          `gorm:"size:100;index" json:"customer_po"`
	PartNumber    string          `gorm:"size:100;index" json:"part_number"`

	JobBossSalesOrder   string          `gorm:"size:100" json:"jobboss_sales_order"`
	JobBossRevision     string          `gorm:"size:50" json:"jobboss_revision"`
	JobBossOrderQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"jobboss_order_qty"`
	JobBossOpenQty      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"jobboss_open_qty"`
	JobBossUnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"jobboss_unit_price"`
	JobBossPromisedDate *time.Time      `json:"jobboss_promised_date"`
	JobBossShipDate     *time.Time      `json:"jobboss_ship_date"`

	CustomerOrderNumber  string          `gorm:"size:100" json:"customer_order_number"`
	CustomerRevision     string          `gorm:"size:50" json:"customer_revision"`
	CustomerOrderQty     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"customer_order_qty"`
	CustomerOpenQty      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"customer_open_qty"`
	CustomerUnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"customer_unit_price"`
	CustomerPromisedDate *time.Time      `json:"customer_promised_date"`

	Discrepancies []ScrubDiscrepancy `gorm:"foreignKey:ScrubMatchId" json:"discrepancies,omitempty"`
}

type ScrubDiscrepancy struct {
	ID            int    `gorm:"primary_key" json:"id"`
	ScrubMatchId  int    `gorm:"index;not null" json:"scrub_match_id"`
	FieldName     string `gorm:"size:50;not null" json:"field_name"`
	JobBossValue  string `gorm:"size:255" json:"jobboss_value"`
	CustomerValue string `gorm:"size:255" json:"customer_value"`
	Severity      string `gorm:"type:enum('Critical','High','Medium','Low');not null" json:"severity"`
}

type PagedScrubReports struct {
	Reports []*ScrubReport `json:"reports"`
	Total   int64          `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
}

const mysqlErrDuplicateEntry = 1062

// CreateScrubReport maps an engine report to storage in one transaction.
func CreateScrubReport(ctx context.Context, report *scrub.ScrubReport) (*ScrubReport, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if report == nil {
		return nil, errors.New("report is required")
	}

	row := &ScrubReport{
		BusinessId:          businessId,
		ReportNumber:        report.ReportNumber,
		CustomerName:        report.CustomerName,
		JobBossFileName:     report.JobBossFileName,
		CustomerFileName:    report.CustomerFileName,
		RequestedBy:         report.RequestedBy,
		TotalOrders:         report.Statistics.Total,
		PerfectMatches:      report.Statistics.PerfectMatches,
		CriticalIssues:      report.Statistics.CriticalIssues,
		HighIssues:          report.Statistics.HighIssues,
		MediumIssues:        report.Statistics.MediumIssues,
		MissingFromCustomer: report.Statistics.MissingFromCustomer,
		MissingFromJobBoss:  report.Statistics.MissingFromJobBoss,
		CreatedAt:           report.CreatedAt,
		Matches:             mapMatches(report.Pairs),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return nil, errors.New("duplicate report number")
		}
		return nil, err
	}
	return row, nil
}

func mapMatches(pairs []scrub.MatchedPair) []ScrubMatch {
	matches := make([]ScrubMatch, 0, len(pairs))
	for i := range pairs {
		pair := &pairs[i]
		m := ScrubMatch{
			Position:   i,
			MatchType:  pair.MatchType(),
			CustomerPO: pair.Key.CustomerPO,
			PartNumber: pair.Key.PartNumber,
		}
		if jb := pair.JobBoss; jb != nil {
			m.JobBossSalesOrder = jb.SalesOrder
			m.JobBossRevision = jb.Revision
			m.JobBossOrderQty = jb.OrderQty
			m.JobBossOpenQty = jb.OpenQty
			m.JobBossUnitPrice = jb.UnitPrice
			m.JobBossPromisedDate = jb.PromisedDate
			m.JobBossShipDate = jb.ShipDate
		}
		if cust := pair.Customer; cust != nil {
			m.CustomerOrderNumber = cust.SalesOrder
			m.CustomerRevision = cust.Revision
			m.CustomerOrderQty = cust.OrderQty
			m.CustomerOpenQty = cust.OpenQty
			m.CustomerUnitPrice = cust.UnitPrice
			m.CustomerPromisedDate = cust.PromisedDate
		}
		for _, d := range pair.Discrepancies {
			m.Discrepancies = append(m.Discrepancies, ScrubDiscrepancy{
				FieldName:     d.FieldName,
				JobBossValue:  d.JobBossValue,
				CustomerValue: d.CustomerValue,
				Severity:      d.Severity.String(),
			})
		}
		matches = append(matches, m)
	}
	return matches
}

// GetScrubReports lists reports newest-first, optionally filtered by
// customer name, without match details.
func GetScrubReports(ctx context.Context, customerName string, offset, limit int) (*PagedScrubReports, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 || limit > config.SearchLimit*10 {
		limit = config.SearchLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := db.WithContext(ctx).Model(&ScrubReport{}).Where("business_id = ?", businessId)
	if customerName != "" {
		query = query.Where("customer_name LIKE ?", "%"+customerName+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var reports []*ScrubReport
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&reports).Error
	if err != nil {
		return nil, err
	}

	return &PagedScrubReports{Reports: reports, Total: total, Offset: offset, Limit: limit}, nil
}

// GetScrubReport loads one report with matches and discrepancies in
// engine output order.
func GetScrubReport(ctx context.Context, id int) (*ScrubReport, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	// reports are immutable after creation, safe to cache whole
	cached, err := utils.RetrieveRedis[ScrubReport](id)
	if err == nil && cached != nil && cached.BusinessId == businessId {
		return cached, nil
	}

	var report ScrubReport
	err = db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Preload("Matches", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload("Matches.Discrepancies").
		Take(&report, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedis[ScrubReport](&report, int(report.ID))
	return &report, nil
}

func DeleteScrubReport(ctx context.Context, id int) error {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report ScrubReport
		err := tx.Where("business_id = ?", businessId).Take(&report, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		if err != nil {
			return err
		}

		var matchIds []int
		if err := tx.Model(&ScrubMatch{}).Where("scrub_report_id = ?", report.ID).Pluck("id", &matchIds).Error; err != nil {
			return err
		}
		if len(matchIds) > 0 {
			if err := tx.Where("scrub_match_id IN ?", matchIds).Delete(&ScrubDiscrepancy{}).Error; err != nil {
				return err
			}
			if err := tx.Where("scrub_report_id = ?", report.ID).Delete(&ScrubMatch{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&report).Error; err != nil {
			return err
		}
		_ = utils.RemoveRedis[ScrubReport](int(report.ID))
		return nil
	})
}
