package updater

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"sjsage522/carsales/helpers"
	"sjsage522/carsales/internal/sales"
	"sjsage522/carsales/internal/scraper"
	"sjsage522/carsales/internal/spreadsheet"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"
	"sjsage522/carsales/services/publisher"
)

// Request describes one spreadsheet update
type Request struct {
	// Path is the workbook file, created when missing
	Path string
	// Sheet is the brand sheet to merge into; empty skips the merge
	Sheet  string
	Layout spreadsheet.Layout
	Policy sales.Policy
	// SnapshotSheet, when set, stores the scraped source rows in a new sheet of that name
	SnapshotSheet string
}

// Result summarizes a finished update; it is also the published message
type Result struct {
	Region          string           `json:"region"`
	Source          string           `json:"source"`
	Path            string           `json:"path"`
	Sheet           string           `json:"sheet,omitempty"`
	Snapshot        string           `json:"snapshot,omitempty"`
	Policy          string           `json:"policy"`
	Months          []sales.Month    `json:"months"`
	Records         int              `json:"records"`
	Stats           sales.MergeStats `json:"stats"`
	CreatedWorkbook bool             `json:"created_workbook"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Updater runs the scrape, merge, save and publish pipeline
type Updater struct {
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
}

// NewUpdater creates a new updater
func NewUpdater(pub publisher.Publisher, logger helpers.LoggerInterface) *Updater {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	if logger == nil {
		logger = helpers.NopLogger{}
	}
	return &Updater{
		publisher: pub,
		logger:    logger,
	}
}

// Run scrapes first so that a failed fetch never touches the workbook,
// then merges the report into the workbook, saves it and publishes the summary
func (u *Updater) Run(ctx context.Context, s scraper.Scraper, req Request) (*Result, error) {
	name := s.GetName()
	if name == "" {
		name = reflect.TypeOf(s).Elem().Name()
	}
	log := logger.ForUpdater().WithField("scraper", name)

	if req.Path == "" {
		return nil, apperrors.NewValidation(name, "workbook path is required")
	}
	if req.Sheet == "" && req.SnapshotSheet == "" {
		return nil, apperrors.NewValidation(name, "nothing to update: no sheet and no snapshot sheet")
	}

	report, err := s.Scrape(ctx)
	if err != nil {
		u.logger.LogError(name, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := u.apply(report, req)
	if err != nil {
		u.logger.LogError(name, err)
		return nil, err
	}

	log.Info().
		Str("path", result.Path).
		Str("sheet", result.Sheet).
		Str("snapshot", result.Snapshot).
		Int("records", result.Records).
		Int("written", result.Stats.Written).
		Int("conflicts", result.Stats.Conflicts).
		Int("cleared", result.Stats.Cleared).
		Msg("Workbook updated")

	u.publish(report.Region, result)
	return result, nil
}

// apply merges the report into the workbook and saves it
func (u *Updater) apply(report *scraper.Report, req Request) (*Result, error) {
	log := logger.ForUpdater().WithField("region", report.Region)

	wb, err := spreadsheet.Open(req.Path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	result := &Result{
		Region:          report.Region,
		Source:          report.Source,
		Path:            req.Path,
		Policy:          req.Policy.String(),
		CreatedWorkbook: wb.IsNew(),
	}

	if req.Sheet != "" && report.Table != nil {
		existing, err := wb.ReadTable(req.Sheet, req.Layout)
		if err != nil {
			return nil, err
		}

		result.Stats = sales.Merge(existing, report.Table, req.Policy)
		if result.Stats.Conflicts > 0 {
			log.Warn().Int("conflicts", result.Stats.Conflicts).Msg("Existing values differ from the source and were kept")
		}
		if len(result.Stats.AddedBrands) > 0 {
			log.Debug().Strs("brands", result.Stats.AddedBrands).Msg("New brands added")
		}

		if err := wb.WriteTable(req.Sheet, existing); err != nil {
			return nil, err
		}
		result.Sheet = req.Sheet
		result.Months = report.Table.Months()
		result.Records = len(report.Table.Records())
	}

	if req.SnapshotSheet != "" && len(report.Raw) > 0 {
		snapshot, err := wb.AddSnapshot(req.SnapshotSheet, report.Raw)
		if err != nil {
			return nil, err
		}
		result.Snapshot = snapshot
	}

	if err := wb.Save(); err != nil {
		return nil, err
	}
	result.UpdatedAt = time.Now().UTC()
	return result, nil
}

// publish sends the update summary; failures are logged, the workbook is already saved
func (u *Updater) publish(region string, result *Result) {
	data, err := json.Marshal(result)
	if err != nil {
		u.logger.LogError("publisher", err)
		return
	}

	if err := u.publisher.Publish(region, data); err != nil {
		u.logger.LogError("publisher", apperrors.NewPublisher(region, "failed to publish update", err))
		logger.LogError("publisher", err, "Failed to publish update for %s", region)
		return
	}

	if err := u.publisher.TrimStreams(); err != nil {
		u.logger.LogError("StreamTrimming", err)
	}
}
