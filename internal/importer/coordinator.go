package importer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/parser"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/registry"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/workbook"
)

// Coordinator drives one ingestion batch end to end: classify sheets,
// detect column roles, interpret rows, resolve identities. Parsing is
// pure per sheet; everything touching the registry is serialized by
// the registry itself.
type Coordinator struct {
	registry   *registry.Registry
	classifier *parser.SheetClassifier
	detector   *parser.RoleDetector
	log        *zap.Logger
}

// NewCoordinator wires a coordinator over the shared registry and the
// loaded vocabulary.
func NewCoordinator(reg *registry.Registry, vocab *parser.Vocabulary, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		registry:   reg,
		classifier: parser.NewSheetClassifier(vocab),
		detector:   parser.NewRoleDetector(vocab),
		log:        log,
	}
}

// ImportOptions control one ingestion batch.
type ImportOptions struct {
	// CreateUnseen mints entities for rows that resolve as clearly
	// new. Off by default: creation stays an explicit decision.
	CreateUnseen bool
	// Actor is recorded on audit entries produced by this run.
	Actor string
}

// ProgressEvent is one step of the ingestion feed.
type ProgressEvent struct {
	Type      string    `json:"type"` // start/file_start/sheet_done/warning/error/done
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// categoryEntityTypes maps each sheet category to the entity types its
// rows are resolved against.
var categoryEntityTypes = map[parser.Category][]model.EntityType{
	parser.CategorySimulationStatus: {model.EntityStation, model.EntityRobot},
	parser.CategoryAssembliesList:   {model.EntityStation, model.EntityTool},
	parser.CategoryRobotSpecs:       {model.EntityRobot},
	parser.CategoryGunList:          {model.EntityTool},
}

// ImportFiles ingests spreadsheet files asynchronously and streams
// progress. The final "done" event carries the completed ImportRun.
func (c *Coordinator) ImportFiles(paths []string, opts ImportOptions) <-chan ProgressEvent {
	progress := make(chan ProgressEvent, 100)

	go func() {
		defer close(progress)
		run, err := c.runFiles(paths, opts, progress)
		if err != nil {
			c.send(progress, ProgressEvent{
				Type:      "error",
				Message:   err.Error(),
				Timestamp: time.Now(),
			})
			return
		}
		c.send(progress, ProgressEvent{
			Type:      "done",
			Message:   "import completed",
			Data:      run,
			Timestamp: time.Now(),
		})
	}()

	return progress
}

// runFiles opens each file and feeds it into one shared run. One
// unreadable file is reported and skipped; the others proceed.
func (c *Coordinator) runFiles(paths []string, opts ImportOptions, progress chan ProgressEvent) (*model.ImportRun, error) {
	var workbooks []*workbook.Workbook
	var unreadable []model.Anomaly

	for _, path := range paths {
		wb, err := workbook.OpenExcel(path)
		if err != nil {
			c.send(progress, ProgressEvent{
				Type:      "warning",
				Message:   fmt.Sprintf("skipping unreadable file %s: %v", filepath.Base(path), err),
				Timestamp: time.Now(),
			})
			unreadable = append(unreadable, model.Anomaly{
				Type:    model.AnomalyUnreadable,
				Message: fmt.Sprintf("%s: %v", filepath.Base(path), err),
			})
			continue
		}
		workbooks = append(workbooks, wb)
	}

	run, err := c.RunWorkbooks(workbooks, opts, progress)
	if err != nil {
		return nil, err
	}
	if len(unreadable) > 0 {
		run.Anomalies = append(run.Anomalies, unreadable...)
		if err := c.registry.Store().UpdateRun(run); err != nil {
			return nil, err
		}
	}
	return run, nil
}

// RunWorkbooks executes one ingestion run synchronously over already
// opened workbooks. progress may be nil.
func (c *Coordinator) RunWorkbooks(workbooks []*workbook.Workbook, opts ImportOptions, progress chan ProgressEvent) (*model.ImportRun, error) {
	run := &model.ImportRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Status:    "processing",
	}
	for _, wb := range workbooks {
		run.SourceFiles = append(run.SourceFiles, wb.FileName)
	}

	if err := c.registry.Store().InsertRun(run); err != nil {
		return nil, err
	}

	c.send(progress, ProgressEvent{
		Type:      "start",
		Message:   fmt.Sprintf("import run %s over %d file(s)", run.ID, len(workbooks)),
		Timestamp: time.Now(),
	})

	for _, wb := range workbooks {
		c.processWorkbook(run, wb, opts, progress)
	}

	run.CompletedAt = time.Now().UTC()
	run.Status = "completed"
	if err := c.registry.Store().UpdateRun(run); err != nil {
		return nil, err
	}

	c.log.Info("import run finished",
		zap.String("runId", run.ID),
		zap.Int("totalRows", run.TotalRows),
		zap.Int("resolved", run.ResolvedRows),
		zap.Int("ambiguous", run.AmbiguousRows),
		zap.Int("created", run.CreatedCount))
	return run, nil
}

// processWorkbook classifies a workbook's sheets and ingests every
// category that found a winning sheet.
func (c *Coordinator) processWorkbook(run *model.ImportRun, wb *workbook.Workbook, opts ImportOptions, progress chan ProgressEvent) {
	c.send(progress, ProgressEvent{
		Type:      "file_start",
		Message:   fmt.Sprintf("processing %s", wb.FileName),
		Timestamp: time.Now(),
	})

	classification := c.classifier.ClassifyWorkbook(wb)
	if len(classification.ByCategory) == 0 {
		c.send(progress, ProgressEvent{
			Type:      "warning",
			Message:   fmt.Sprintf("%s: no sheet matched any known category", wb.FileName),
			Timestamp: time.Now(),
		})
		return
	}

	for _, match := range classification.ByCategory {
		sheet := wb.Sheet(match.SheetName)
		if sheet == nil {
			continue
		}
		c.processSheet(run, sheet, match, opts)
		c.send(progress, ProgressEvent{
			Type:    "sheet_done",
			Message: fmt.Sprintf("%s: sheet %q ingested as %s", wb.FileName, match.SheetName, match.Category),
			Data: map[string]any{
				"sheet":    match.SheetName,
				"category": match.Category,
				"score":    match.Score,
			},
			Timestamp: time.Now(),
		})
	}
}

// processSheet interprets and resolves every data row of one
// classified sheet. Malformed rows become anomalies and are skipped;
// the sheet keeps going.
func (c *Coordinator) processSheet(run *model.ImportRun, sheet *workbook.Sheet, match *parser.CategoryMatch, opts ImportOptions) {
	headerCells := sheet.Rows[match.HeaderRow]
	headers := make([]string, len(headerCells))
	for i, cell := range headerCells {
		headers[i] = parser.FormatCell(cell)
	}
	analysis := c.detector.AnalyzeHeaders(sheet.Name, match.HeaderRow, headers)
	interpreter := parser.NewRowInterpreter(analysis)

	entityTypes := categoryEntityTypes[match.Category]

	// Duplicate keys within one sheet are reported once and resolved once.
	seen := make(map[string]int)

	for rowIdx := match.HeaderRow + 1; rowIdx < len(sheet.Rows); rowIdx++ {
		row := interpreter.Interpret(sheet.Rows[rowIdx], rowIdx)
		if row.IsEmpty() {
			continue
		}
		run.TotalRows++

		resolvedAny := false
		for _, t := range entityTypes {
			key := registry.KeyForRow(t, row)
			if key == "" {
				continue
			}
			dedupe := string(t) + "|" + key
			if firstRow, dup := seen[dedupe]; dup {
				run.Anomalies = append(run.Anomalies, model.Anomaly{
					Type:    model.AnomalyDuplicateID,
					Sheet:   sheet.Name,
					Row:     rowIdx,
					Message: fmt.Sprintf("%s key %s already seen at row %d", t, key, firstRow),
				})
				resolvedAny = true
				continue
			}
			seen[dedupe] = rowIdx

			res, err := c.registry.ResolveRow(run.ID, t, row)
			if err != nil {
				run.Anomalies = append(run.Anomalies, model.Anomaly{
					Type:    model.AnomalyBadFormat,
					Sheet:   sheet.Name,
					Row:     rowIdx,
					Message: err.Error(),
				})
				continue
			}

			switch res.Status {
			case registry.ResolutionMatched, registry.ResolutionAlias:
				run.ResolvedRows++
				resolvedAny = true
			case registry.ResolutionAmbiguous:
				run.AmbiguousRows++
				resolvedAny = true
			case registry.ResolutionNew:
				resolvedAny = true
				if opts.CreateUnseen {
					if _, err := c.registry.CreateEntityForRow(run.ID, t, res.Key, row, "created by import run", opts.Actor); err != nil {
						run.Anomalies = append(run.Anomalies, model.Anomaly{
							Type:    model.AnomalyBadFormat,
							Sheet:   sheet.Name,
							Row:     rowIdx,
							Message: err.Error(),
						})
						continue
					}
					run.CreatedCount++
					run.ResolvedRows++
				}
			}
		}

		if !resolvedAny {
			run.SkippedRows++
			run.Anomalies = append(run.Anomalies, model.Anomaly{
				Type:    model.AnomalyMissingField,
				Sheet:   sheet.Name,
				Row:     rowIdx,
				Message: "row has no resolvable identity fields",
			})
		}
	}
}

// send delivers a progress event without ever blocking ingestion; a
// full or absent channel drops the event.
func (c *Coordinator) send(ch chan ProgressEvent, event ProgressEvent) {
	if ch == nil {
		return
	}
	select {
	case ch <- event:
	default:
	}
}
