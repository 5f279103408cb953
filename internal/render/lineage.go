package render

import (
	"github.com/irfndi/timeseries-dashboard/internal/models"
)

const pipelineVisualizationID = "data-pipeline-visualization"

// plotContainers pairs each dataset with its chart slot. Charts are drawn
// client-side; the server only reserves the slot.
var plotContainers = map[string]string{
	models.DatasetOriginal:  "original-data-plot",
	models.DatasetReturns:   "returns-data-plot",
	models.DatasetScaled:    "scaled-data-plot",
	models.DatasetPreGARCH:  "pre-garch-data-plot",
	models.DatasetPostGARCH: "post-garch-data-plot",
}

// DataLineageRenderer draws the pipeline stage strip and reserves the plot
// slots of the data-lineage sub-tabs.
type DataLineageRenderer struct{}

func (r *DataLineageRenderer) Name() string { return "data-lineage" }

func (r *DataLineageRenderer) Render(doc *Document, processed *models.ProcessedResults, _ *models.RawResponse) error {
	lineage := processed.DataLineage
	if lineage == nil {
		if err := placeholder(doc, pipelineVisualizationID, "Data lineage not available."); err != nil {
			return err
		}
		for _, key := range models.DatasetKeys {
			if err := fill(doc, plotContainers[key], "plot-placeholder", "No data available for this stage"); err != nil {
				return err
			}
		}
		return nil
	}

	if len(lineage.PipelineStages) == 0 {
		if err := placeholder(doc, pipelineVisualizationID, "No pipeline stages recorded."); err != nil {
			return err
		}
	} else if err := fill(doc, pipelineVisualizationID, "pipeline-visualization", lineage.PipelineStages); err != nil {
		return err
	}

	for _, key := range models.DatasetKeys {
		if err := fill(doc, plotContainers[key], "plot-placeholder", "Data visualization will be rendered here"); err != nil {
			return err
		}
	}
	return nil
}
