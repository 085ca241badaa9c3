package idhash

import (
	"fmt"

	"github.com/google/uuid"

	"sentiment-lab/internal/domain"
)

// runNamespace scopes run ids to this tool.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sentiment-lab/run"))

// ComputeRunID derives a name-based (v5) UUID from the dataset and test parameters.
// Formula: UUIDv5(run namespace, dataset_id|predictor|target|max_lag|alpha)
// Re-running the same analysis on the same data yields the same id.
func ComputeRunID(datasetID string, predictor, target domain.Field, maxLag int, alpha float64) uuid.UUID {
	data := fmt.Sprintf("%s|%s|%s|%d|%s",
		datasetID,
		predictor,
		target,
		maxLag,
		formatFloat(alpha),
	)
	return uuid.NewSHA1(runNamespace, []byte(data))
}
