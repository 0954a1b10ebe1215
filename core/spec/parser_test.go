package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ml-dashboard/core/models"
)

func TestParseTrainingSpec(t *testing.T) {
	t.Run("valid spec", func(t *testing.T) {
		specYAML := `
training:
  name: iris-classifier
  model:
    type: random_forest
    hyperparameters:
      n_estimators: 200
  data:
    dataset: /data/iris.csv
    target_column: species
    task_type: classification
  epochs: 20
`
		req, err := ParseTrainingSpec(specYAML)
		require.NoError(t, err)

		assert.Equal(t, "iris-classifier", req.Name)
		assert.Equal(t, "random_forest", req.ModelType)
		assert.Equal(t, models.TaskClassification, req.TaskType)
		assert.Equal(t, 20, req.Epochs)
		// Spec override wins, catalog default fills the rest.
		assert.Equal(t, 200, req.Hyperparameters["n_estimators"])
		assert.Equal(t, 10, req.Hyperparameters["max_depth"])
	})

	t.Run("defaults for task type and epochs", func(t *testing.T) {
		specYAML := `
training:
  name: quick
  model:
    type: knn
  data:
    dataset: /data/wine.csv
    target_column: quality
`
		req, err := ParseTrainingSpec(specYAML)
		require.NoError(t, err)

		assert.Equal(t, models.TaskClassification, req.TaskType)
		assert.Equal(t, 10, req.Epochs)
		assert.Equal(t, 5, req.Hyperparameters["n_neighbors"])
	})

	t.Run("unknown model type", func(t *testing.T) {
		specYAML := `
training:
  name: bad
  model:
    type: transformer
  data:
    dataset: /data/x.csv
    target_column: y
`
		_, err := ParseTrainingSpec(specYAML)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported model type")
	})

	t.Run("missing required fields", func(t *testing.T) {
		_, err := ParseTrainingSpec(`training: {name: x}`)
		require.Error(t, err)

		_, err = ParseTrainingSpec(`training: {}`)
		require.Error(t, err)
	})

	t.Run("invalid task type", func(t *testing.T) {
		specYAML := `
training:
  name: bad
  model:
    type: svm
  data:
    dataset: /data/x.csv
    target_column: y
    task_type: clustering
`
		_, err := ParseTrainingSpec(specYAML)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported task type")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseTrainingSpec(`training: [`)
		require.Error(t, err)
	})
}
