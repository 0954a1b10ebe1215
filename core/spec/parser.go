package spec

import (
	"fmt"

	"ml-dashboard/core/models"
	"ml-dashboard/training/catalog"

	"gopkg.in/yaml.v3"
)

// TrainingSpec represents the YAML training specification
type TrainingSpec struct {
	Training TrainingSpecJob `yaml:"training"`
}

// TrainingSpecJob represents the training section of the spec
type TrainingSpecJob struct {
	Name   string            `yaml:"name"`
	Model  TrainingSpecModel `yaml:"model"`
	Data   TrainingSpecData  `yaml:"data"`
	Epochs int               `yaml:"epochs"`
}

// TrainingSpecModel represents the model configuration
type TrainingSpecModel struct {
	Type            string                 `yaml:"type"`
	Hyperparameters map[string]interface{} `yaml:"hyperparameters,omitempty"`
}

// TrainingSpecData represents the dataset configuration
type TrainingSpecData struct {
	Dataset      string `yaml:"dataset"`
	TargetColumn string `yaml:"target_column"`
	TaskType     string `yaml:"task_type"`
}

// ParseTrainingSpec parses a YAML training specification into a
// TrainingRequest, validating the model type against the catalog and
// filling hyperparameter defaults from it.
func ParseTrainingSpec(specYAML string) (*models.TrainingRequest, error) {
	var spec TrainingSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	job := spec.Training
	if job.Name == "" {
		return nil, fmt.Errorf("training.name is required")
	}
	if job.Data.Dataset == "" {
		return nil, fmt.Errorf("training.data.dataset is required")
	}
	if job.Data.TargetColumn == "" {
		return nil, fmt.Errorf("training.data.target_column is required")
	}

	taskType := models.TaskType(job.Data.TaskType)
	if taskType == "" {
		taskType = models.TaskClassification
	}
	if taskType != models.TaskClassification && taskType != models.TaskRegression {
		return nil, fmt.Errorf("unsupported task type %q", job.Data.TaskType)
	}

	info, err := catalog.Lookup(job.Model.Type)
	if err != nil {
		return nil, err
	}
	if !catalog.Supports(info.Type, string(taskType)) {
		return nil, fmt.Errorf("model %q does not support task type %q", info.Type, taskType)
	}

	// Catalog defaults first, spec overrides on top.
	hyper := map[string]interface{}{}
	for k, v := range info.Defaults {
		hyper[k] = v
	}
	for k, v := range job.Model.Hyperparameters {
		hyper[k] = v
	}

	epochs := job.Epochs
	if epochs <= 0 {
		epochs = 10
	}

	return &models.TrainingRequest{
		Name:            job.Name,
		DatasetPath:     job.Data.Dataset,
		TargetColumn:    job.Data.TargetColumn,
		TaskType:        taskType,
		ModelType:       info.Type,
		Epochs:          epochs,
		Hyperparameters: hyper,
	}, nil
}
