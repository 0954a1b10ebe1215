// Package catalog lists the model types the training backend supports
// and their default hyperparameters.
package catalog

import (
	"fmt"
	"sort"
)

// ModelInfo describes one supported model type.
type ModelInfo struct {
	Type        string                 `json:"type"`
	DisplayName string                 `json:"display_name"`
	TaskTypes   []string               `json:"task_types"`
	Defaults    map[string]interface{} `json:"defaults"`
}

var models = map[string]ModelInfo{
	"random_forest": {
		Type:        "random_forest",
		DisplayName: "Random Forest",
		TaskTypes:   []string{"classification", "regression"},
		Defaults: map[string]interface{}{
			"n_estimators": 100,
			"max_depth":    10,
		},
	},
	"decision_tree": {
		Type:        "decision_tree",
		DisplayName: "Decision Tree",
		TaskTypes:   []string{"classification", "regression"},
		Defaults: map[string]interface{}{
			"max_depth": 10,
		},
	},
	"svm": {
		Type:        "svm",
		DisplayName: "Support Vector Machine",
		TaskTypes:   []string{"classification", "regression"},
		Defaults: map[string]interface{}{
			"kernel": "rbf",
			"C":      1.0,
		},
	},
	"knn": {
		Type:        "knn",
		DisplayName: "K-Nearest Neighbors",
		TaskTypes:   []string{"classification", "regression"},
		Defaults: map[string]interface{}{
			"n_neighbors": 5,
		},
	},
}

// Lookup returns the catalog entry for a model type.
func Lookup(modelType string) (ModelInfo, error) {
	info, ok := models[modelType]
	if !ok {
		return ModelInfo{}, fmt.Errorf("unsupported model type %q", modelType)
	}
	return info, nil
}

// Supports reports whether a model type can run the given task type.
func Supports(modelType, taskType string) bool {
	info, ok := models[modelType]
	if !ok {
		return false
	}
	for _, t := range info.TaskTypes {
		if t == taskType {
			return true
		}
	}
	return false
}

// All returns every catalog entry sorted by type.
func All() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, info := range models {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
