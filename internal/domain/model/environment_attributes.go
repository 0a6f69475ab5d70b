package model

import "encoding/json"

// EnvironmentAttributes is the projection of a build that links it to its environment.
// EnvironmentID and DeploymentID are resolved by the store at insert time.
type EnvironmentAttributes struct {
	ProjectID               int64
	CIJobID                 int64
	CIPipelineID            int64
	ExpandedEnvironmentName string
	Options                 map[string]interface{}
}

// OptionsJSON serializes Options for the jsonb column.
func (a EnvironmentAttributes) OptionsJSON() (string, error) {
	if a.Options == nil {
		return "{}", nil
	}
	data, err := json.Marshal(a.Options)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
