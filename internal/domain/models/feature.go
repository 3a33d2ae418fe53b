package models

import "time"

// FeatureScopeGlobal is the scope string for flag values that apply to everyone.
const FeatureScopeGlobal = "global"

// FeatureValue is a stored feature flag value for one scope.
// Scope is FeatureScopeGlobal or "user:<hex id>".
type FeatureValue struct {
	Name      string    `bson:"name" json:"name"`
	Scope     string    `bson:"scope" json:"scope"`
	Value     bool      `bson:"value" json:"value"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
