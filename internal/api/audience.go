package api

// AudienceLevel is the assumed expertise of the explanation's reader.
type AudienceLevel string

const (
	AudienceBeginner     AudienceLevel = "beginner"
	AudienceIntermediate AudienceLevel = "intermediate"
	AudienceExpert       AudienceLevel = "expert"
)

var audienceDescriptions = map[AudienceLevel]string{
	AudienceBeginner:     "For beginners learning assembly language. Uses simple language and explains technical terms.",
	AudienceIntermediate: "For users familiar with basic assembly concepts. Focuses on compiler behavior and choices.",
	AudienceExpert:       "For advanced users. Uses technical terminology and covers advanced optimizations.",
}

// AudienceLevels returns all accepted audience levels in presentation order.
func AudienceLevels() []AudienceLevel {
	return []AudienceLevel{AudienceBeginner, AudienceIntermediate, AudienceExpert}
}

// Valid reports whether the level is one of the accepted values.
func (a AudienceLevel) Valid() bool {
	_, ok := audienceDescriptions[a]
	return ok
}

// Description returns the human-readable description of the level.
func (a AudienceLevel) Description() string {
	return audienceDescriptions[a]
}

// ExplanationType is the kind of explanation to generate.
type ExplanationType string

const (
	ExplanationAssembly     ExplanationType = "assembly"
	ExplanationSource       ExplanationType = "source"
	ExplanationOptimization ExplanationType = "optimization"
)

var explanationDescriptions = map[ExplanationType]string{
	ExplanationAssembly:     "Explains the assembly instructions and their purpose.",
	ExplanationSource:       "Explains how source code constructs map to assembly instructions.",
	ExplanationOptimization: "Explains compiler optimizations and transformations applied to the code.",
}

// ExplanationTypes returns all accepted explanation types in presentation order.
func ExplanationTypes() []ExplanationType {
	return []ExplanationType{ExplanationAssembly, ExplanationSource, ExplanationOptimization}
}

// Valid reports whether the type is one of the accepted values.
func (e ExplanationType) Valid() bool {
	_, ok := explanationDescriptions[e]
	return ok
}

// Description returns the human-readable description of the type.
func (e ExplanationType) Description() string {
	return explanationDescriptions[e]
}
