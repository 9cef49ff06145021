package plan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlan = `{
  "current_java": 8,
  "target_java": 17,
  "current_spring_boot": "2.7.18",
  "target_spring_boot": "3.2.x",
  "project_type": "spring-boot",
  "modules": ["app", "core"],
  "uses_web": true,
  "uses_security": false,
  "uses_jpa": true,
  "risk_level": "medium"
}`

func TestParse_Valid(t *testing.T) {
	p, err := Parse([]byte(validPlan))
	require.NoError(t, err)

	assert.Equal(t, 8.0, p.CurrentJava)
	assert.Equal(t, "8", p.CurrentJavaVersion())
	assert.Equal(t, 17, p.TargetJava)
	assert.Equal(t, "2.7.18", p.CurrentBoot())
	assert.Equal(t, ProjectSpringBoot, p.ProjectType)
	assert.Equal(t, []string{"app", "core"}, p.Modules)
	assert.True(t, p.UsesJPA)
	assert.Equal(t, RiskMedium, p.RiskLevel)
}

func TestParse_NullBootVersion(t *testing.T) {
	p, err := Parse([]byte(`{"current_java":8,"target_java":17,"current_spring_boot":null,"target_spring_boot":"3.2.5",
		"project_type":"plain-java","modules":[],"uses_web":false,"uses_security":false,"uses_jpa":false,"risk_level":"low"}`))
	require.NoError(t, err)
	assert.Nil(t, p.CurrentSpringBoot)
	assert.Equal(t, "none", p.CurrentBoot())
}

func TestParse_LegacyJavaVersionNumber(t *testing.T) {
	p, err := Parse([]byte(`{"current_java":1.8,"target_java":17,"current_spring_boot":"2.1.0","target_spring_boot":"3.2.x",
		"project_type":"spring-boot","modules":[],"uses_web":true,"uses_security":false,"uses_jpa":false,"risk_level":"high"}`))
	require.NoError(t, err)
	assert.Equal(t, 1.8, p.CurrentJava)
	assert.Equal(t, "1.8", p.CurrentJavaVersion())

	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, Save(path, p))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestParse_RejectsSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"wrong target java": `{"current_java":8,"target_java":21,"current_spring_boot":null,"target_spring_boot":"3.2.x","project_type":"spring","modules":[],"uses_web":false,"uses_security":false,"uses_jpa":false,"risk_level":"low"}`,
		"wrong boot family": `{"current_java":8,"target_java":17,"current_spring_boot":null,"target_spring_boot":"3.3.0","project_type":"spring","modules":[],"uses_web":false,"uses_security":false,"uses_jpa":false,"risk_level":"low"}`,
		"unknown type":      `{"current_java":8,"target_java":17,"current_spring_boot":null,"target_spring_boot":"3.2.x","project_type":"quarkus","modules":[],"uses_web":false,"uses_security":false,"uses_jpa":false,"risk_level":"low"}`,
		"extra key":         `{"current_java":8,"target_java":17,"current_spring_boot":null,"target_spring_boot":"3.2.x","project_type":"spring","modules":[],"uses_web":false,"uses_security":false,"uses_jpa":false,"risk_level":"low","notes":"x"}`,
		"missing key":       `{"current_java":8,"target_java":17}`,
		"zero java":         `{"current_java":0,"target_java":17,"current_spring_boot":null,"target_spring_boot":"3.2.x","project_type":"spring","modules":[],"uses_web":false,"uses_security":false,"uses_jpa":false,"risk_level":"low"}`,
		"not json":          `here is your plan: {}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "plan.json")

	want := Default()
	want.Modules = []string{"api"}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
