package prompts

import (
	"strings"
	"testing"

	"javamig/internal/plan"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_ClassifyUsesPlan(t *testing.T) {
	p := plan.Default()
	boot := "2.7.18"
	p.CurrentSpringBoot = &boot
	p.UsesSecurity = true

	out := NewBuilder(p).Classify("/src/A.java", "class A {}")

	assert.Contains(t, out, "Source Java version: 8")
	assert.Contains(t, out, "Spring Boot: 2.7.18 -> 3.2.x")
	assert.Contains(t, out, "Project uses: security")
	assert.Contains(t, out, "MAJOR_REWRITE")
	assert.True(t, strings.HasSuffix(out, "--- File content ---\nclass A {}\n"))
}

func TestBuilder_RewriteDiagnostics(t *testing.T) {
	b := NewBuilder(plan.Default())

	plain := b.Rewrite("class A {}", nil)
	assert.NotContains(t, plain, "COMPILER ERRORS")

	repair := b.Rewrite("class A {}", []string{"A.java:3: error: cannot find symbol"})
	assert.Contains(t, repair, "A.java:3: error: cannot find symbol")
	assert.Less(t, strings.Index(repair, "COMPILER ERRORS"), strings.Index(repair, "ORIGINAL JAVA FILE"))
}

func TestPlan_ContainsInputs(t *testing.T) {
	out := Plan("plugins {}", "rootProject.name = 'x'", "src\n  main")
	assert.Contains(t, out, "target_java MUST be 17")
	assert.Contains(t, out, "rootProject.name = 'x'")
	assert.Contains(t, out, "--- project structure ---\nsrc\n  main")
}
