// Package prompts renders the instructions sent to the oracle for each task.
package prompts

import (
	"fmt"
	"strings"

	"javamig/internal/plan"
)

// Builder renders prompts for one migration plan.
type Builder struct {
	Plan plan.Plan
}

func NewBuilder(p plan.Plan) *Builder {
	return &Builder{Plan: p}
}

// Plan asks for the migration plan JSON of a project.
func Plan(buildGradle, settingsGradle, tree string) string {
	var sb strings.Builder
	sb.WriteString("You are a Java migration planner.\n\n")
	sb.WriteString("Analyze the project below and produce a migration plan.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Do not suggest or rewrite code\n")
	sb.WriteString("- Return ONLY valid JSON, no markdown, no explanations, no extra fields\n")
	sb.WriteString("- If unsure, choose the safer option\n\n")
	sb.WriteString("Output exactly these fields:\n")
	sb.WriteString(`{
  "current_java": number,
  "target_java": number,
  "current_spring_boot": string or null,
  "target_spring_boot": string,
  "project_type": "spring-boot" | "spring" | "plain-java",
  "modules": array of strings,
  "uses_web": boolean,
  "uses_security": boolean,
  "uses_jpa": boolean,
  "risk_level": "low" | "medium" | "high"
}`)
	fmt.Fprintf(&sb, "\n\nTarget selection rules:\n- target_java MUST be %d\n- target_spring_boot MUST be %s\n", plan.TargetJava, plan.TargetSpringBoot)
	section(&sb, "build.gradle", buildGradle)
	section(&sb, "settings.gradle", settingsGradle)
	section(&sb, "project structure", tree)
	return sb.String()
}

// BuildFile asks for a migrated build.gradle.
func (b *Builder) BuildFile(oldBuild string) string {
	var sb strings.Builder
	sb.WriteString("You are a build migration agent.\n\n")
	sb.WriteString("Rewrite the given build.gradle file to be compatible with:\n")
	fmt.Fprintf(&sb, "- Java %d\n- Spring Boot %s\n- Gradle 8.x\n\n", b.Plan.TargetJava, b.Plan.TargetSpringBoot)
	sb.WriteString("Rules:\n")
	sb.WriteString("- Do not add or remove dependencies\n")
	sb.WriteString("- Do not change dependency coordinates except where required\n")
	sb.WriteString("- Do not change the project structure\n")
	sb.WriteString("- Preserve comments and formatting as much as possible\n")
	sb.WriteString("- Use Java toolchains instead of sourceCompatibility\n\n")
	sb.WriteString("Output ONLY the full updated build.gradle content. No explanations. No markdown.\n")
	section(&sb, "OLD build.gradle", oldBuild)
	return sb.String()
}

// Classify asks for exactly one category token for a source file. content is
// expected to be truncated by the caller.
func (b *Builder) Classify(path, content string) string {
	var sb strings.Builder
	sb.WriteString("You are a Java migration classifier.\n\n")
	sb.WriteString("Context:\n")
	fmt.Fprintf(&sb, "- Source Java version: %s\n- Target Java version: %d\n", b.Plan.CurrentJavaVersion(), b.Plan.TargetJava)
	fmt.Fprintf(&sb, "- Spring Boot: %s -> %s\n", b.Plan.CurrentBoot(), b.Plan.TargetSpringBoot)
	sb.WriteString("- javax -> jakarta is required\n")
	b.features(&sb)
	sb.WriteString("\nClassify the file into ONE category only:\n")
	sb.WriteString("1. NO_CHANGE\n")
	sb.WriteString("2. MINOR_FIX (imports, deprecated API)\n")
	sb.WriteString("3. MAJOR_REWRITE (javax, removed APIs, Spring config)\n")
	sb.WriteString("4. REMOVE (obsolete / unused)\n\n")
	sb.WriteString("Rules:\n- Do not rewrite code\n- Do not suggest improvements\n- Be conservative\n- Output ONLY the classification word\n")
	section(&sb, "File path", path)
	section(&sb, "File content", content)
	return sb.String()
}

// Rewrite asks for a migrated version of one source file. diagnostics, when
// present, are the compiler errors the previous attempt produced.
func (b *Builder) Rewrite(code string, diagnostics []string) string {
	var sb strings.Builder
	sb.WriteString("You are a Java migration rewrite agent.\n\n")
	sb.WriteString("Rewrite the following Java file to be compatible with:\n")
	fmt.Fprintf(&sb, "- Java %d\n- Spring Boot %s\n", b.Plan.TargetJava, b.Plan.TargetSpringBoot)
	b.features(&sb)
	sb.WriteString("\nSTRICT RULES:\n")
	sb.WriteString("- Preserve package name\n")
	sb.WriteString("- Preserve class name\n")
	sb.WriteString("- Preserve public method signatures\n")
	sb.WriteString("- Preserve fields and annotations\n")
	sb.WriteString("- Do NOT refactor or optimize\n")
	sb.WriteString("- Do NOT introduce new language features\n")
	sb.WriteString("- Remove unused imports\n")
	sb.WriteString("- Replace javax.* with jakarta.* where required\n")
	sb.WriteString("- Fix only compilation-breaking issues\n\n")
	sb.WriteString("Output ONLY the full rewritten Java file. No explanations. No markdown. No added comments.\n")
	if len(diagnostics) > 0 {
		section(&sb, "COMPILER ERRORS FROM THE PREVIOUS ATTEMPT", strings.Join(diagnostics, "\n"))
	}
	section(&sb, "ORIGINAL JAVA FILE", code)
	return sb.String()
}

func (b *Builder) features(sb *strings.Builder) {
	var used []string
	if b.Plan.UsesWeb {
		used = append(used, "web")
	}
	if b.Plan.UsesSecurity {
		used = append(used, "security")
	}
	if b.Plan.UsesJPA {
		used = append(used, "jpa")
	}
	if len(used) > 0 {
		fmt.Fprintf(sb, "- Project uses: %s\n", strings.Join(used, ", "))
	}
}

func section(sb *strings.Builder, title, body string) {
	fmt.Fprintf(sb, "\n--- %s ---\n%s\n", title, body)
}
