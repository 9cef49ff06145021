package buildtool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"javamig/internal/oracle"
	"javamig/internal/prompts"
)

// WrapperProperties is the wrapper file relative to the project root.
var WrapperProperties = filepath.Join("gradle", "wrapper", "gradle-wrapper.properties")

var distributionURL = regexp.MustCompile(`(?m)^distributionUrl=.*$`)

// UpgradeWrapper points the Gradle wrapper at the given distribution version.
func UpgradeWrapper(root, version string) error {
	path := filepath.Join(root, WrapperProperties)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gradle wrapper: %w", err)
	}
	if !distributionURL.Match(content) {
		return fmt.Errorf("gradle wrapper: no distributionUrl in %s", path)
	}

	url := fmt.Sprintf(`distributionUrl=https\://services.gradle.org/distributions/gradle-%s-bin.zip`, version)
	updated := distributionURL.ReplaceAllLiteral(content, []byte(url))
	return os.WriteFile(path, updated, 0o644)
}

// MigrateBuildFile regenerates build.gradle through the oracle. An empty
// answer is rejected and the file is left as it was.
func MigrateBuildFile(ctx context.Context, o oracle.Oracle, b *prompts.Builder, root string) error {
	path := filepath.Join(root, "build.gradle")
	old, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("build file: %w", err)
	}

	updated, err := o.Transform(ctx, oracle.TaskRewriteBuildFile, b.BuildFile(string(old)))
	if err != nil {
		return fmt.Errorf("build file: %w", err)
	}
	if strings.TrimSpace(updated) == "" {
		return fmt.Errorf("build file: oracle returned an empty build.gradle")
	}
	if !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	return os.WriteFile(path, []byte(updated), 0o644)
}
