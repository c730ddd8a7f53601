// Package plan materializes the static build/test plan
package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/crucible-build/crucible/pkg/types"
)

// crates lists the workspace packages, leaves first. Every crate is tested
// under the default configuration and again under the allocator-only
// configuration; the two phases are generated from this one list.
var crates = []string{
	"sbor-derive-common",
	"radix-common",
	"radix-engine-common",
	"radix-engine-interface",
	"radix-engine-lib",
	"substate-store-impls",
	"native-sdk",
	"transaction",
	"transaction-scenarios",
	"radix-engine",
	"radix-engine-tests",
	"scrypto",
	"radix-clis",
}

// exampleProjects lists the runnable example projects built in the final
// phase.
var exampleProjects = []string{
	"examples/core/hello-nft",
}

const (
	// PhaseDefault runs every crate's tests under the default features.
	PhaseDefault = "default"
	// PhaseAlloc reruns every crate's tests with only the alloc feature.
	PhaseAlloc = "alloc"
	// PhaseExamples builds the example projects.
	PhaseExamples = "examples"
)

// allocFeature is the reduced allocator-only configuration.
const allocFeature = "alloc"

// Builder materializes the static plan against a workspace root. Building is
// pure: the same root always yields the same plan, and construction cannot
// fail. Whether the directories actually exist is an executor concern.
type Builder struct {
	root string
}

// NewBuilder creates a plan builder rooted at the given workspace directory.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Build returns the complete ordered plan: default-configuration tests,
// allocator-only tests, then example builds.
func (b *Builder) Build() types.Plan {
	return types.Plan{
		Phases: []types.Phase{
			{Name: PhaseDefault, Invocations: b.testInvocations(nil)},
			{Name: PhaseAlloc, Invocations: b.testInvocations([]string{allocFeature})},
			{Name: PhaseExamples, Invocations: b.exampleInvocations()},
		},
	}
}

func (b *Builder) testInvocations(features []string) []types.Invocation {
	invocations := make([]types.Invocation, 0, len(crates))
	for _, crate := range crates {
		invocations = append(invocations, types.Invocation{
			Dir:      filepath.Join(b.root, crate),
			Command:  "cargo",
			Args:     []string{"test"},
			Features: features,
		})
	}
	return invocations
}

func (b *Builder) exampleInvocations() []types.Invocation {
	invocations := make([]types.Invocation, 0, len(exampleProjects))
	for _, example := range exampleProjects {
		invocations = append(invocations, types.Invocation{
			Dir:     filepath.Join(b.root, filepath.FromSlash(example)),
			Command: "cargo",
			Args:    []string{"build"},
		})
	}
	return invocations
}

// DefaultRoot resolves the workspace root relative to the orchestrator
// binary's own location, not the caller's current directory.
func DefaultRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate own executable: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}

	return filepath.Dir(resolved), nil
}

// RenderYAML renders the plan for display.
func RenderYAML(p types.Plan) (string, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to render plan: %w", err)
	}
	return string(data), nil
}
