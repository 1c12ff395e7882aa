package output

import (
	"strings"
)

const (
	// CurrentBranchSymbol marks the checked out branch in tree views
	CurrentBranchSymbol = "◉"
	// BranchSymbol marks every other branch
	BranchSymbol = "◯"
)

// BranchAnnotation holds per-branch display metadata
type BranchAnnotation struct {
	PRNumber     *int
	PRState      string // "open", "merged", "closed", ""
	NeedsSync    bool
	NeedsRestack bool
	BaseMismatch bool
	CustomLabel  string // Additional text to display after branch name
}

// StackTreeRenderer renders a stack top-down from trunk with annotations
type StackTreeRenderer struct {
	currentBranch string
	trunk         string
	getChildren   func(branchName string) []string
	annotations   map[string]BranchAnnotation
}

// NewStackTreeRenderer creates a new tree renderer
func NewStackTreeRenderer(
	currentBranch string,
	trunk string,
	getChildren func(branchName string) []string,
) *StackTreeRenderer {
	return &StackTreeRenderer{
		currentBranch: currentBranch,
		trunk:         trunk,
		getChildren:   getChildren,
		annotations:   make(map[string]BranchAnnotation),
	}
}

// SetAnnotation sets the annotation for a branch
func (r *StackTreeRenderer) SetAnnotation(branchName string, annotation BranchAnnotation) {
	r.annotations[branchName] = annotation
}

// RenderStack renders trunk and everything stacked on it
func (r *StackTreeRenderer) RenderStack() []string {
	lines := []string{r.branchLine(r.trunk)}
	return append(lines, r.upstackLines(r.trunk, "")...)
}

func (r *StackTreeRenderer) upstackLines(branchName, prefix string) []string {
	children := r.getChildren(branchName)
	var result []string
	for i, child := range children {
		connector, indent := "├─", "│ "
		if i == len(children)-1 {
			connector, indent = "└─", "  "
		}
		result = append(result, prefix+connector+r.branchLine(child))
		result = append(result, r.upstackLines(child, prefix+indent)...)
	}
	return result
}

func (r *StackTreeRenderer) branchLine(branchName string) string {
	isCurrent := branchName == r.currentBranch
	symbol := BranchSymbol
	if isCurrent {
		symbol = CurrentBranchSymbol
	}
	return symbol + " " + ColorBranchName(branchName, isCurrent) + r.formatAnnotation(r.annotations[branchName])
}

func (r *StackTreeRenderer) formatAnnotation(annotation BranchAnnotation) string {
	var parts []string

	if annotation.PRNumber != nil {
		parts = append(parts, ColorPRNumber(*annotation.PRNumber))
	}
	if annotation.PRState != "" && annotation.PRState != "open" {
		parts = append(parts, ColorDim("("+annotation.PRState+")"))
	}
	if annotation.BaseMismatch {
		parts = append(parts, ColorWarning("(base mismatch)"))
	}
	if annotation.NeedsRestack {
		parts = append(parts, ColorWarning("(needs restack)"))
	}
	if annotation.NeedsSync {
		parts = append(parts, ColorWarning("(needs sync)"))
	}
	if annotation.CustomLabel != "" {
		parts = append(parts, ColorDim(annotation.CustomLabel))
	}

	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// RenderBranchList renders branches as a flat list
func (r *StackTreeRenderer) RenderBranchList(branches []string) []string {
	result := make([]string, 0, len(branches))
	for _, branchName := range branches {
		result = append(result, r.branchLine(branchName))
	}
	return result
}
