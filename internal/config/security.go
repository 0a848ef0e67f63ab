package config

import (
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern that might indicate a checked-in secret
type SensitivePattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// Workspace rc files are usually committed, so tokens there leak.
var sensitivePatterns = []SensitivePattern{
	{
		Name:    "GitHub Token",
		Pattern: regexp.MustCompile(`gh[ps]_[a-zA-Z0-9]{36,}|github_pat_[a-zA-Z0-9_]{22,}`),
	},
	{
		Name:    "Token Assignment",
		Pattern: regexp.MustCompile(`(?im)^\s*` + KeyGitHubToken + `\s*=\s*\S+`),
	},
}

// SensitiveDataFinding represents a detected sensitive data instance
type SensitiveDataFinding struct {
	PatternName string
	Line        int
}

// DetectSensitiveData scans rc file content for likely secrets. Each line is
// reported at most once.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding
	for i, line := range strings.Split(content, "\n") {
		for _, p := range sensitivePatterns {
			if p.Pattern.MatchString(line) {
				findings = append(findings, SensitiveDataFinding{PatternName: p.Name, Line: i + 1})
				break
			}
		}
	}
	return findings
}
