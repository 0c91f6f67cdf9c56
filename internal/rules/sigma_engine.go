package rules

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sigma "github.com/bradleyjkemp/sigma-go"
	sigmaevaluator "github.com/bradleyjkemp/sigma-go/evaluator"

	"ifmap2json/pkg/models"
)

// Product is the logsource product accepted by SigmaFilter.
const Product = "ifmap"

// SigmaLoadStats tracks the number of loaded and skipped rules.
type SigmaLoadStats struct {
	TotalFiles        int
	Loaded            int
	SkippedComplex    int
	SkippedDatasource int
	SkippedInvalid    int
}

type compiledSigmaRule struct {
	title string
	eval  *sigmaevaluator.RuleEvaluator
}

// SigmaFilter excludes poll records matched by any loaded Sigma rule.
//
// Rules see one flat event per record with the fields oper, name, type,
// fq_name, link_name, link_type and metadata (space separated element names).
type SigmaFilter struct {
	rules []compiledSigmaRule
	ctx   context.Context
}

// NewSigmaFilter loads Sigma rules from a file or directory and compiles evaluators.
// Rules for another product or with aggregations are skipped and included in stats.
func NewSigmaFilter(path string) (*SigmaFilter, SigmaLoadStats, error) {
	var stats SigmaLoadStats

	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, stats, fmt.Errorf("resolve rule path: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, stats, fmt.Errorf("stat rule path: %w", err)
	}

	var files []string
	if info.IsDir() {
		err = filepath.WalkDir(resolved, func(filePath string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !entry.IsDir() && isYAMLFile(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, stats, fmt.Errorf("walk rule directory: %w", err)
		}
	} else {
		if !isYAMLFile(resolved) {
			return nil, stats, fmt.Errorf("rule file must end with .yml or .yaml: %s", resolved)
		}
		files = append(files, resolved)
	}

	stats.TotalFiles = len(files)
	compiled := make([]compiledSigmaRule, 0, len(files))
	for _, ruleFile := range files {
		rule, err := parseSigmaRuleFile(ruleFile)
		if err != nil {
			stats.SkippedInvalid++
			continue
		}
		if !isIFMapRule(rule) {
			stats.SkippedDatasource++
			continue
		}
		if !isSimpleRule(rule) {
			stats.SkippedComplex++
			continue
		}

		title := strings.TrimSpace(rule.Title)
		if title == "" {
			title = strings.TrimSpace(rule.ID)
		}
		compiled = append(compiled, compiledSigmaRule{
			title: title,
			eval:  sigmaevaluator.ForRule(rule),
		})
		stats.Loaded++
	}

	return &SigmaFilter{rules: compiled, ctx: context.Background()}, stats, nil
}

// Exclude reports the first rule matching rec.
func (f *SigmaFilter) Exclude(rec *models.RawRecord) (string, bool) {
	if f == nil || rec == nil || len(f.rules) == 0 {
		return "", false
	}

	event := sigmaEventFrom(rec)
	for _, rule := range f.rules {
		res, err := rule.eval.Matches(f.ctx, event)
		if err != nil {
			continue
		}
		if res.Match {
			return rule.title, true
		}
	}
	return "", false
}

func parseSigmaRuleFile(path string) (sigma.Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sigma.Rule{}, fmt.Errorf("read sigma rule %s: %w", path, err)
	}
	rule, err := sigma.ParseRule(raw)
	if err != nil {
		return sigma.Rule{}, fmt.Errorf("parse sigma rule %s: %w", path, err)
	}
	return rule, nil
}

func isYAMLFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

func isIFMapRule(rule sigma.Rule) bool {
	product := strings.ToLower(strings.TrimSpace(rule.Logsource.Product))
	return product == "" || product == Product
}

func isSimpleRule(rule sigma.Rule) bool {
	if rule.Detection.Timeframe > 0 {
		return false
	}
	for _, cond := range rule.Detection.Conditions {
		if cond.Aggregation != nil {
			return false
		}
	}
	for _, search := range rule.Detection.Searches {
		if len(search.Keywords) > 0 || len(search.EventMatchers) == 0 {
			return false
		}
	}
	return true
}

func sigmaEventFrom(rec *models.RawRecord) map[string]interface{} {
	buf := map[string]interface{}{
		"oper":     string(rec.Oper),
		"metadata": strings.Join(rec.MetadataNames(), " "),
	}
	if len(rec.Identities) > 0 {
		name := rec.Identities[0].Name
		buf["name"] = name
		if typ, fqName, ok := models.ParseIdentityName(name); ok {
			buf["type"] = typ
			buf["fq_name"] = models.JoinName(fqName)
		}
	}
	if rec.IsLink() {
		name := rec.Identities[1].Name
		buf["link_name"] = name
		if typ, _, ok := models.ParseIdentityName(name); ok {
			buf["link_type"] = typ
		}
	}
	return buf
}
