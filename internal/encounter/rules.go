package encounter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule unlocks locations when its condition holds after a win.
// Conditions see cleared, node, wins, alive and battles.
type Rule struct {
	When   string   `yaml:"when" json:"when"`
	Unlock []string `yaml:"unlock" json:"unlock"`
}

// Progress is the state rule conditions are evaluated against.
type Progress struct {
	Cleared int    // index of the node just cleared
	Node    string // id of the node just cleared
	Wins    int
	Alive   int
	Battles int
}

func (p Progress) env() map[string]any {
	return map[string]any{
		"cleared": p.Cleared,
		"node":    p.Node,
		"wins":    p.Wins,
		"alive":   p.Alive,
		"battles": p.Battles,
	}
}

type compiledRule struct {
	src     string
	unlock  []string
	program *vm.Program
}

// RuleSet holds rules compiled once at load time.
type RuleSet struct {
	rules []compiledRule
}

// CompileRules compiles every rule condition. Conditions must be boolean.
func CompileRules(rules []Rule) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	env := Progress{}.env()
	for i, r := range rules {
		if r.When == "" {
			return nil, fmt.Errorf("encounter: rule %d has no condition", i)
		}
		program, err := expr.Compile(r.When, expr.Env(env), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("encounter: invalid condition %q: %w", r.When, err)
		}
		rs.rules = append(rs.rules, compiledRule{src: r.When, unlock: r.Unlock, program: program})
	}
	return rs, nil
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Evaluate returns the locations unlocked by every rule that holds, in rule order.
func (rs *RuleSet) Evaluate(p Progress) ([]string, error) {
	if rs == nil {
		return nil, nil
	}
	env := p.env()
	var out []string
	for _, r := range rs.rules {
		res, err := expr.Run(r.program, env)
		if err != nil {
			return out, fmt.Errorf("encounter: condition %q: %w", r.src, err)
		}
		if ok, _ := res.(bool); ok {
			out = append(out, r.unlock...)
		}
	}
	return out, nil
}
