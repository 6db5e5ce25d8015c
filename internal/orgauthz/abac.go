package orgauthz

import (
	"sort"
	"strings"

	"github.com/cedros/core/internal/store"
)

// AttributeBag is the merged attribute set a condition tree is evaluated
// against: {user.id, user.role, org.id} plus caller-supplied resource and
// environment attributes (spec §4.5).
type AttributeBag map[string]interface{}

// Evaluate walks the org's policies in priority order and returns the
// decision for (principal, action). Deny wins ties at equal priority; if
// no policy matches, the caller must fall back to RBAC (spec §4.5).
//
// Evaluate sorts policies highest-priority-first in place before walking
// them, so callers may pass them in any order.
func Evaluate(policies []*store.Policy, principal string, action string, bag AttributeBag) (matched bool, allow bool) {
	sortPoliciesByPriority(policies)
	i := 0
	for i < len(policies) {
		band := policies[i].Priority
		var denyMatched, allowMatched bool
		for i < len(policies) && policies[i].Priority == band {
			p := policies[i]
			i++
			if !matchesPrincipal(p.Principals, principal, bag) || !matchesAction(p.Actions, action) {
				continue
			}
			if !evaluateCondition(p.Condition, bag) {
				continue
			}
			if p.Effect == store.EffectDeny {
				denyMatched = true
			} else {
				allowMatched = true
			}
		}
		if denyMatched {
			return true, false
		}
		if allowMatched {
			return true, true
		}
	}
	return false, false
}

func matchesPrincipal(principals []string, principal string, bag AttributeBag) bool {
	if len(principals) == 0 {
		return true
	}
	role, _ := bag["user.role"].(string)
	for _, p := range principals {
		if p == principal || p == role || p == "*" {
			return true
		}
	}
	return false
}

func matchesAction(actions []string, action string) bool {
	if len(actions) == 0 {
		return true
	}
	for _, a := range actions {
		if a == action || a == "*" {
			return true
		}
	}
	return false
}

// evaluateCondition recursively evaluates a ConditionNode's
// eq/ne/in/contains/startsWith/and/or/not operators over bag[path].
func evaluateCondition(node store.ConditionNode, bag AttributeBag) bool {
	switch node.Op {
	case "", "*":
		return true
	case "and":
		for _, c := range node.Children {
			if !evaluateCondition(c, bag) {
				return false
			}
		}
		return true
	case "or":
		for _, c := range node.Children {
			if evaluateCondition(c, bag) {
				return true
			}
		}
		return false
	case "not":
		if len(node.Children) != 1 {
			return false
		}
		return !evaluateCondition(node.Children[0], bag)
	case "eq":
		return equalValue(bag[node.Path], node.Value)
	case "ne":
		return !equalValue(bag[node.Path], node.Value)
	case "in":
		return containsValue(node.Value, bag[node.Path])
	case "contains":
		return stringContains(bag[node.Path], node.Value)
	case "startsWith":
		return stringStartsWith(bag[node.Path], node.Value)
	default:
		return false
	}
}

func equalValue(a, b interface{}) bool {
	return toComparable(a) == toComparable(b)
}

func toComparable(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

func containsValue(list interface{}, needle interface{}) bool {
	items, ok := list.([]interface{})
	if !ok {
		return false
	}
	for _, item := range items {
		if equalValue(item, needle) {
			return true
		}
	}
	return false
}

func stringContains(haystack interface{}, needle interface{}) bool {
	h, ok1 := haystack.(string)
	n, ok2 := needle.(string)
	return ok1 && ok2 && strings.Contains(h, n)
}

func stringStartsWith(haystack interface{}, prefix interface{}) bool {
	h, ok1 := haystack.(string)
	p, ok2 := prefix.(string)
	return ok1 && ok2 && strings.HasPrefix(h, p)
}

// sortPoliciesByPriority is a defensive re-sort for callers that did not
// go through the repository's ordered listing.
func sortPoliciesByPriority(policies []*store.Policy) {
	sort.Slice(policies, func(i, j int) bool { return policies[i].Priority > policies[j].Priority })
}
