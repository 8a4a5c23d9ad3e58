package httpcache

import (
	"regexp"
)

// patterns matches a string against a list of regular expressions. A
// wildcard entry matches everything; an empty list matches nothing.
type patterns struct {
	all bool
	res []*regexp.Regexp
}

func compilePatterns(list []string) (patterns, error) {
	var p patterns
	for _, s := range list {
		if s == Wildcard {
			p.all = true
			continue
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return patterns{}, err
		}
		p.res = append(p.res, re)
	}
	return p, nil
}

func (p patterns) match(s string) bool {
	if p.all {
		return true
	}
	for _, re := range p.res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
