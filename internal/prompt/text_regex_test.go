package prompt

import (
	"regexp"
	"testing"
)

func TestAnchoredPatternRequiresFullMatch(t *testing.T) {
	pattern := regexp.MustCompile("^(?:" + `\d{3}` + ")$")
	if pattern.MatchString("1234") {
		t.Error("pattern should not match a 4-digit string when anchored to exactly 3 digits")
	}
	if !pattern.MatchString("123") {
		t.Error("pattern should match an exact 3-digit string")
	}
	if pattern.MatchString("abc123") {
		t.Error("anchored pattern should reject a matching suffix with a bad prefix")
	}
}
