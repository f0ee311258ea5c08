package favor

import (
	"strings"
	"time"
)

const (
	staleAfter     = 3 * time.Hour
	frequentWithin = 5 * time.Minute
)

// triggers are checked in order; the first whose terms appear in the
// lowercased comment decides the base delta.
var triggers = []struct {
	terms  []string
	delta  int
	reason string
}{
	{[]string{"其他猫", "别的猫", "猫咪视频", "cat video"}, -3, "看其他猫咪"},
	{[]string{"猫粮", "猫玩具", "pet shop"}, 5, "为喵喵买东西"},
	{[]string{"深夜", "凌晨"}, 2, "深夜陪伴"},
	{[]string{"代码", "programming", "coding"}, 1, "一起工作"},
	{[]string{"动漫", "anime", "动画"}, 3, "一起看动漫"},
	{[]string{"游戏", "game"}, 2, "一起玩游戏"},
}

func matchTrigger(text string) (int, string) {
	lower := strings.ToLower(text)
	for _, tr := range triggers {
		for _, term := range tr.terms {
			if strings.Contains(lower, term) {
				return tr.delta, tr.reason
			}
		}
	}
	return 0, ""
}

// recencyAdjust scores the gap since the last interaction.
func recencyAdjust(since time.Duration) (int, string) {
	switch {
	case since > staleAfter:
		return -2, " (太久没互动)"
	case since < frequentWithin:
		return 1, " (频繁互动)"
	}
	return 0, ""
}
