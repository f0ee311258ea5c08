package cycle

import "strings"

// Outcome classifies how a cycle ended.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeCaptureFailed Outcome = "capture_failed"
	OutcomeEncodeFailed  Outcome = "encode_failed"
	OutcomeTooLarge      Outcome = "too_large"
	OutcomeTimeout       Outcome = "timeout"
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomeAPIError      Outcome = "api_error"
	OutcomeEmpty         Outcome = "empty_response"
	OutcomeMissingKey    Outcome = "missing_api_key"
	OutcomeFailed        Outcome = "failed"
)

// Failed reports whether the cycle produced no model comment.
func (o Outcome) Failed() bool {
	return o != OutcomeOK && o != OutcomeDuplicate
}

// Fixed display strings.
const (
	textCaptureFailed = "喵？（截图失败了欸...）"
	textEncodeFailed  = "喵？图片好像编码失败了..."
	textTooLarge      = "喵~ （图片还是太大了，API不喜欢...）"
	textTimeout       = "喵... （反应太慢了... Timeout! %ds）"
	textRateLimited   = "喵~ 让我歇会儿！（Rate Limit）"
	textAPIError      = "喵呜！API 出错了：%s"
	textEmpty         = "喵~ （API 好像没说话... 内容是空的。）"
	textMissingKey    = "喵？（主人没给我钥匙欸... API Key missing!）"
	textUnexpected    = "喵？！发生了一些奇怪的事情..."
	textThinking      = "喵~ （让我想想该说什么...）"
)

// timeoutDelta is applied to the score when the comment request times out.
const timeoutDelta = -1

// errorMarkers identify fallback strings that must never enter the
// message history.
var errorMarkers = []string{
	"截图失败",
	"编码失败",
	"API不喜欢",
	"Timeout!",
	"Rate Limit",
	"API 出错了",
	"内容是空的",
	"API Key missing",
	"奇怪的事情",
}

func hasErrorMarker(text string) bool {
	for _, m := range errorMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
