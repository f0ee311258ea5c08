package prompt

import (
	"sync"

	"github.com/miaomiao/miaomiao/internal/adapter"
)

// categoryScores is the response shape of the classification request. The
// tags must match activity.Categories.
type categoryScores struct {
	Work     float64 `json:"工作编程" jsonschema:"required,minimum=0,maximum=100"`
	Leisure  float64 `json:"娱乐休闲" jsonschema:"required,minimum=0,maximum=100"`
	Social   float64 `json:"社交聊天" jsonschema:"required,minimum=0,maximum=100"`
	Learning float64 `json:"学习研究" jsonschema:"required,minimum=0,maximum=100"`
	Creative float64 `json:"创作设计" jsonschema:"required,minimum=0,maximum=100"`
	System   float64 `json:"系统管理" jsonschema:"required,minimum=0,maximum=100"`
	Browsing float64 `json:"网页浏览" jsonschema:"required,minimum=0,maximum=100"`
	Video    float64 `json:"视频媒体" jsonschema:"required,minimum=0,maximum=100"`
	Gaming   float64 `json:"游戏" jsonschema:"required,minimum=0,maximum=100"`
	Other    float64 `json:"其他" jsonschema:"required,minimum=0,maximum=100"`
}

var (
	schemaOnce sync.Once
	schema     map[string]any
	schemaErr  error
)

// ClassificationSchema returns the JSON Schema for the classification
// response.
func ClassificationSchema() (map[string]any, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = adapter.GenerateSchema[categoryScores]()
	})
	return schema, schemaErr
}
