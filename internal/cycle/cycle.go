// Package cycle runs one screen analysis: capture, downscale, encode,
// classify the activity, ask for the cat's comment, then update the
// favorability, activity and message records.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/miaomiao/miaomiao/internal/activity"
	"github.com/miaomiao/miaomiao/internal/adapter"
	"github.com/miaomiao/miaomiao/internal/capture"
	"github.com/miaomiao/miaomiao/internal/favor"
	"github.com/miaomiao/miaomiao/internal/history"
	"github.com/miaomiao/miaomiao/internal/journal"
	"github.com/miaomiao/miaomiao/internal/prompt"
)

// Defaults for Options.
const (
	DefaultVisionTimeout      = 60 * time.Second
	DefaultCommentMaxTokens   = 300
	DefaultCommentTemperature = 0.8
	classifyMaxTokens         = 300
	classifyTemperature       = 0.1
)

// Result is what a cycle hands back to the presentation layer.
type Result struct {
	Text        string    `json:"text"`
	Delta       int       `json:"delta"`
	Outcome     Outcome   `json:"outcome"`
	Comment     string    `json:"comment,omitempty"`
	Score       int       `json:"score"`
	TierChanged bool      `json:"tier_changed"`
	At          time.Time `json:"at"`
}

// Journal persists a record of each cycle.
type Journal interface {
	Record(e journal.Entry) (string, error)
}

// Deps are the collaborators a cycle drives.
type Deps struct {
	Capturer capture.Capturer
	// Resizer may be nil to skip downscaling.
	Resizer  capture.Resizer
	Vision   adapter.VisionAdapter
	Tracker  *activity.Tracker
	Engine   *favor.Engine
	Guard    *history.Guard
	Composer *prompt.Composer
	// Journal may be nil.
	Journal Journal
	// Random picks the special response appended on a tier change.
	Random prompt.Random
	Logger *slog.Logger
}

// Options tune a cycle.
type Options struct {
	Model         string
	VisionTimeout time.Duration
	MaxTokens     int
	// Temperature of the comment request, used as given; 0 is valid.
	// Negative takes DefaultCommentTemperature.
	Temperature        float64
	DuplicateThreshold float64
	// SkipModelClassification goes straight to keyword classification.
	SkipModelClassification bool
}

// Orchestrator runs analysis cycles. A single Orchestrator must not run two
// cycles at once; pet.Pet enforces that.
type Orchestrator struct {
	deps Deps
	opts Options

	encode func(path string) (capture.Encoded, error)
	now    func() time.Time
}

// New returns an Orchestrator. Zero durations and token limits take the
// package defaults.
func New(deps Deps, opts Options) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.VisionTimeout <= 0 {
		opts.VisionTimeout = DefaultVisionTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultCommentMaxTokens
	}
	if opts.Temperature < 0 {
		opts.Temperature = DefaultCommentTemperature
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		encode: capture.Encode,
		now:    time.Now,
	}
}

// Run performs one cycle. It never fails: every error becomes a display
// string.
func (o *Orchestrator) Run(ctx context.Context) Result {
	started := o.now()
	entry := journal.Entry{StartedAt: started, Source: journal.SourceNone}

	res := o.run(ctx, &entry)
	res.At = started
	if res.Score == 0 && o.deps.Engine != nil {
		res.Score = o.deps.Engine.Score()
	}

	entry.Duration = o.now().Sub(started)
	entry.Outcome = string(res.Outcome)
	entry.DisplayText = res.Text
	entry.Comment = res.Comment
	entry.Delta = res.Delta
	entry.Score = res.Score
	entry.TierChanged = res.TierChanged
	if o.deps.Journal != nil {
		if _, err := o.deps.Journal.Record(entry); err != nil {
			o.deps.Logger.Warn("cycle: journal write failed", "err", err)
		}
	}

	o.deps.Logger.Info("cycle: done",
		"outcome", res.Outcome,
		"delta", res.Delta,
		"score", res.Score,
		"elapsed", entry.Duration.Round(time.Millisecond),
	)
	return res
}

func (o *Orchestrator) run(ctx context.Context, entry *journal.Entry) Result {
	log := o.deps.Logger

	path, err := o.deps.Capturer.Capture(ctx)
	if err != nil {
		log.Warn("cycle: capture failed", "err", err)
		entry.Error = err.Error()
		return Result{Text: textCaptureFailed, Outcome: OutcomeCaptureFailed}
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("cycle: remove screenshot", "path", path, "err", err)
		}
	}()

	if o.deps.Resizer != nil {
		if err := o.deps.Resizer.Resize(path, capture.MaxWidth, capture.MaxHeight); err != nil {
			log.Warn("cycle: resize failed, sending original", "err", err)
		}
	}

	img, err := o.encode(path)
	switch {
	case errors.Is(err, capture.ErrTooLarge):
		log.Warn("cycle: image too large", "bytes", img.EstimatedBytes())
		entry.Error = err.Error()
		return Result{Text: textTooLarge, Outcome: OutcomeTooLarge}
	case err != nil:
		log.Warn("cycle: encode failed", "err", err)
		entry.Error = err.Error()
		return Result{Text: textEncodeFailed, Outcome: OutcomeEncodeFailed}
	}

	classified := false
	if !o.opts.SkipModelClassification {
		if dist, raw, ok := o.classify(ctx, img); ok {
			o.deps.Tracker.RecordSample(dist, raw)
			entry.Source = journal.SourceModel
			entry.Distribution = dist
			classified = true
		}
	}

	comment, err := o.comment(ctx, img)
	if err != nil {
		log.Warn("cycle: comment request failed", "err", err)
		entry.Error = err.Error()
		res := o.commentFailure(err)
		if res.Delta != 0 {
			res.Score, res.TierChanged = o.deps.Engine.ApplyDelta(res.Delta, "timeout")
		}
		return res
	}

	if !classified {
		dist := activity.Classify(comment)
		o.deps.Tracker.RecordSample(dist, comment)
		entry.Source = journal.SourceKeyword
		entry.Distribution = dist
	}

	res := Result{Text: comment, Comment: comment, Outcome: OutcomeOK}
	if o.deps.Guard.IsNearDuplicate(comment, o.opts.DuplicateThreshold) {
		log.Info("cycle: near-duplicate comment replaced")
		res.Text = textThinking
		res.Outcome = OutcomeDuplicate
	} else if !hasErrorMarker(comment) {
		o.deps.Guard.Remember(comment)
	}

	delta, reason := o.deps.Engine.ScoreFromContext(comment)
	entry.Reason = reason
	res.Delta = delta
	res.Score, res.TierChanged = o.deps.Engine.ApplyDelta(delta, reason)
	if res.TierChanged {
		if lines := o.deps.Engine.SpecialResponses(); len(lines) > 0 && o.deps.Random != nil {
			res.Text += "\n" + lines[o.deps.Random.Intn(len(lines))]
		}
	}
	return res
}

// classify asks the model for a category distribution. ok is false when the
// request fails or the answer is unusable, which selects the keyword
// fallback.
func (o *Orchestrator) classify(ctx context.Context, img capture.Encoded) (activity.Distribution, string, bool) {
	log := o.deps.Logger
	req := adapter.VisionRequest{
		Instruction: prompt.ClassificationInstruction(),
		ImageBase64: img.Base64,
		MIMEType:    img.MIMEType,
		Model:       o.opts.Model,
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
	}
	if schema, err := prompt.ClassificationSchema(); err == nil {
		req.JSONSchema = schema
	} else {
		log.Debug("cycle: classification schema unavailable", "err", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.VisionTimeout)
	defer cancel()

	raw, err := o.deps.Vision.Describe(ctx, req)
	if err != nil {
		log.Warn("cycle: classification request failed", "err", err)
		return nil, "", false
	}
	dist, err := activity.ParseModelDistribution(raw)
	if err != nil {
		log.Warn("cycle: classification unparsable", "err", err)
		return nil, "", false
	}
	if dist.IsZero() {
		log.Warn("cycle: classification all zero")
		return nil, "", false
	}
	return dist, raw, true
}

func (o *Orchestrator) comment(ctx context.Context, img capture.Encoded) (string, error) {
	instruction := o.deps.Composer.ComposeInstruction(
		o.deps.Engine.MoodModifier(),
		o.deps.Engine.Score(),
		o.deps.Guard.Recent(prompt.MaxAvoidMessages),
	)

	ctx, cancel := context.WithTimeout(ctx, o.opts.VisionTimeout)
	defer cancel()

	text, err := o.deps.Vision.Describe(ctx, adapter.VisionRequest{
		Instruction: instruction,
		ImageBase64: img.Base64,
		MIMEType:    img.MIMEType,
		Model:       o.opts.Model,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", adapter.ErrEmptyResponse
	}
	return text, nil
}

// commentFailure maps a comment request error to its display string.
func (o *Orchestrator) commentFailure(err error) Result {
	var apiErr *adapter.APIError
	switch {
	case errors.Is(err, adapter.ErrMissingAPIKey):
		return Result{Text: textMissingKey, Outcome: OutcomeMissingKey}
	case adapter.IsPayloadTooLarge(err):
		return Result{Text: textTooLarge, Outcome: OutcomeTooLarge}
	case errors.Is(err, adapter.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		secs := int(o.opts.VisionTimeout.Round(time.Second) / time.Second)
		return Result{Text: fmt.Sprintf(textTimeout, secs), Delta: timeoutDelta, Outcome: OutcomeTimeout}
	case errors.Is(err, adapter.ErrRateLimit):
		return Result{Text: textRateLimited, Outcome: OutcomeRateLimited}
	case errors.As(err, &apiErr):
		return Result{Text: fmt.Sprintf(textAPIError, apiErr.Message), Outcome: OutcomeAPIError}
	case errors.Is(err, adapter.ErrEmptyResponse):
		return Result{Text: textEmpty, Outcome: OutcomeEmpty}
	}
	return Result{Text: textUnexpected, Outcome: OutcomeFailed}
}
