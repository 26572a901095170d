// Package intercept decides whether a pending tool call may run.
package intercept

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/envguard/internal/audit"
	"github.com/ppiankov/envguard/internal/denylist"
	"github.com/ppiankov/envguard/internal/model"
)

// FailMode selects the outcome when evaluation itself breaks.
type FailMode string

const (
	FailOpen   FailMode = "open"
	FailClosed FailMode = "closed"
)

// Valid reports whether m is a known fail mode.
func (m FailMode) Valid() bool {
	return m == FailOpen || m == FailClosed
}

// ReasonEvaluationError is recorded when a rule or the classifier panics.
const ReasonEvaluationError = "evaluation error"

// Config holds everything an Interceptor needs. Zero values select defaults:
// built-in rules, no audit, fail-open, wall clock, discarded logs.
type Config struct {
	Rules    *denylist.Denylist
	Sink     audit.Sink
	FailMode FailMode
	Now      func() time.Time
	Logger   *slog.Logger
}

type classifier func(req model.ToolRequest, faults *[]string) model.Decision

// Interceptor classifies tool calls against a fixed rule set. It holds no
// mutable state, so one instance may serve concurrent evaluations.
type Interceptor struct {
	rules    *denylist.Denylist
	sink     audit.Sink
	failMode FailMode
	now      func() time.Time
	logger   *slog.Logger
	tools    map[string]classifier
}

// New builds an Interceptor. Rules that failed to compile are logged once here.
func New(cfg Config) *Interceptor {
	ic := &Interceptor{
		rules:    cfg.Rules,
		sink:     cfg.Sink,
		failMode: cfg.FailMode,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
	if ic.rules == nil {
		ic.rules = denylist.NewDefault()
	}
	if ic.sink == nil {
		ic.sink = audit.Nop{}
	}
	if !ic.failMode.Valid() {
		ic.failMode = FailOpen
	}
	if ic.now == nil {
		ic.now = time.Now
	}
	if ic.logger == nil {
		ic.logger = slog.New(slog.DiscardHandler)
	}

	ic.tools = map[string]classifier{
		model.ToolBash: ic.classifyBash,
		model.ToolRead: ic.classifyRead,
		model.ToolGrep: ic.classifyGrep,
	}

	for _, f := range ic.rules.Faults() {
		ic.logger.Warn("rule skipped", "index", f.Index, "pattern", f.Pattern, "error", f.Err)
	}
	return ic
}

// Rules returns the rule set in use.
func (ic *Interceptor) Rules() *denylist.Denylist {
	return ic.rules
}

// FailMode returns the effective fail mode.
func (ic *Interceptor) FailMode() FailMode {
	return ic.failMode
}

// Evaluate classifies req and appends an audit record for every block and
// every isolated evaluation fault. Audit failures never change the decision.
func (ic *Interceptor) Evaluate(req model.ToolRequest) model.Decision {
	d, faults := ic.classify(req)

	for _, f := range faults {
		ic.record(audit.KindError, req, ReasonEvaluationError, f)
	}
	if d.Blocked() {
		ic.record(audit.KindBlocked, req, d.Reason, d.Detail)
	}

	ic.logger.Debug("tool call evaluated",
		"tool", req.ToolName,
		"decision", d.Outcome,
		"reason", d.Reason,
	)
	return d
}

// Classify returns the decision for req without touching the audit sink.
func (ic *Interceptor) Classify(req model.ToolRequest) model.Decision {
	d, _ := ic.classify(req)
	return d
}

func (ic *Interceptor) classify(req model.ToolRequest) (d model.Decision, faults []string) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("classifier panicked: %v", r)
			ic.logger.Error("evaluation failed", "tool", req.ToolName, "error", msg, "fail_mode", ic.failMode)
			if ic.failMode == FailClosed {
				d = model.BlockDecision(ReasonEvaluationError, msg)
				return
			}
			d = model.AllowDecision()
			faults = append(faults, msg)
		}
	}()

	fn, ok := ic.tools[req.ToolName]
	if !ok {
		return model.AllowDecision(), nil
	}
	d = fn(req, &faults)
	return d, faults
}

func (ic *Interceptor) classifyBash(req model.ToolRequest, faults *[]string) model.Decision {
	cmd := req.Param("command")
	if cmd == "" {
		return model.AllowDecision()
	}

	for i, rule := range ic.rules.Commands() {
		_, ok, err := matchRule(rule, cmd)
		if err != nil {
			*faults = append(*faults, fmt.Sprintf("rule %d (%s): %v", i, rule.Reason, err))
			continue
		}
		if ok {
			return model.BlockDecision(rule.Reason, cmd)
		}
	}
	return model.AllowDecision()
}

func (ic *Interceptor) classifyRead(req model.ToolRequest, _ *[]string) model.Decision {
	p := req.Param("file_path")
	if p == "" {
		return model.AllowDecision()
	}
	if name, ok := ic.rules.CredentialPath(p); ok {
		return model.BlockDecision(fmt.Sprintf(".env file read blocked (%s)", name), p)
	}
	return model.AllowDecision()
}

func (ic *Interceptor) classifyGrep(req model.ToolRequest, _ *[]string) model.Decision {
	if p := req.Param("path"); p != "" {
		if name, ok := ic.rules.CredentialPath(p); ok {
			return model.BlockDecision(fmt.Sprintf(".env file grep blocked (%s)", name), p)
		}
	}
	if g := req.Param("glob"); g != "" {
		if name, ok := ic.rules.CredentialGlob(g); ok {
			return model.BlockDecision(fmt.Sprintf(".env file grep blocked (%s)", name), g)
		}
	}
	return model.AllowDecision()
}

// matchRule runs one rule, converting a panic into an error so that a single
// broken matcher cannot take the others down.
func matchRule(rule denylist.Rule, s string) (frag string, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			frag, ok, err = "", false, fmt.Errorf("panic: %v", r)
		}
	}()
	if rule.Matcher == nil {
		return "", false, fmt.Errorf("rule has no matcher")
	}
	frag, ok = rule.Matcher.Match(s)
	return frag, ok, nil
}

func (ic *Interceptor) record(kind audit.Kind, req model.ToolRequest, reason, detail string) {
	rec := audit.Record{
		Time:      ic.now(),
		Kind:      kind,
		SessionID: req.SessionID,
		Tool:      req.ToolName,
		Reason:    reason,
		Detail:    detail,
	}
	if err := safeAppend(ic.sink, rec); err != nil {
		ic.logger.Debug("audit append failed", "error", err)
	}
}

func safeAppend(sink audit.Sink, rec audit.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audit sink panicked: %v", r)
		}
	}()
	return sink.Append(rec)
}
