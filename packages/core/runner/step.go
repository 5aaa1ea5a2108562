package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/scenarist/packages/assertions"
	"github.com/abdul-hamid-achik/scenarist/packages/core/directive"
	"github.com/abdul-hamid-achik/scenarist/packages/core/env"
	"github.com/abdul-hamid-achik/scenarist/packages/core/scenario"
	"github.com/abdul-hamid-achik/scenarist/packages/http"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

// urlToken is the variable whose value carries the protocol; a literal
// protocol in a raw URL using it is dropped.
const urlToken = "{{url}}"

var protocolPattern = regexp.MustCompile(`https?://`)

var supportedMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"OPTIONS": true,
}

// auditedMethods are the methods whose calls are counted. OPTIONS steps are
// control steps and are not.
var auditedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
	"PATCH":  true,
}

// Session is the execution state of one document.
type Session struct {
	Document    *scenario.Document
	Scope       *env.Scope
	Resolver    *env.Resolver
	Interpreter *directive.Interpreter
	Validator   *assertions.Validator
	Logger      *slog.Logger

	baseDir string
	last    *http.Response
}

// Last returns the most recent response of the session, or nil.
func (s *Session) Last() *http.Response {
	return s.last
}

// RunStep runs one step: pre-request directives, request preparation, send,
// validation, post-request directives. Errors fail the step only.
func (r *Runner) RunStep(ctx context.Context, s *Session, step *scenario.Step) *StepResult {
	result := &StepResult{Index: step.Index, Name: step.Name, Method: step.Method()}
	logger := s.Logger.With("step", step.Index, "name", step.Name)

	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		r.run.Recorder.RecordStep(s.Document.Path, step.Name, result.Duration)
	}()

	pre, err := step.PreRequestDirectives()
	if err != nil {
		return finish(result, err, false, logger)
	}
	post, err := step.PostRequestDirectives()
	if err != nil {
		return finish(result, err, false, logger)
	}

	logger.Info("processing pre-request directives", "count", len(pre))
	outcome, err := s.Interpreter.Run(directive.PreRequest, pre, nil)
	if err != nil {
		return finish(result, err, false, logger)
	}
	if outcome.Skipped {
		result.Status = StatusSkipped
		result.SkipReason = outcome.SkipReason
		logger.Info("step skipped", "reason", outcome.SkipReason)
		return result
	}
	result.XFailReason = outcome.XFailReason

	err = r.execute(ctx, s, step, pre, post, result, logger)
	return finish(result, err, outcome.ExpectedFailure, logger)
}

func (r *Runner) execute(ctx context.Context, s *Session, step *scenario.Step, pre, post []markup.Directive, result *StepResult, logger *slog.Logger) error {
	method := step.Method()
	if !supportedMethods[method] {
		return fmt.Errorf("%w: %q", ErrMethodNotSupported, method)
	}

	req, err := s.buildRequest(step)
	if err != nil {
		return err
	}
	result.Request = req
	result.URL = req.BuildURL()

	logger.Info("submitting request", "method", method, "url", result.URL)
	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	result.Response = resp
	s.last = resp
	logger.Debug("response received", "code", resp.StatusCode, "reason", resp.Reason, "body", resp.BodyString())

	if auditedMethods[method] {
		r.run.Recorder.RecordCall(method, req.URL)
	}

	mode := directive.PartialMode(pre)
	if err := s.Validator.Validate(expectedResponses(step), resp, mode); err != nil {
		return err
	}

	if r.config.Record {
		step.Responses = []scenario.ExpectedResponse{recordResponse(resp, r.config.ExcludedProperties)}
	}

	logger.Info("processing post-request directives", "count", len(post))
	if _, err := s.Interpreter.Run(directive.PostRequest, post, resp); err != nil {
		return err
	}
	return nil
}

func finish(result *StepResult, err error, xfail bool, logger *slog.Logger) *StepResult {
	switch {
	case err == nil && xfail:
		result.Status = StatusXPass
		logger.Warn("expected failure passed", "reason", result.XFailReason)
	case err == nil:
		result.Status = StatusPassed
		logger.Info("step passed")
	case xfail:
		result.Status = StatusXFail
		result.Error = err
		logger.Info("step failed as expected", "reason", result.XFailReason, "error", err)
	default:
		result.Status = StatusFailed
		result.Error = err
		logger.Error("step failed", "error", err)
	}
	return result
}

// buildRequest resolves the step's URL, query, headers and body.
func (s *Session) buildRequest(step *scenario.Step) (*http.Request, error) {
	if step.Request == nil || step.Request.URL == nil || strings.TrimSpace(step.Request.URL.Raw) == "" {
		return nil, &scenario.FieldError{Step: step.Name, Field: "url"}
	}

	raw := step.Request.URL.Raw
	if slices.Contains(env.Tokens(raw), urlToken) {
		raw = protocolPattern.ReplaceAllString(raw, "")
	}
	target, err := s.Resolver.Resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("resolving url: %w", err)
	}

	req := http.NewRequest(step.Method(), target)
	req.BaseDir = s.baseDir

	for _, q := range step.Request.URL.Query {
		if q.Disabled {
			continue
		}
		value, err := s.Resolver.Resolve(q.Value)
		if err != nil {
			return nil, fmt.Errorf("resolving query %s: %w", q.Key, err)
		}
		req.AddQueryParam(q.Key, value)
	}

	for _, h := range step.Request.Header {
		if h.Disabled {
			continue
		}
		value, err := s.Resolver.Resolve(h.Value)
		if err != nil {
			return nil, fmt.Errorf("resolving header %s: %w", h.Key, err)
		}
		req.SetHeader(h.Key, value)
	}

	if err := s.buildBody(req, step.Request.Body); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Session) buildBody(req *http.Request, body *scenario.Body) error {
	if body == nil {
		return nil
	}

	switch body.EffectiveMode() {
	case scenario.BodyModeRaw:
		resolved, err := s.Resolver.Resolve(body.Raw)
		if err != nil {
			return fmt.Errorf("resolving body: %w", err)
		}
		req.SetBody(resolved)

	case scenario.BodyModeURLEncoded:
		for _, kv := range body.URLEncoded {
			if kv.Disabled {
				continue
			}
			value, err := s.Resolver.Resolve(kv.Value)
			if err != nil {
				return fmt.Errorf("resolving form field %s: %w", kv.Key, err)
			}
			req.Form = append(req.Form, http.KeyValue{Key: kv.Key, Value: value})
		}

	case scenario.BodyModeFormData:
		for _, f := range body.FormData {
			if f.Disabled {
				continue
			}
			if f.Type == scenario.FormFieldFile {
				path, err := s.Resolver.Resolve(f.Src.First())
				if err != nil {
					return fmt.Errorf("resolving file field %s: %w", f.Key, err)
				}
				req.Multipart = append(req.Multipart, http.MultipartField{Name: f.Key, Path: path, File: true})
				continue
			}
			value, err := s.Resolver.Resolve(f.Value)
			if err != nil {
				return fmt.Errorf("resolving form field %s: %w", f.Key, err)
			}
			req.Multipart = append(req.Multipart, http.MultipartField{Name: f.Key, Value: value})
		}
	}
	return nil
}

func expectedResponses(step *scenario.Step) []assertions.Expected {
	out := make([]assertions.Expected, 0, len(step.Responses))
	for _, r := range step.Responses {
		out = append(out, assertions.Expected{Code: r.Code, Status: r.Status, Body: r.Body})
	}
	return out
}

// recordResponse converts an actual response into an expected one. For a
// 200 JSON object body the excluded top-level members are dropped.
func recordResponse(resp *http.Response, excluded []string) scenario.ExpectedResponse {
	code := resp.StatusCode
	status := resp.Reason
	body := resp.BodyString()

	if code == 200 && len(excluded) > 0 && body != "" {
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(resp.Body))
		dec.UseNumber()
		if err := dec.Decode(&obj); err == nil {
			for _, name := range excluded {
				delete(obj, name)
			}
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(obj); err == nil {
				body = strings.TrimSuffix(buf.String(), "\n")
			}
		}
	}

	return scenario.ExpectedResponse{Code: &code, Status: &status, Body: &body}
}
