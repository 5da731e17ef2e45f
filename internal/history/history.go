// Package history implements Component K: the operation log every public
// API call is pushed through, and synthesis of a replayable script from a
// contiguous slice of it, grounded on the original's Core::Logger /
// Core::HistoryModel (original_source/src/core/logger.{h,cpp}).
package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kdab-labs/knutgo/internal/settings"
)

// ArgType tags a logged parameter so LOG_AND_MERGE knows how to combine it
// with the same parameter of a preceding call of the same name.
type ArgType int

const (
	// ArgOpaque values are never merged; a merge leaves them unchanged.
	ArgOpaque ArgType = iota
	ArgInt
	ArgString
	ArgStringList
)

// Arg is one logged call parameter, pre-rendered to its script-literal form
// (mirrors Core::valueToString(value, /*escape=*/true)).
type Arg struct {
	Name  string
	Value string
	Type  ArgType
}

// IntArg logs an integer parameter; LOG_AND_MERGE sums it with the previous
// call's value of the same position.
func IntArg(name string, v int) Arg {
	return Arg{Name: name, Value: strconv.Itoa(v), Type: ArgInt}
}

// StringArg logs a string parameter; LOG_AND_MERGE concatenates it onto the
// previous call's value of the same position.
func StringArg(name, v string) Arg {
	return Arg{Name: name, Value: quoteString(v), Type: ArgString}
}

// StringListArg logs a string-list parameter; LOG_AND_MERGE unions it with
// the previous call's value of the same position.
func StringListArg(name string, v []string) Arg {
	return Arg{Name: name, Value: "{" + strings.Join(v, ", ") + "}", Type: ArgStringList}
}

// ValueArg logs any other parameter type. It is never merged.
func ValueArg(name string, v interface{}) Arg {
	return Arg{Name: name, Value: formatValue(v), Type: ArgOpaque}
}

func quoteString(v string) string {
	s := strings.ReplaceAll(v, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return quoteString(t)
	case []string:
		return "{" + strings.Join(t, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

// ReturnArg is the variable a call's result was bound to, if any.
type ReturnArg struct {
	Name  string
	Value interface{}
}

func (r ReturnArg) isEmpty() bool { return r.Name == "" }

// Record is one logged API call, pushed every time the outermost public
// call of an invocation chain returns (§4.K "{name, params[], return?}").
type Record struct {
	ID     string
	Name   string
	Params []Arg
	Return ReturnArg
}

// Logger is the operation log. It is safe for concurrent use; scripts never
// share a Document across threads, but the logger itself is shared state
// the history view and CLI dump both read.
type Logger struct {
	mu       sync.Mutex
	canLog   bool
	rows     []Record
	onChange []func()
}

// New returns an empty, enabled Logger.
func New() *Logger {
	return &Logger{canLog: true}
}

// Rows returns a snapshot of the current log.
func (l *Logger) Rows() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.rows))
	copy(out, l.rows)
	return out
}

// Clear empties the log.
func (l *Logger) Clear() {
	l.mu.Lock()
	l.rows = nil
	l.mu.Unlock()
	l.notify()
}

// OnChange registers fn to be called whenever a row is added, merged, or
// given a return value.
func (l *Logger) OnChange(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

func (l *Logger) notify() {
	l.mu.Lock()
	observers := append([]func(){}, l.onChange...)
	l.mu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// Call is an in-flight logged invocation, returned by Enter. It mirrors
// Core::LoggerObject: only the outermost Enter/Exit pair in a nested call
// chain actually records a row; nested Enter calls made while one is
// already open are no-ops (recorded == false) so their own callers'
// Return/Exit calls are safe but silently inert.
type Call struct {
	logger   *Logger
	recorded bool
}

// Enter opens a logged call. merge requests LOG_AND_MERGE semantics: if the
// previous row has the same name, args are combined into it by ArgType
// instead of appending a new row. Every Enter must be paired with a
// deferred Exit.
func (l *Logger) Enter(name string, merge bool, args ...Arg) *Call {
	l.mu.Lock()
	first := l.canLog
	if first {
		l.canLog = false
	}
	l.mu.Unlock()

	if first {
		l.addData(Record{ID: uuid.NewString(), Name: name, Params: args}, merge)
	}
	return &Call{logger: l, recorded: first}
}

// Return binds the call's result to name, for display and for script
// synthesis to reuse as a variable reference in later calls.
func (c *Call) Return(name string, value interface{}) {
	if !c.recorded {
		return
	}
	c.logger.mu.Lock()
	if n := len(c.logger.rows); n > 0 {
		c.logger.rows[n-1].Return = ReturnArg{Name: name, Value: value}
	}
	c.logger.mu.Unlock()
	c.logger.notify()
}

// Exit closes the call, re-enabling logging for the next top-level call.
func (c *Call) Exit() {
	if !c.recorded {
		return
	}
	c.logger.mu.Lock()
	c.logger.canLog = true
	c.logger.mu.Unlock()
}

// Disable suspends logging — including for nested Enter calls that would
// otherwise be the outermost one — until the returned func restores the
// prior state. Mirrors Core::LoggerDisabler's RAII scope.
func (l *Logger) Disable() func() {
	l.mu.Lock()
	original := l.canLog
	l.canLog = false
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.canLog = original
		l.mu.Unlock()
	}
}

func (l *Logger) addData(data Record, merge bool) {
	l.mu.Lock()
	n := len(l.rows)
	if !merge || n == 0 || l.rows[n-1].Name != data.Name {
		l.rows = append(l.rows, data)
		l.mu.Unlock()
		l.notify()
		return
	}

	last := &l.rows[n-1]
	for i := range data.Params {
		if i >= len(last.Params) {
			break
		}
		mergeParam(&last.Params[i], data.Params[i])
	}
	l.mu.Unlock()
	l.notify()
}

// mergeParam combines next onto last in place, by declared type. Unknown
// types are left as the first occurrence's value: a call logging an opaque
// argument simply isn't mergeable on that argument.
func mergeParam(last *Arg, next Arg) {
	switch next.Type {
	case ArgInt:
		a, _ := strconv.Atoi(last.Value)
		b, _ := strconv.Atoi(next.Value)
		last.Value = strconv.Itoa(a + b)
	case ArgString:
		if len(last.Value) >= 1 && len(next.Value) >= 1 {
			last.Value = last.Value[:len(last.Value)-1] + next.Value[1:]
		}
	case ArgStringList:
		if len(last.Value) >= 2 && len(next.Value) >= 2 {
			merged := last.Value[1 : len(last.Value)-1]
			seen := make(map[string]bool)
			for _, item := range strings.Split(merged, ", ") {
				seen[item] = true
			}
			for _, item := range strings.Split(next.Value[1:len(next.Value)-1], ", ") {
				if item != "" && !seen[item] {
					if merged != "" {
						merged += ", "
					}
					merged += item
					seen[item] = true
				}
			}
			last.Value = "{" + merged + "}"
		}
	}
}

// CreateScript synthesizes a replayable script from the inclusive row range
// [start, end] (out of order is tolerated, matching std::minmax in the
// original), indenting with the project's configured tab settings (§4.K
// create_script(start, end)).
func (l *Logger) CreateScript(s *settings.Settings, start, end int) (string, error) {
	l.mu.Lock()
	rows := make([]Record, len(l.rows))
	copy(rows, l.rows)
	l.mu.Unlock()

	if start > end {
		start, end = end, start
	}
	if start < 0 || end >= len(rows) {
		return "", fmt.Errorf("history: create script: range [%d,%d] out of %d rows", start, end, len(rows))
	}

	tab := "\t"
	if insertSpaces, err := s.Get("/text_editor/tab/insertSpaces"); err == nil {
		if enabled, ok := insertSpaces.(bool); ok && enabled {
			size := 4
			if raw, err := s.Get("/text_editor/tab/tabSize"); err == nil {
				if f, ok := raw.(float64); ok {
					size = int(f)
				}
			}
			tab = strings.Repeat(" ", size)
		}
	}

	var script strings.Builder
	script.WriteString("// Description of the script\n\nfunction main() {\n")

	returnVars := make(map[string]bool)

	for row := start; row <= end; row++ {
		rec := rows[row]
		apiCall := rec.Name

		if strings.Contains(rec.Name, "Document::") {
			if !returnVars["document"] {
				script.WriteString(tab + "var document = Project.currentDocument\n")
				returnVars["document"] = true
			}
			if idx := strings.Index(apiCall, "::"); idx >= 0 {
				apiCall = "document." + apiCall[idx+2:]
			}
		} else {
			apiCall = strings.ReplaceAll(apiCall, "::", ".")
		}

		returnValue := ""
		if !rec.Return.isEmpty() {
			name := rec.Return.Name
			if returnVars[name] {
				returnValue = name + " = "
			} else {
				returnValue = "var " + name + " = "
				returnVars[name] = true
			}
		}

		params := make([]string, 0, len(rec.Params))
		for _, p := range rec.Params {
			if p.Name != "" && returnVars[p.Name] {
				params = append(params, p.Name)
				continue
			}
			params = append(params, p.Value)
		}

		script.WriteString(fmt.Sprintf("%s%s%s(%s)\n", tab, returnValue, apiCall, strings.Join(params, ", ")))
	}

	script.WriteString("}\n")
	return script.String(), nil
}

// Run fires a tick on the returned channel every interval until ctx is done
// or the returned stop func is called, so an embedding UI can keep a
// progress indicator alive while a long script runs without the run itself
// being cancellable from the outside (§5 "Cancellation & timeouts": scripts
// are not cancellable from within; a periodic progress tick is fired from
// the logger to keep the UI responsive). The channel is buffered by one and
// a tick is dropped rather than blocking the ticker goroutine if the
// previous one hasn't been drained yet.
func (l *Logger) Run(ctx context.Context, interval time.Duration) (tick <-chan struct{}, stop func()) {
	ch := make(chan struct{}, 1)
	runCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, cancel
}
