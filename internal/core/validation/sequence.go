package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/plcscope/plcscope/internal/core/model"
	"github.com/plcscope/plcscope/internal/core/waveform"
)

type sequenceStatus int

const (
	statusInProgress sequenceStatus = iota
	statusCompleted
	statusViolated
	statusTimeout
)

type stepKey struct {
	number int
	signal string
}

// sequenceInstance tracks one in-flight run of a sequence on a device.
type sequenceInstance struct {
	sequenceID    string
	deviceID      string
	status        sequenceStatus
	currentStep   int
	completed     map[stepKey]struct{}
	stepStart     time.Time
	sequenceStart time.Time
}

type signalChange struct {
	timestamp time.Time
	signal    string
	value     model.Value
}

// SequenceValidator checks that signals follow an ordered sequence.
// Steps sharing a step number may complete in any order; each step
// group may carry a timeout measured from the previous group.
type SequenceValidator struct{}

func NewSequenceValidator() *SequenceValidator {
	return &SequenceValidator{}
}

// Validate runs the sequence pattern over one device's signals. Each
// call tracks its own sequence instances; runs on different devices
// never see each other's state.
func (v *SequenceValidator) Validate(deviceID string, signals map[string]*waveform.Signal, pattern Pattern) []Violation {
	steps := parseSteps(pattern.Sequence)
	if len(steps) == 0 {
		return nil
	}

	byNumber, numbers := groupSteps(steps)
	changes := chronologicalChanges(signals)

	run := &sequenceRun{
		deviceID:   deviceID,
		sequenceID: pattern.ID,
		pattern:    pattern,
		byNumber:   byNumber,
		numbers:    numbers,
	}

	var violations []Violation
	for _, change := range changes {
		violations = append(violations, run.process(change)...)
	}
	violations = append(violations, run.incomplete()...)
	return violations
}

// sequenceRun is the per-call state of one Validate invocation.
type sequenceRun struct {
	deviceID   string
	sequenceID string
	pattern    Pattern
	byNumber   map[int][]StepConfig
	numbers    []int
	instance   *sequenceInstance
}

func (r *sequenceRun) process(change signalChange) []Violation {
	firstSteps := r.byNumber[r.numbers[0]]

	if r.instance == nil {
		if matchesAnyStep(change, firstSteps) {
			r.start(change)
		}
		return nil
	}

	if r.instance.status == statusCompleted || r.instance.status == statusViolated {
		// A change matching the first step group starts a fresh run.
		if matchesAnyStep(change, firstSteps) {
			r.start(change)
		}
		return nil
	}

	currentSteps := r.byNumber[r.instance.currentStep]

	// Timeout is checked before matching, so a late arrival of the
	// expected change still reports the overrun.
	if violation, timedOut := r.checkTimeout(change, currentSteps); timedOut {
		return []Violation{violation}
	}

	if step, ok := findMatchingStep(change, currentSteps); ok {
		key := stepKey{number: r.instance.currentStep, signal: step.Signal}
		if _, done := r.instance.completed[key]; done {
			// Same signal matched the step again; nothing new.
			return nil
		}
		r.instance.completed[key] = struct{}{}
		return r.advanceIfComplete(change.timestamp, currentSteps)
	}

	if r.pattern.Options.AllowIntermediateChanges {
		return nil
	}

	// With intermediate changes disallowed, a change matching a future
	// step group means the sequence ran out of order.
	for _, num := range r.numbers {
		if num <= r.instance.currentStep {
			continue
		}
		if matchesAnyStep(change, r.byNumber[num]) {
			return r.outOfOrder(change, currentSteps)
		}
	}
	return nil
}

func (r *sequenceRun) start(change signalChange) {
	first := r.numbers[0]
	r.instance = &sequenceInstance{
		sequenceID:    r.sequenceID,
		deviceID:      r.deviceID,
		status:        statusInProgress,
		currentStep:   first,
		completed:     map[stepKey]struct{}{{number: first, signal: change.signal}: {}},
		stepStart:     change.timestamp,
		sequenceStart: change.timestamp,
	}
	// A single-signal first group may already be satisfied.
	r.advanceIfComplete(change.timestamp, r.byNumber[first])
}

// advanceIfComplete moves to the next step group once every step of the
// current group is done, completing the sequence after the last group.
func (r *sequenceRun) advanceIfComplete(timestamp time.Time, currentSteps []StepConfig) []Violation {
	for _, step := range currentSteps {
		if _, done := r.instance.completed[stepKey{number: r.instance.currentStep, signal: step.Signal}]; !done {
			return nil
		}
	}

	idx := sort.SearchInts(r.numbers, r.instance.currentStep)
	if idx+1 < len(r.numbers) {
		r.instance.currentStep = r.numbers[idx+1]
		r.instance.stepStart = timestamp
		return nil
	}

	r.instance.status = statusCompleted
	if !r.pattern.OnComplete.LogSuccess {
		return nil
	}
	duration := timestamp.Sub(r.instance.sequenceStart).Seconds()
	message := r.pattern.OnComplete.Message
	if message == "" {
		message = fmt.Sprintf("Sequence completed in %.1fs", duration)
	}
	return []Violation{{
		DeviceID:   r.deviceID,
		SignalName: "SEQUENCE_COMPLETE",
		Timestamp:  timestamp,
		Severity:   SeverityInfo,
		RuleName:   r.sequenceID,
		Message:    message,
		Context:    map[string]any{"sequence_id": r.sequenceID, "duration": duration},
	}}
}

func (r *sequenceRun) checkTimeout(change signalChange, currentSteps []StepConfig) (Violation, bool) {
	var maxTimeout *float64
	for _, step := range currentSteps {
		if step.Timeout != nil && (maxTimeout == nil || *step.Timeout > *maxTimeout) {
			maxTimeout = step.Timeout
		}
	}
	if maxTimeout == nil {
		return Violation{}, false
	}

	elapsed := change.timestamp.Sub(r.instance.stepStart).Seconds()
	if elapsed <= *maxTimeout {
		return Violation{}, false
	}

	pending := r.pendingSteps(currentSteps)
	signalName := "unknown"
	if len(pending) > 0 {
		signalName = pending[0].Signal
	}

	expected := make([]string, len(pending))
	for i, step := range pending {
		expected[i] = fmt.Sprintf("%s=%v", step.Signal, step.Value)
	}

	violation := Violation{
		DeviceID:   r.deviceID,
		SignalName: signalName,
		Timestamp:  change.timestamp,
		Severity:   r.pattern.severity(),
		RuleName:   fmt.Sprintf("%s: Step %d", r.sequenceID, r.instance.currentStep),
		Message: fmt.Sprintf("Sequence timeout: Expected step %d to complete within %gs, but %.1fs elapsed",
			r.instance.currentStep, *maxTimeout, elapsed),
		Expected: strings.Join(expected, ", "),
		Actual:   fmt.Sprintf("No change for %.1fs", elapsed),
		Context: map[string]any{
			"sequence_id": r.sequenceID,
			"step":        r.instance.currentStep,
			"elapsed":     elapsed,
		},
	}

	r.instance.status = statusTimeout
	if r.pattern.Options.resetOnTimeout() {
		r.instance = nil
	}
	return violation, true
}

func (r *sequenceRun) outOfOrder(change signalChange, currentSteps []StepConfig) []Violation {
	message := r.pattern.OnViolation.Message
	if message == "" {
		message = "Sequence violated: step out of order"
	}

	violation := Violation{
		DeviceID:   r.deviceID,
		SignalName: change.signal,
		Timestamp:  change.timestamp,
		Severity:   r.pattern.severity(),
		RuleName:   fmt.Sprintf("%s: Step %d", r.sequenceID, r.instance.currentStep),
		Message:    message,
		Expected:   r.formatExpected(currentSteps),
		Actual:     fmt.Sprintf("%s = %s", change.signal, change.value.String()),
		Context: map[string]any{
			"sequence_id":   r.sequenceID,
			"expected_step": r.instance.currentStep,
		},
	}

	r.instance.status = statusViolated
	if r.pattern.OnViolation.resetOnError() {
		r.instance = nil
	}
	return []Violation{violation}
}

func (r *sequenceRun) incomplete() []Violation {
	if r.instance == nil || r.instance.status != statusInProgress {
		return nil
	}
	return []Violation{{
		DeviceID:   r.instance.deviceID,
		SignalName: "SEQUENCE_INCOMPLETE",
		Timestamp:  r.instance.stepStart,
		Severity:   r.pattern.Options.partialMatchSeverity(),
		RuleName:   r.instance.sequenceID,
		Message:    fmt.Sprintf("Sequence started but never completed (reached step %d)", r.instance.currentStep),
		Context: map[string]any{
			"sequence_id":  r.instance.sequenceID,
			"current_step": r.instance.currentStep,
			"started_at":   r.instance.sequenceStart.Format(time.RFC3339),
		},
	}}
}

func (r *sequenceRun) pendingSteps(steps []StepConfig) []StepConfig {
	var pending []StepConfig
	for _, step := range steps {
		if _, done := r.instance.completed[stepKey{number: r.instance.currentStep, signal: step.Signal}]; !done {
			pending = append(pending, step)
		}
	}
	return pending
}

func (r *sequenceRun) formatExpected(steps []StepConfig) string {
	pending := r.pendingSteps(steps)
	if len(pending) == 0 {
		return "All steps complete"
	}
	parts := make([]string, len(pending))
	for i, step := range pending {
		parts[i] = fmt.Sprintf("%s %s %v", step.Signal, step.operator(), step.Value)
	}
	return strings.Join(parts, ", ")
}

func (s StepConfig) operator() string {
	if s.Operator == "" {
		return "=="
	}
	return s.Operator
}

// parseSteps orders the configured steps by number, then signal, so
// grouping and reporting are deterministic.
func parseSteps(configs []StepConfig) []StepConfig {
	steps := make([]StepConfig, len(configs))
	copy(steps, configs)
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].Step != steps[j].Step {
			return steps[i].Step < steps[j].Step
		}
		return steps[i].Signal < steps[j].Signal
	})
	return steps
}

func groupSteps(steps []StepConfig) (map[int][]StepConfig, []int) {
	grouped := make(map[int][]StepConfig)
	for _, step := range steps {
		grouped[step.Step] = append(grouped[step.Step], step)
	}
	numbers := make([]int, 0, len(grouped))
	for num := range grouped {
		numbers = append(numbers, num)
	}
	sort.Ints(numbers)
	return grouped, numbers
}

// chronologicalChanges flattens the state starts of all signals into a
// single time-ordered list. Simultaneous changes order by signal name.
func chronologicalChanges(signals map[string]*waveform.Signal) []signalChange {
	var changes []signalChange
	for name, signal := range signals {
		for _, state := range signal.States {
			changes = append(changes, signalChange{
				timestamp: state.Start,
				signal:    name,
				value:     state.Value,
			})
		}
	}
	sort.SliceStable(changes, func(i, j int) bool {
		if !changes[i].timestamp.Equal(changes[j].timestamp) {
			return changes[i].timestamp.Before(changes[j].timestamp)
		}
		return changes[i].signal < changes[j].signal
	})
	return changes
}

func matchesAnyStep(change signalChange, steps []StepConfig) bool {
	for _, step := range steps {
		if matchesStep(change, step) {
			return true
		}
	}
	return false
}

func findMatchingStep(change signalChange, steps []StepConfig) (StepConfig, bool) {
	for _, step := range steps {
		if matchesStep(change, step) {
			return step, true
		}
	}
	return StepConfig{}, false
}

func matchesStep(change signalChange, step StepConfig) bool {
	if change.signal != step.Signal {
		return false
	}
	return compareValue(change.value, step.operator(), step.Value)
}

// compareValue evaluates a rule operator between a signal value and the
// expected value from YAML. Type mismatches compare false rather than
// erroring, matching how rules behave on mixed logs.
func compareValue(actual model.Value, operator string, expected any) bool {
	switch operator {
	case "==":
		return valueEquals(actual, expected)
	case "!=":
		return !valueEquals(actual, expected)
	case ">", "<", ">=", "<=":
		return compareOrdered(actual, operator, expected)
	case "in":
		return containsValue(expected, actual)
	case "not in":
		return !containsValue(expected, actual)
	default:
		return false
	}
}

func valueEquals(actual model.Value, expected any) bool {
	switch actual.Type {
	case model.SignalBoolean:
		b, ok := expected.(bool)
		return ok && b == actual.Bool
	case model.SignalInteger:
		n, ok := asFloat(expected)
		return ok && n == float64(actual.Int)
	case model.SignalString:
		s, ok := expected.(string)
		return ok && s == actual.Str
	}
	return false
}

func compareOrdered(actual model.Value, operator string, expected any) bool {
	if actual.Type == model.SignalString {
		s, ok := expected.(string)
		if !ok {
			return false
		}
		return orderedResult(strings.Compare(actual.Str, s), operator)
	}

	if actual.Type != model.SignalInteger {
		return false
	}
	n, ok := asFloat(expected)
	if !ok {
		return false
	}
	a := float64(actual.Int)
	switch {
	case a < n:
		return orderedResult(-1, operator)
	case a > n:
		return orderedResult(1, operator)
	default:
		return orderedResult(0, operator)
	}
}

func orderedResult(cmp int, operator string) bool {
	switch operator {
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	}
	return false
}

func containsValue(expected any, actual model.Value) bool {
	switch e := expected.(type) {
	case []any:
		for _, item := range e {
			if valueEquals(actual, item) {
				return true
			}
		}
		return false
	case string:
		return actual.Type == model.SignalString && strings.Contains(e, actual.Str)
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
