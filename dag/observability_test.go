package dag

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/observability"
)

func staticExecutor(out Outcome, err error) Executor {
	return ExecutorFunc(func(context.Context, string) (Outcome, error) { return out, err })
}

func TestWithTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	exec := WithTracing(staticExecutor(Outcome{Status: OutcomeFailure, Err: stderrors.New("exit status 2")}, nil), "taskflow")
	out, err := exec.Execute(ContextWithAttempt(context.Background(), 2), "lint.sh")
	if err != nil || out.Status != OutcomeFailure {
		t.Fatalf("decorator changed the outcome: %+v, %v", out, err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "taskflow.lint.sh" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs[observability.AttrAttempt].AsInt64() != 2 {
		t.Errorf("attempt attribute = %v", attrs[observability.AttrAttempt])
	}
	if attrs[observability.AttrOutcome].AsString() != "failure" {
		t.Errorf("outcome attribute = %v", attrs[observability.AttrOutcome])
	}
}

func TestWithMetrics_PassesThrough(t *testing.T) {
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	faultErr := stderrors.New("spawn failed")

	exec := WithMetrics(staticExecutor(Outcome{}, faultErr), metrics)
	if _, err := exec.Execute(context.Background(), "x"); !stderrors.Is(err, faultErr) {
		t.Fatalf("expected executor error, got %v", err)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, "debug", "dag-test")

	exec := WithLogging(staticExecutor(Outcome{Status: OutcomeSuccess, Stdout: "built", Stderr: "warning: slow"}, nil), log)
	out, err := exec.Execute(ContextWithAttempt(context.Background(), 1), "build.sh")
	if err != nil || out.Stdout != "built" {
		t.Fatalf("decorator changed the outcome: %+v, %v", out, err)
	}

	text := buf.String()
	for _, want := range []string{"running task", `"stdout":"built"`, `"stderr":"warning: slow"`, `"task":"build.sh"`, `"attempt":1`} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %s:\n%s", want, text)
		}
	}
}

func TestOutcomeLabel(t *testing.T) {
	if got := outcomeLabel(Outcome{Status: OutcomeSuccess}, stderrors.New("x")); got != "fault" {
		t.Errorf("error label = %q", got)
	}
	if got := outcomeLabel(Outcome{}, nil); got != "unknown" {
		t.Errorf("empty label = %q", got)
	}
	if got := outcomeLabel(Outcome{Status: OutcomeNotFound}, nil); got != "not_found" {
		t.Errorf("label = %q", got)
	}
}

func TestRecordRun_NilSummary(t *testing.T) {
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	RecordRun(context.Background(), metrics, nil, stderrors.New("cycle"))
	RecordRun(context.Background(), metrics, &Summary{Duration: time.Second}, nil)
}
