package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

// capture enables a buffer for the duration of the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Enable(&buf)
	t.Cleanup(Disable)
	return &buf
}

func TestNew_AutoDimension(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "AtelierFunction")
	initOnce.Do(func() {})
	functionName = "AtelierFunction"
	t.Cleanup(func() { functionName = "" })

	r := New("TestNamespace")
	if r.namespace != "TestNamespace" {
		t.Errorf("expected namespace TestNamespace, got %s", r.namespace)
	}
	if r.dimensions["FunctionName"] != "AtelierFunction" {
		t.Errorf("expected FunctionName dimension AtelierFunction, got %s", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := capture(t)
	functionName = ""

	Operation("analyze").
		Dimension("Model", "gemini-2.5-flash").
		Metric("LatencyMs", 1234.5, UnitMilliseconds).
		Metric("Attempts", 2, UnitCount).
		Property("outcome", "ok").
		Flush()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsMap, ok := doc["_aws"].(map[string]any)
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}
	cwArr, ok := awsMap["CloudWatchMetrics"].([]any)
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]any)
	if cw["Namespace"] != Namespace {
		t.Errorf("expected namespace %s, got %v", Namespace, cw["Namespace"])
	}
	dims := cw["Dimensions"].([]any)[0].([]any)
	if len(dims) != 2 || dims[0] != "Model" || dims[1] != "Operation" {
		t.Errorf("expected sorted dimensions [Model Operation], got %v", dims)
	}

	if doc["Operation"] != "analyze" {
		t.Errorf("expected Operation=analyze, got %v", doc["Operation"])
	}
	if doc["LatencyMs"] != 1234.5 {
		t.Errorf("expected LatencyMs=1234.5, got %v", doc["LatencyMs"])
	}
	if doc["Attempts"] != float64(2) {
		t.Errorf("expected Attempts=2, got %v", doc["Attempts"])
	}
	if doc["outcome"] != "ok" {
		t.Errorf("expected outcome=ok, got %v", doc["outcome"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	buf := capture(t)
	New("Test").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorder_DisabledByDefault(t *testing.T) {
	var buf bytes.Buffer
	Enable(&buf)
	Disable()
	New("Test").Count("Calls").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output after Disable, got: %s", buf.String())
	}
}

func TestRecorder_Count(t *testing.T) {
	functionName = ""
	rec := New("Test")
	rec.Count("Errors")

	if v, ok := rec.values["Errors"]; !ok || v != float64(1) {
		t.Errorf("expected Errors=1, got %v", v)
	}
	if m, ok := rec.metrics["Errors"]; !ok || m.Unit != UnitCount {
		t.Errorf("expected unit Count, got %v", m.Unit)
	}
}

func TestRecorder_Latency(t *testing.T) {
	rec := New("Test").Latency("LatencyMs", time.Now().Add(-50*time.Millisecond))
	v, ok := rec.values["LatencyMs"].(float64)
	if !ok || v < 50 {
		t.Errorf("expected LatencyMs >= 50, got %v", rec.values["LatencyMs"])
	}
	if rec.metrics["LatencyMs"].Unit != UnitMilliseconds {
		t.Errorf("expected unit Milliseconds, got %s", rec.metrics["LatencyMs"].Unit)
	}
}

func TestRecorder_Chaining(t *testing.T) {
	functionName = ""
	rec := New("Test").
		Dimension("Op", "test").
		Metric("Duration", 100, UnitMilliseconds).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Duration"] != float64(100) {
		t.Error("chaining Metric failed")
	}
	if rec.values["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}
