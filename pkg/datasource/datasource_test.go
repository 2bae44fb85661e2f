package datasource

import "testing"

func TestDictSourceStoreAndGet(t *testing.T) {
	src := NewDictSource("brp", 10)
	src.Store("123456789", map[string]any{"Age": 42, "Name": "Jan"})

	if !src.HasField("age") {
		t.Fatal("expected case-insensitive field match")
	}
	v, ok := src.Get("AGE", map[string]any{"bsn": "123456789"})
	if !ok || v != 42 {
		t.Errorf("Get(AGE) = %v, %v, want 42, true", v, ok)
	}
}

func TestDictSourceGetMissingKey(t *testing.T) {
	src := NewDictSource("brp", 10)
	if _, ok := src.Get("age", map[string]any{"bsn": "unknown"}); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestRegistryResolvesHighestPriorityFirst(t *testing.T) {
	low := NewDictSource("low", 1)
	low.Store("1", map[string]any{"income": 1000})
	high := NewDictSource("high", 100)
	high.Store("1", map[string]any{"income": 5000})

	reg := NewRegistry()
	reg.Register(low)
	reg.Register(high)

	match, ok := reg.Resolve("income", map[string]any{"bsn": "1"})
	if !ok {
		t.Fatal("expected a match")
	}
	if match.Value != 5000 {
		t.Errorf("Value = %v, want 5000 (from the higher-priority source)", match.Value)
	}
	if match.SourceName != "high" {
		t.Errorf("SourceName = %q, want high", match.SourceName)
	}
}

func TestRegistryResolveFallsThroughOnMiss(t *testing.T) {
	noField := NewDictSource("no-field", 100)
	withField := NewDictSource("with-field", 1)
	withField.Store("1", map[string]any{"income": 5000})

	reg := NewRegistry()
	reg.Register(noField)
	reg.Register(withField)

	match, ok := reg.Resolve("income", map[string]any{"bsn": "1"})
	if !ok || match.SourceName != "with-field" {
		t.Errorf("Resolve = %+v, %v, want with-field", match, ok)
	}
}

func TestRegistryUnregister(t *testing.T) {
	src := NewDictSource("temp", 1)
	reg := NewRegistry()
	reg.Register(src)
	reg.Unregister("temp")
	if _, ok := reg.GetSource("temp"); ok {
		t.Error("expected source to be removed")
	}
}

func TestRegistryResolveNoSources(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Resolve("anything", nil); ok {
		t.Error("expected no match with no registered sources")
	}
}
