package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func resetGlobalConfig() {
	configOnce = sync.Once{}
	globalConfig = nil
}

func TestInit_Disabled(t *testing.T) {
	resetGlobalConfig()
	t.Cleanup(resetGlobalConfig)
	t.Setenv("OTEL_ENABLED", "")

	shutdown, err := Init(context.Background())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.False(t, Enabled())
}

func TestGetConfig_Cached(t *testing.T) {
	resetGlobalConfig()
	t.Cleanup(resetGlobalConfig)
	t.Setenv("OTEL_SERVICE_NAME", "scanner-under-test")

	cfg := GetConfig()
	assert.Equal(t, "scanner-under-test", cfg.ServiceName)

	t.Setenv("OTEL_SERVICE_NAME", "changed")
	assert.Same(t, cfg, GetConfig())
}

func TestLoadFromEnv(t *testing.T) {
	for _, k := range []string{
		"OTEL_ENABLED", "OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_PROTOCOL",
		"OTEL_EXPORTER_OTLP_HEADERS", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_TRACES_SAMPLER", "OTEL_TRACES_SAMPLER_ARG", "OTEL_RESOURCE_ATTRIBUTES",
	} {
		t.Setenv(k, "")
	}

	t.Run("defaults", func(t *testing.T) {
		cfg := LoadFromEnv()
		assert.False(t, cfg.Enabled)
		assert.Equal(t, "memscope", cfg.ServiceName)
		assert.Equal(t, "unknown", cfg.ServiceVersion)
		assert.Equal(t, "grpc", cfg.Protocol)
		assert.Empty(t, cfg.Headers)
	})

	t.Run("custom values", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "TRUE")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://collector.example.com:4317")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
		t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer a=b, X-Team=mem")
		t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=dev")

		cfg := LoadFromEnv()
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "https://collector.example.com:4317", cfg.Endpoint)
		assert.Equal(t, "http/protobuf", cfg.Protocol)
		assert.Equal(t, map[string]string{"Authorization": "Bearer a=b", "X-Team": "mem"}, cfg.Headers)
		assert.Equal(t, "dev", cfg.ResourceAttrs["deployment.environment"])
	})
}

func TestParseKeyValuePairs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "k=v", map[string]string{"k": "v"}},
		{"spaces and blanks", " a = 1 ,, b=2 ", map[string]string{"a": "1", "b": "2"}},
		{"missing key or equals", "=v,novalue,c=3", map[string]string{"c": "3"}},
		{"empty value", "d=", map[string]string{"d": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseKeyValuePairs(tt.input))
		})
	}
}

func TestSplitEndpoint(t *testing.T) {
	ep, plain := splitEndpoint("http://localhost:4317", false)
	assert.Equal(t, "localhost:4317", ep)
	assert.True(t, plain)

	ep, plain = splitEndpoint("https://collector:4317", false)
	assert.Equal(t, "collector:4317", ep)
	assert.False(t, plain)

	ep, plain = splitEndpoint("collector:4317", true)
	assert.Equal(t, "collector:4317", ep)
	assert.True(t, plain)
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		want    string
	}{
		{"", "", sdktrace.AlwaysSample().Description()},
		{"always_on", "", sdktrace.AlwaysSample().Description()},
		{"always_off", "", sdktrace.NeverSample().Description()},
		{"traceidratio", "0.25", sdktrace.TraceIDRatioBased(0.25).Description()},
		{"parentbased_always_off", "", sdktrace.ParentBased(sdktrace.NeverSample()).Description()},
		{"parentbased_traceidratio", "bad", sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1)).Description()},
	}
	for _, tt := range tests {
		t.Run(tt.sampler, func(t *testing.T) {
			got := createSampler(&Config{Sampler: tt.sampler, SamplerArg: tt.arg})
			assert.Equal(t, tt.want, got.Description())
		})
	}
}

func TestParseRatio(t *testing.T) {
	assert.Equal(t, 1.0, parseRatio(""))
	assert.Equal(t, 1.0, parseRatio("x"))
	assert.Equal(t, 0.0, parseRatio("-1"))
	assert.Equal(t, 1.0, parseRatio("3"))
	assert.Equal(t, 0.5, parseRatio("0.5"))
}

func TestBuildResource(t *testing.T) {
	res, err := buildResource(context.Background(), &Config{
		ServiceName:    "memscope",
		ServiceVersion: "1.2.3",
		ResourceAttrs:  map[string]string{"team": "tools"},
	})
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "memscope", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.Equal(t, "tools", attrs["team"])
	assert.NotEmpty(t, attrs["process.pid"])
}
