package conf

import (
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/opentracer"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// ConfigureTracing installs the datadog tracer as the global opentracing tracer. When
// tracing is disabled the no-op global tracer is left in place.
func ConfigureTracing(tc *TracingConfig) {
	if !tc.Enabled {
		return
	}

	opts := []tracer.StartOption{
		tracer.WithServiceName(tc.ServiceName),
	}
	if tc.Host != "" {
		opts = append(opts, tracer.WithAgentAddr(fmt.Sprintf("%s:%s", tc.Host, tc.Port)))
	}
	for k, v := range tc.Tags {
		opts = append(opts, tracer.WithGlobalTag(k, v))
	}
	opentracing.SetGlobalTracer(opentracer.New(opts...))
}
