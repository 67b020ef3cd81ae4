// Package telemetry owns the OpenTelemetry providers for reflectd.
//
// New installs a TracerProvider and MeterProvider exporting over OTLP (gRPC
// or HTTP/protobuf) and registers them globally, so packages that call
// otel.Tracer or otel.Meter pick them up without plumbing. Telemetry is off
// by default; a disabled or degraded instance hands out no-op tracers.
//
//	tel, err := telemetry.New(ctx, &cfg.Telemetry)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Tests use NewTestTelemetry to record spans in memory.
package telemetry
