// Package metrics provides the observability hooks of a sitejam build.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks in the pipeline:
//
//	gen := site.New(site.Options{Recorder: metrics.NoopRecorder{}})
//
// To collect metrics, inject a PrometheusRecorder backed by its own registry and
// export it once the build has finished:
//
//	reg := prom.NewRegistry()
//	gen := site.New(site.Options{Recorder: metrics.NewPrometheusRecorder(reg)})
//	_, _ = gen.Generate(ctx)
//	_ = metrics.WriteTextfile("sitejam.prom", reg)
//
// The textfile format is the one read by the node_exporter textfile collector,
// which suits a CLI that exits after a single build.
package metrics
