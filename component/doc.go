// Package component defines the lifecycle interface shared by long-lived
// infrastructure pieces and a Registry that starts them in order and stops
// them in reverse.
//
//	reg := component.NewRegistry()
//	_ = reg.Register(httpclient.NewComponent(cfg))
//	if err := reg.StartAll(ctx); err != nil { ... }
//	defer reg.StopAll(context.Background())
package component
