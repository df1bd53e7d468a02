/*
Package servers runs the plants API over HTTP.

A Server owns two listeners: the API listener, which serves the routes of a
RouteRegistrar next to the health endpoints, and an optional metrics
listener exposing Prometheus collectors at /metrics.

# Health endpoints

	GET /livez    always 200 while the process serves requests
	GET /readyz   200 when not draining and the document store answers
	GET /drain    marks the server not ready and starts the drain period
	GET /undrain  marks the server ready again

Shutdown waits until DrainDuration has passed since draining began, starting
the drain itself if /drain was never called, then closes both listeners.

Every API request passes through the flashbots request logger and the
metrics middleware, which labels observations by chi route pattern.

# Example Usage

	cfg := &api.HTTPServerConfig{
	    ListenAddr:  ":8080",
	    MetricsAddr: ":8090",
	    Log:         logger,
	}

	srv, err := servers.New(cfg, handler, store)
	if err != nil {
	    return err
	}
	srv.RunInBackground()
	defer srv.Shutdown()
*/
package servers
