package config

// RouteID returns the fixed route identifier this deployment serves.
// Both consoles and the server must agree on it.
func RouteID() string {
	return getEnv("ROUTE_ID", "trotro-route-1")
}

// ServerAddr returns the listen address for the coordination server.
func ServerAddr() string {
	return getEnv("ADDR", "0.0.0.0:8080")
}
