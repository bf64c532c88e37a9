package types

type contextKey string

// ClientAppKey carries the application context through cobra command
// contexts.
const ClientAppKey contextKey = "client_app"
