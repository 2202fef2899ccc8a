// Package security provides TLS configuration for source transports.
//
// Sources that dial external systems (Kafka brokers, Redis servers)
// embed TLSConfig in their configs and call Build to obtain a
// *tls.Config for the connection.
//
// # TLS Configuration
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/path/to/ca.pem",
//	    CertFile: "/path/to/cert.pem",
//	    KeyFile:  "/path/to/key.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
package security
