// Package security holds TLS configuration for the HTTP transport.
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/etc/ssl/internal-ca.pem",
//	    CertFile: "/etc/ssl/client.pem",
//	    KeyFile:  "/etc/ssl/client-key.pem",
//	}
//	tlsConfig, err := cfg.Build()
package security
