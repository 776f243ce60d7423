// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeInvalidMetadata,
//	    "failed to parse component metadata",
//	    parseErr,
//	    map[string]interface{}{
//	        "component": "receiver/otlpreceiver",
//	        "path": metadataPath,
//	    },
//	)
package errors
