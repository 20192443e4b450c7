package service

import "fmt"

// GatewaySessionError wraps a downstream payment-gateway failure. The payment
// row that triggered the call is rolled back, so the caller may retry.
type GatewaySessionError struct {
	Op  string // "create_session" | "fetch_session" | "create_payout"
	Err error
}

func (e *GatewaySessionError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewaySessionError) Unwrap() error { return e.Err }
