package complianceGate

import (
	"fmt"
)

// ComplianceCheckRequest represents the payload sent to the compliance service.
type ComplianceCheckRequest struct {
	// Address is the address being screened
	Address string `json:"address"`
	// CheckType is the kind of screening requested (e.g., "sanctions")
	CheckType string `json:"check_type"`
}

// ComplianceError represents an error response from the compliance service.
type ComplianceError struct {
	// Code is the HTTP status code associated with the error
	Code int `json:"code"`
	// Message is the error message describing what went wrong
	Message string `json:"message"`
}

// Error implements the error interface for ComplianceError.
func (e *ComplianceError) Error() string {
	return fmt.Sprintf("Compliance service error %d: %s", e.Code, e.Message)
}
