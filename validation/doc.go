// Package validation provides the two validation styles used across
// flowkit: a chainable field validator that accumulates errors and reports
// them all at once, and tag-driven struct validation backed by the
// validator library for configuration and spec types.
//
// # Struct Tag Validation
//
//	type HTTPConfig struct {
//	    Addr   string `json:"addr" validate:"required"`
//	    Buffer int    `json:"buffer" validate:"min=1"`
//	}
//	err := validation.Validate(cfg)
//
// # Chainable Validation
//
//	v := validation.New()
//	v.Required("topic", cfg.Topic).Min("fetch_bytes", cfg.FetchBytes, 1)
//	if appErr := v.Validate(); appErr != nil {
//	    return appErr
//	}
//
// Both styles report failures as *errors.AppError with the invalid-config
// code and a per-field breakdown in the error details.
package validation
