// Package step defines the unit of execution the flowkit coordinator
// schedules: a named executor with typed parameters, declared dependencies,
// and an optional binding to the run's external input payload.
//
// Parameters are described by ParamType descriptors (exact type, union,
// optional, any) and checked at two points: structurally when the step is
// built, and against live values when the step executes. Dependencies carry
// a Binding that either feeds an upstream result into a named argument or
// merely gates the start of the step.
//
// Steps are immutable after New; the coordinator shares them freely across
// concurrent runs.
package step
