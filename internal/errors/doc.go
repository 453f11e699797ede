// Package errors provides the typed error taxonomy of the forecasting pipeline.
//
// Every failure that leaves a pipeline stage is an *AppError carrying an ErrorType:
//
//	NOT_FOUND   input file missing (checked before any parsing)
//	PARSING     unreadable spreadsheet or missing date column
//	VALIDATION  invalid arguments
//	CONFIG      configuration could not be loaded or is invalid
//	MODEL       the series could not be fitted or predicted
//	RENDER      the chart or table could not be produced
//	STORAGE     an output file could not be written
//
// AppError wraps its cause, so errors.Is and errors.As see through it. The CLI prints
// Error() as is; the type is only used for logging and metrics.
package errors
