package contracts

import "roman-numerals/go-backend/internal/app"

// Aliases let adapters depend on the port surface without importing the
// service implementation package directly.
type ConverterService = app.ConverterService
type ConversionResult = app.ConversionResult
type ConversionEvent = app.ConversionEvent
type NotificationEvent = app.NotificationEvent
type CategorizedError = app.CategorizedError
