package app

import "context"

// ConverterService is the port transports use to reach the numerals core.
type ConverterService interface {
	ToRoman(ctx context.Context, value int) (ConversionResult, error)
	ToInt(ctx context.Context, numeral string) (ConversionResult, error)
	SubscribeNotifications(fromSeq int64) ([]NotificationEvent, <-chan NotificationEvent, func())
}
