package port

import "context"

// CurrencyConverter converts amounts into the company default currency.
// Conversion is best-effort: implementations return the unconverted
// amount together with an error when rates are unavailable, and callers
// never fail a submission over it.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, fromCurrency, toCurrency string) (float64, error)

	// Currencies lists the supported currency codes
	Currencies(ctx context.Context) ([]string, error)
}

// MailSender dispatches a single email. Fire-and-forget: failures are
// logged by callers, never propagated.
type MailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ReceiptStore persists an uploaded receipt file and returns the URL
// path it is served under.
type ReceiptStore interface {
	Save(ctx context.Context, originalName string, data []byte) (string, error)
}
