package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidBet          = errors.New("invalid bet")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrProviderData        = errors.New("provider data")
)

// InvalidBetError é um pedido malformado ou um estado que não admite aposta.
type InvalidBetError struct {
	Reason string
}

func InvalidBet(format string, args ...any) error {
	return &InvalidBetError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidBetError) Error() string        { return e.Reason }
func (e *InvalidBetError) Is(target error) bool { return target == ErrInvalidBet }

// InsufficientBalanceError carrega os valores disponível e requerido para
// serem devolvidos ao cliente.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance. Available: $%s, Required: $%s",
		e.Available.StringFixed(2), e.Required.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// ProviderDataError descreve um registro do feed que não pôde ser usado.
// O registro é descartado e o lote continua.
type ProviderDataError struct {
	ExternalID string
	Field      string
	Reason     string
}

func (e *ProviderDataError) Error() string {
	id := e.ExternalID
	if id == "" {
		id = "<unknown>"
	}
	if e.Field == "" {
		return fmt.Sprintf("provider record %s: %s", id, e.Reason)
	}
	return fmt.Sprintf("provider record %s: %s: %s", id, e.Field, e.Reason)
}

func (e *ProviderDataError) Is(target error) bool { return target == ErrProviderData }
