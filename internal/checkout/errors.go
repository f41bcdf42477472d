package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("el carrito está vacío")
	ErrInvalidEmail       = errors.New("el email no es válido")
	ErrServiceUnavailable = errors.New("la base de datos no está configurada")
	ErrCheckoutCreation   = errors.New("no se pudo iniciar el proceso de pago")
	ErrSessionFulfillment = errors.New("el pago no pudo completarse")
	ErrConnectivity       = errors.New("no se pudo conectar para finalizar el pago")
	ErrSessionTimeout     = errors.New("el pago no se confirmó a tiempo")
)

// FulfillmentError carries the message the payment integration wrote on the session.
type FulfillmentError struct {
	Message string
}

func (e *FulfillmentError) Error() string {
	if e.Message == "" {
		return ErrSessionFulfillment.Error()
	}
	return e.Message
}

func (e *FulfillmentError) Unwrap() error {
	return ErrSessionFulfillment
}
