package errs

import "fmt"

// Machine codes of the registry's domain failures.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodePersonNotFound     = "PERSON_NOT_FOUND"
	CodeAddressNotFound    = "ADDRESS_NOT_FOUND"
	CodeDuplicateTaxID     = "PERSON_TAX_ID_ALREADY_EXISTS"
	CodePostalCodeInvalid  = "POSTAL_CODE_INVALID"
	CodePostalLookupFailed = "POSTAL_LOOKUP_FAILED"
	CodePostalCodeNotFound = "POSTAL_CODE_NOT_FOUND"
)

// DuplicateTaxIDMessage is the fixed user-facing text of the duplicate tax
// id conflict.
const DuplicateTaxIDMessage = "A person with this tax id is already registered."

// NewFieldValidationError reports a single invalid field. The message is
// shown to the user as is.
func NewFieldValidationError(field, message string) *HTTPError {
	code := CodeValidationFailed
	return NewBadRequestError(message, true, &code, []FieldError{{Field: field, Error: message}}, nil)
}

// NewPersonNotFoundError reports a person id that does not resolve.
func NewPersonNotFoundError(id int64) *HTTPError {
	code := CodePersonNotFound
	return NewNotFoundError(fmt.Sprintf("Person not found with id: %d", id), true, &code)
}

// NewAddressNotFoundError reports an address id that does not resolve.
func NewAddressNotFoundError(id int64) *HTTPError {
	code := CodeAddressNotFound
	return NewNotFoundError(fmt.Sprintf("Address not found with id: %d", id), true, &code)
}

// NewDuplicateTaxIDError is the conflict raised when persistence rejects a
// second person with an already registered tax id.
func NewDuplicateTaxIDError() *HTTPError {
	return NewConflictError(DuplicateTaxIDMessage, true, CodeDuplicateTaxID)
}

// NewPostalCodeInvalidError reports postal code input that is not 8 digits.
func NewPostalCodeInvalidError(message string) *HTTPError {
	code := CodePostalCodeInvalid
	return NewBadRequestError(message, true, &code, []FieldError{{Field: "postal_code", Error: message}}, nil)
}

// NewPostalLookupFailedError wraps a transport, status or decoding failure of
// the postal directory.
func NewPostalLookupFailedError(detail string) *HTTPError {
	return NewBadGatewayError("Postal code lookup failed: "+detail, true, CodePostalLookupFailed)
}

// NewPostalCodeNotFoundError reports a code the directory does not know.
func NewPostalCodeNotFoundError(code string) *HTTPError {
	c := CodePostalCodeNotFound
	return NewNotFoundError(fmt.Sprintf("Postal code %s not found", code), true, &c)
}
