package shipment

import "github.com/rotisserie/eris"

// ErrInvalidArgument marks a caller contract violation (negative count,
// negative tolerance, unknown field). Check with errors.Is.
var ErrInvalidArgument = eris.New("invalid argument")
