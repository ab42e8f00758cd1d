package shapefile

import "errors"

// Decode and encode errors. All parse failures are deterministic and
// fail-fast; callers should treat any of them as fatal for that input.
// Use errors.Is to test for a category, the wrapped message carries the
// offending fragment.
var (
	// ErrTokenFormat reports a scalar fragment that does not match its
	// primitive grammar (bad int, float, hex word or identifier).
	ErrTokenFormat = errors.New("token does not match expected format")

	// ErrBlockNotFound reports that a named block's keyword header could
	// not be located in the search text.
	ErrBlockNotFound = errors.New("block not found")

	// ErrMalformedBlock reports a block header with no opening parenthesis
	// or an otherwise structurally incomplete block.
	ErrMalformedBlock = errors.New("malformed block")

	// ErrUnbalancedParens reports a parenthesis scan that exhausted the
	// input before the depth returned to zero.
	ErrUnbalancedParens = errors.New("unbalanced parentheses")

	// ErrCountMismatch reports a list block whose declared count disagrees
	// with the number of items found in the body.
	ErrCountMismatch = errors.New("declared count does not match item count")

	// ErrUnknownVariant reports a discriminated keyword (uv_op_*, key
	// position) with an unrecognized suffix or a wrong parameter count.
	ErrUnknownVariant = errors.New("unknown variant or wrong arity")

	// ErrCompressedShape reports a text-mode load attempted on a file
	// whose signature marks it as compressed.
	ErrCompressedShape = errors.New("shape file is compressed")

	// ErrUnknownSignature reports a file whose leading bytes match neither
	// the plain-text nor the compressed shape signature.
	ErrUnknownSignature = errors.New("unrecognized file signature")

	// ErrInvalidArgument reports a value passed to a serializer that
	// cannot be rendered in the grammar (bad hex word, name containing
	// whitespace or parentheses).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexOutOfRange reports a cross-reference index outside the
	// bounds of its target table. Only Validate raises it; decoding is
	// structural and does not.
	ErrIndexOutOfRange = errors.New("index out of range")
)
