package ports

// PayloadValidator checks a submitted payload before an envelope is
// created. Validation covers payload format only; whether a transaction
// would execute is out of scope here.
type PayloadValidator interface {
	// Validate returns nil when the payload may enter the pending set.
	Validate(payload []byte) error
}
